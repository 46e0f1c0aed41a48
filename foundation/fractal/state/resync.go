package state

// Resync runs a background sync against the known peers. This is used when
// a peer proposes a block this node can't attach, meaning the peer is on a
// different chain that may carry more work.
func (s *State) Resync() {
	s.mu.Lock()
	s.allowMining = false
	s.mu.Unlock()

	s.resyncWG.Add(1)
	go func() {
		s.evHandler("state: Resync: started: *****************************")
		defer func() {
			s.turnMiningOn()
			s.evHandler("state: Resync: completed: *****************************")
			s.resyncWG.Done()
		}()

		s.Worker.Sync()
	}()
}
