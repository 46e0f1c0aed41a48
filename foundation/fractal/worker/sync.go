package worker

// Sync updates the peer list, mempool, and blocks from the known peers.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: requestPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this node's list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Retrieve the mempool from the peer.
		pool, err := w.state.NetRequestPeerMempool(pr)
		if err != nil {
			w.evHandler("worker: sync: requestPeerMempool: %s: ERROR: %s", pr.Host, err)
		}
		for _, tx := range pool {
			w.evHandler("worker: sync: requestPeerMempool: %s: Add Tx: %s", pr.Host, tx.SignatureString()[:16])
			w.state.UpsertMempool(tx)
		}

		// If this peer has blocks we don't have, we need to add them. A
		// peer at the same height can still hold the heavier chain, so the
		// advertised work decides when the block numbers match.
		latestBlockNumber := w.state.RetrieveLatestBlock().Header.Number

		switch {
		case peerStatus.LatestBlockNumber > latestBlockNumber:
			w.evHandler("worker: sync: requestPeerBlocks: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

			if err := w.state.NetRequestPeerBlocks(pr); err != nil {
				w.evHandler("worker: sync: requestPeerBlocks: %s: ERROR %s", pr.Host, err)
			}

		case peerStatus.ChainWorkValue().Cmp(w.state.RetrieveChainWork()) > 0:
			w.evHandler("worker: sync: resolveFork: %s: chainWork[%s]", pr.Host, peerStatus.ChainWork)

			if err := w.state.NetResolveFork(pr); err != nil {
				w.evHandler("worker: sync: resolveFork: %s: ERROR %s", pr.Host, err)
			}
		}
	}
}
