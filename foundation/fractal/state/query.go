package state

import (
	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/geometry"
)

// QueryLatest represents a query for the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryTriangle returns the record for the specified triangle address.
func (s *State) QueryTriangle(addr database.Address) (database.Triangle, error) {
	return s.db.GetTriangle(addr)
}

// QueryVertices recomputes the vertex coordinates for the specified address.
func (s *State) QueryVertices(addr database.Address) (geometry.Vertices, error) {
	return s.db.Vertices(addr)
}

// QueryTriangles returns a snapshot copy of all the triangle records.
func (s *State) QueryTriangles() map[string]database.Triangle {
	return s.db.CopyTriangles()
}

// QueryFractalStats returns accounting over the current fractal state.
func (s *State) QueryFractalStats() (database.FractalStats, error) {
	return s.db.Stats()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers. This
// function reads the chain from storage first.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	if from == QueryLatest {
		from = s.db.LatestBlock().Header.Number
		to = from
	}
	if to == QueryLatest {
		to = s.db.LatestBlock().Header.Number
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByNumber: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}

// QueryBlocksByAddress returns the set of blocks that touch the specified
// triangle address or any of its descendants. An empty address returns all
// blocks.
func (s *State) QueryBlocksByAddress(addr database.Address, includeDescendants bool) ([]database.Block, error) {
	var out []database.Block

	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Trans.Values() {
			match := len(addr) == 0 ||
				tx.Address.String() == addr.String() ||
				(includeDescendants && addr.IsAncestorOf(tx.Address))

			if match {
				out = append(out, block)
				break
			}
		}
	}

	return out, nil
}
