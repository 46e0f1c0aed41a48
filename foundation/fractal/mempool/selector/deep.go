package selector

import (
	"sort"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// deepSelect returns transactions ordered by deepest address first. Deep
// proofs carry the harder targets, so a miner using this strategy fills
// blocks with the work-heavy transactions before the cheap ones.
var deepSelect = func(m map[database.AccountID][]database.BlockTx, howMany int) []database.BlockTx {
	var all []database.BlockTx
	for key := range m {
		all = append(all, m[key]...)
	}

	sort.Sort(sort.Reverse(byDepth(all)))

	if howMany != -1 && len(all) > howMany {
		all = all[:howMany]
	}

	return all
}
