package selector

import (
	"sort"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// shallowSelect returns transactions ordered by shallowest address first,
// round robin across accounts so no single issuer can fill a whole block.
var shallowSelect = func(m map[database.AccountID][]database.BlockTx, howMany int) []database.BlockTx {

	// Sort each account's transactions so the shallowest come first.
	for key := range m {
		if len(m[key]) > 1 {
			sort.Sort(byDepth(m[key]))
		}
	}

	// Pick the first transaction in the slice for each account. Each
	// iteration represents a new row of selections. Keep doing that until
	// all the transactions have been selected.
	var rows [][]database.BlockTx
	for {
		var row []database.BlockTx
		for key := range m {
			if len(m[key]) > 0 {
				row = append(row, m[key][0])
				m[key] = m[key][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	// Order each row by depth and pull transactions from each row until
	// the request is fulfilled or there are no more transactions.
	var final []database.BlockTx
	for _, row := range rows {
		sort.Sort(byDepth(row))
		need := howMany - len(final)
		if howMany != -1 && len(row) > need {
			final = append(final, row[:need]...)
			break
		}
		final = append(final, row...)
	}

	return final
}
