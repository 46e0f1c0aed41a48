// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// List of different select strategies.
const (
	StrategyShallow = "shallow"
	StrategyDeep    = "deep"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyShallow: shallowSelect,
	StrategyDeep:    deepSelect,
}

// Func defines a function that takes a mempool of transactions grouped by
// issuing account and selects howMany of them in an order based on the
// function's strategy. Receiving -1 for howMany must return all the
// transactions in the strategy's ordering.
type Func func(transactions map[database.AccountID][]database.BlockTx, howMany int) []database.BlockTx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byDepth provides sorting support by the triangle address depth.
type byDepth []database.BlockTx

// Len returns the number of transactions in the list.
func (bd byDepth) Len() int {
	return len(bd)
}

// Less sorts the list by depth in ascending order. An address closer to the
// genesis triangle carries the easier proof target.
func (bd byDepth) Less(i, j int) bool {
	return bd[i].Address.Depth() < bd[j].Address.Depth()
}

// Swap moves transactions in the order of the depth value.
func (bd byDepth) Swap(i, j int) {
	bd[i], bd[j] = bd[j], bd[i]
}
