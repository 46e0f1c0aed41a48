package public

import (
	"github.com/shopspring/decimal"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// tx represents the view model for a transaction in API responses.
type tx struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Address string             `json:"address"`
	Op      database.OpType    `json:"op"`
	Sig     string             `json:"sig"`
}

// point represents the view model for a vertex coordinate pair.
type point struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// triangle represents the view model for a triangle record with its derived
// geometry.
type triangle struct {
	Address        string             `json:"address"`
	State          database.State     `json:"state"`
	Depth          int                `json:"depth"`
	Owner          database.AccountID `json:"owner,omitempty"`
	OwnerName      string             `json:"owner_name,omitempty"`
	CreatedInBlock string             `json:"created_in_block"`
	Vertices       [3]point           `json:"vertices"`
	Centroid       point              `json:"centroid"`
	Area           decimal.Decimal    `json:"area"`
}

// fractalInfo represents the top level view of the fractal state.
type fractalInfo struct {
	LatestBlock string               `json:"latest_block"`
	Uncommitted int                  `json:"uncommitted"`
	Stats       database.FractalStats `json:"stats"`
}
