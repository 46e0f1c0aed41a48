// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/triadchain/triadchain/foundation/fractal/geometry"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time    `json:"date"`
	ChainID       uint16       `json:"chain_id"`       // Unique id for this running instance of the chain.
	TransPerBlock uint16       `json:"trans_per_block"` // Maximum number of transactions in a block.
	BaseTarget    string       `json:"base_target"`    // Starting 256-bit proof-of-work target in hex.
	EpochBlocks   uint16       `json:"epoch_blocks"`   // Number of blocks per retarget epoch.
	BlockInterval uint16       `json:"block_interval"` // Expected seconds between blocks.
	MaxDepth      uint8        `json:"max_depth"`      // Maximum representable subdivision depth.
	Vertices      [3][2]string `json:"vertices"`       // Genesis triangle corners as canonical decimals.
}

// GenesisVertices parses the configured corner coordinates into the exact
// fixed-point form used by the geometry kernel.
func (g Genesis) GenesisVertices() (geometry.Vertices, error) {
	var vs geometry.Vertices

	for i, corner := range g.Vertices {
		p, err := geometry.NewPoint(corner[0], corner[1])
		if err != nil {
			return geometry.Vertices{}, fmt.Errorf("genesis vertex %d: %w", i, err)
		}
		vs[i] = p
	}

	if geometry.IsDegenerate(vs) {
		return geometry.Vertices{}, fmt.Errorf("genesis vertices: %w", geometry.ErrDegenerate)
	}

	return vs, nil
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load() (Genesis, error) {
	path := "zblock/genesis.json"
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
