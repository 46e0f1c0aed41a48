package cmd

import (
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

var subdivideCmd = &cobra.Command{
	Use:   "subdivide",
	Short: "Subdivide a triangle into its three corner children",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		submitOp(privateKey, database.OpSubdivide)
	},
}

func init() {
	rootCmd.AddCommand(subdivideCmd)
	subdivideCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	subdivideCmd.Flags().Uint16VarP(&chainID, "chain-id", "c", 1, "Chain id for the transaction.")
	subdivideCmd.Flags().StringVarP(&address, "triangle", "t", "", "Address of the triangle to subdivide.")
	subdivideCmd.MarkFlagRequired("triangle")
}
