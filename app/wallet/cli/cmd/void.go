package cmd

import (
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

var voidCmd = &cobra.Command{
	Use:   "void",
	Short: "Retire a triangle from further subdivision",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		submitOp(privateKey, database.OpVoid)
	},
}

func init() {
	rootCmd.AddCommand(voidCmd)
	voidCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	voidCmd.Flags().Uint16VarP(&chainID, "chain-id", "c", 1, "Chain id for the transaction.")
	voidCmd.Flags().StringVarP(&address, "triangle", "t", "", "Address of the triangle to void.")
	voidCmd.MarkFlagRequired("triangle")
}
