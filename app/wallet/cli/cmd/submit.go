package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

var (
	url     string
	chainID uint16
	address string
)

// submitOp signs the operation for the triangle at the given address and
// submits it to the node's public API.
func submitOp(privateKey *ecdsa.PrivateKey, op database.OpType) {
	addr, err := database.ToAddress(address)
	if err != nil {
		log.Fatal(err)
	}

	tx, err := database.NewTx(chainID, addr, op)
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		log.Fatalf("submit rejected: status %d: %v", resp.StatusCode, result)
	}

	fmt.Printf("submitted %s for triangle %s\n", op, addr)
}
