package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type triangleView struct {
	Address        string `json:"address"`
	State          string `json:"state"`
	Depth          int    `json:"depth"`
	Owner          string `json:"owner"`
	OwnerName      string `json:"owner_name,omitempty"`
	CreatedInBlock string `json:"created_in_block"`
	Area           string `json:"area"`
}

var triangleCmd = &cobra.Command{
	Use:   "triangle",
	Short: "Print the current record for a triangle",
	Run:   triangleRun,
}

func init() {
	rootCmd.AddCommand(triangleCmd)
	triangleCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	triangleCmd.Flags().StringVarP(&address, "triangle", "t", "", "Address of the triangle to look up.")
	triangleCmd.MarkFlagRequired("triangle")
}

func triangleRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/triangle/view/%s", url, address))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("lookup failed: status %d", resp.StatusCode)
	}

	var tri triangleView
	if err := json.NewDecoder(resp.Body).Decode(&tri); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Address:", tri.Address)
	fmt.Println("State:  ", tri.State)
	fmt.Println("Depth:  ", tri.Depth)
	if tri.Owner != "" {
		owner := tri.Owner
		if tri.OwnerName != "" {
			owner = fmt.Sprintf("%s (%s)", tri.Owner, tri.OwnerName)
		}
		fmt.Println("Owner:  ", owner)
	}
	fmt.Println("Area:   ", tri.Area)
	fmt.Println("Block:  ", tri.CreatedInBlock)
}
