package main

import "github.com/triadchain/triadchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
