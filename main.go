package main

import (
	"github.com/ethpandaops/validator-ops/cmd"
)

func main() {
	cmd.Execute()
}
