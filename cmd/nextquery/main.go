// Command nextquery inspects and exercises query-suggestion decoder
// artifacts.
//
// Usage:
//
//	nextquery version                # Show version
//	nextquery inspect model.nxq      # Describe a checkpoint file
//	nextquery tokenize "a query"     # Show the token split for a query
package main

import (
	"os"

	"github.com/nextquery/nextquery/cmd/nextquery/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
