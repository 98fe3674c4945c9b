// s-mmpbsa - MM-PBSA binding energy decomposition with alanine scanning
package main

import (
	"fmt"
	"os"

	"github.com/Rufus-willy/s-mmpbsa/cmd/smmpbsa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
