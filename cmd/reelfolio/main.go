// Package main is the entry point for the reelfolio server and tools.
package main

import (
	"fmt"
	"os"

	"github.com/acgh213/reelfolio/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
