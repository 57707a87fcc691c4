// Package main is the entry point for the minion CLI.
package main

import (
	"os"

	"github.com/smartworkx/minion/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
