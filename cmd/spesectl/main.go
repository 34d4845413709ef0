// Package main is the entry point for the spesevoce command-line client.
package main

import (
	"os"

	"spesevoce/cmd/spesectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
