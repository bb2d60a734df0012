// Package main provides the memocache CLI for inspecting and maintaining
// shared cache stores out-of-band.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
