// Package main is the entry point for inspectro: a metering proxy for LLM
// APIs and a terminal dashboard over the usage it records.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
