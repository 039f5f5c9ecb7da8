// Package main provides the sift command-line interface.
package main

import (
	"os"

	"github.com/siftdb/sift/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
