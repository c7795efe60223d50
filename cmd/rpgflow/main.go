// Package main provides the rpgflow CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/rpgflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
