// Package main provides the entry point for the mloq CLI.
package main

import (
	"fmt"
	"os"

	"github.com/FragileTech/ml-ops-quickstart-sub000/cmd/mloq/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mloq:", commands.Describe(err))
		os.Exit(commands.ExitCode(err))
	}
}
