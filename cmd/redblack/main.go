// Package main provides the entry point for the redblack CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Maniekw12/Red-Black-Tree-implementation/cmd/redblack/commands"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
