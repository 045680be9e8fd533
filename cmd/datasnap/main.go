// Package main is the entry point for the datasnap binary.
package main

import (
	"os"

	"datasnap/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
