// Package main is the entry point for the acp operator CLI.
package main

import (
	"os"

	"github.com/stacklok/acp/cmd/acp/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
