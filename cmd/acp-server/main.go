// Package main is the entry point for the acp-server daemon.
package main

import (
	"os"

	"github.com/stacklok/acp/cmd/acp-server/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
