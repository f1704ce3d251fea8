// npass - command-line client for the NeuroPassword vault.
//
// Build with: go build -ldflags "-X github.com/neuropassword/npass/internal/version.Version=v0.3.0" .
package main

import (
	"os"

	"github.com/neuropassword/npass/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
