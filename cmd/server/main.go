// Command server runs the messagely API.
package main

import (
	"os"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := NewRootCmd()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
