package main

import (
	"log"
	"os"

	"nix-mcp-core/internal/cli"
)

func main() {
	// Ensure all logs go to stderr to avoid polluting command output.
	log.SetOutput(os.Stderr)
	cli.Execute()
}
