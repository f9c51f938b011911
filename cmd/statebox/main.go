package main

import (
	"os"

	"statebox/cmd/statebox/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
