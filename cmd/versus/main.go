package main

import (
	"os"

	"versus/cmd/versus/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
