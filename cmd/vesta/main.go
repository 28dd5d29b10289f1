package main

import (
	"os"

	"github.com/vesta-fin/vesta/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
