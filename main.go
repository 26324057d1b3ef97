package main

import (
	"os"

	"github.com/frherrer/treesync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
