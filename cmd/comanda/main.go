package main

import (
	"os"

	"github.com/jportela/comanda/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
