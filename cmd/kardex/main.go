package main

import (
	"os"

	"github.com/jhoicas/kardex-api/cmd/kardex/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
