package main

import (
	"os"

	"github.com/agalbachicar/tidypatch/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
