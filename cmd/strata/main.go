package main

import (
	"os"

	"github.com/dshills/strata/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
