package main

import (
	"os"

	"github.com/aaronromeo/swolecoach/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
