package main

import (
	"os"

	"github.com/clawdbot/metalens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
