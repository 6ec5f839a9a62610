package main

import (
	"os"

	"github.com/xxSusel/flitify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
