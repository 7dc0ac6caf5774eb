package main

import (
	"os"

	"github.com/nixxel-company-limited/escpos-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
