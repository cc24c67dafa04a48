package main

import (
	"os"

	"github.com/V4T54L/grabbag/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
