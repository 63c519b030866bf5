package main

import (
	"os"

	"formrelay/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
