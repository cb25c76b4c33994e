package main

import (
	"fmt"
	"os"

	"linkcal/internal/cli"
)

var version = "0.1.0"

func main() {
	if err := cli.Run(version); err != nil {
		fmt.Fprintf(os.Stderr, "linkcal: %v\n", err)
		os.Exit(1)
	}
}
