package main

import (
	"fmt"
	"os"

	"nosecounter/cmd/nosecounter/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
