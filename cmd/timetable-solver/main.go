package main

import (
	"fmt"
	"os"
)

func main() {
	command := newRootCommand()
	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
