package main

import (
	"fmt"
	"os"
)

func main() {
	command := newRootCommand(os.Stdout, os.Stderr, os.LookupEnv)
	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "servelive: %v\n", err)
		os.Exit(1)
	}
}
