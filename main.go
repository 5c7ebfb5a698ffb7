package main

import (
	"os"

	"github.com/okarpov/jobforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
