package main

import (
	"os"

	"github.com/spigell/hh-assessor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
