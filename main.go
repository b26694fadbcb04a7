package main

import (
	"os"

	"github.com/wegman-software/osmshapes-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
