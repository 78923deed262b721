package main

import (
	"os"

	"github.com/conneroisu/labsheet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
