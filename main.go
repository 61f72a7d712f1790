package main

import (
	"os"

	"github.com/kverlo/fieldday/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
