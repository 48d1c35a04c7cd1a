package main

import (
	"os"

	"github.com/JonMunkholm/fileparse/cmd/fileparse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
