package main

import (
	"os"

	"github.com/Iron-Ham/ralphui/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
