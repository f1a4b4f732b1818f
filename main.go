package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/hydrai/cli/cmd"
)

func main() {
	// A missing .env is the common case
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		// Cobra already prints the error, so we just exit
		os.Exit(1)
	}
}
