package main

import (
	"os"

	"github.com/aussiebroadwan/jobboard/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A .env next to the binary may carry JOBBOARD_* settings.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
