package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/xcoulter/Solana-Epoch-Tracker/internal/cli"
)

func main() {
	_ = godotenv.Load()

	os.Exit(int(cli.Run()))
}
