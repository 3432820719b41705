package main

import (
	"github.com/acmprop/acmprop/internal/cli"
	"github.com/joho/godotenv"
)

// main loads the optional .env file and hands off to the CLI.
func main() {
	_ = godotenv.Load()
	cli.Execute()
}
