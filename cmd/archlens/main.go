package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Credentials such as OPENAI_API_KEY may live in a local .env file.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
