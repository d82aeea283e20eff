// Package main provides the entry point for the Repo Expounder HTTP API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "expound_agent",
	Short: "Repo Expounder HTTP API Server",
	Long:  "Repo Expounder generates structured README documents for GitHub repositories by grounding an LLM in the repository's actual content, and stores the rendered markdown per user.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
