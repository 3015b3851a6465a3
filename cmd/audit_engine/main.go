// Package main provides the entry point for the document compliance audit engine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "audit_engine",
	Short: "Document compliance audit engine",
	Long:  "Audit engine validates generated PDF documents against client-specific compliance policies: disclaimers, formatting, typography, grammar, brand marks, color palettes, and cross-page consistency.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
