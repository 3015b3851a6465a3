package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/doc-auditor/internal/observability"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the compliance policies in the catalog",
	Long:  "Lists every policy in the catalog. With --verbose each policy is printed in full: disclaimers, color palette, logo references, and language.",
	RunE:  runPolicies,
}

var (
	policiesPath    string
	policiesVerbose bool
)

func init() {
	policiesCmd.Flags().StringVar(&policiesPath, "policies", "", "Path to the YAML policy catalog (built-in catalog when omitted)")
	policiesCmd.Flags().BoolVarP(&policiesVerbose, "verbose", "v", false, "Print full policy details")

	rootCmd.AddCommand(policiesCmd)
}

func runPolicies(_ *cobra.Command, _ []string) error {
	catalog, err := loadCatalog(policiesPath)
	if err != nil {
		return err
	}

	if policiesVerbose {
		printer := observability.NewPrinter(os.Stdout)
		for _, p := range catalog.Policies() {
			printer.PrintPolicy(p)
		}
		return nil
	}

	defaultID := catalog.Default().ID
	for _, id := range catalog.IDs() {
		marker := " "
		if id == defaultID {
			marker = "*"
		}
		_, _ = fmt.Fprintf(os.Stdout, "%s %s\n", marker, id)
	}
	return nil
}
