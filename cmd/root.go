// Package cmd contains the askfolio CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "askfolio",
	Short: "askfolio - ask-me-anything backend for a personal portfolio",
	Long: `askfolio serves a personal portfolio's question-answering backend.

It scrapes the owner's public sources (GitHub, portfolio site), indexes them
as vector embeddings, and answers visitor questions in the owner's first
person, grounded in the indexed content.

Run "askfolio serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
