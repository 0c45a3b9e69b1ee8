package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "batchmates",
	Short: "Who's who in the batch: fetch intros, extract profiles, map shared interests",
	Long: `batchmates turns a channel full of introduction messages into a
queryable picture of the batch: structured profiles, a canonical interest
vocabulary, a relational store, and a shared-interest graph.

Typical flow:
  batchmates fetch       # pull intro messages from Zulip
  batchmates extract     # LLM-extract structured profiles
  batchmates normalize   # condense free-text interests into canonical tags
  batchmates ingest      # load profiles and tags into the database
  batchmates graph       # build the shared-interest graph
  batchmates serve       # expose the query API and MCP server

Or just:
  batchmates run         # all of the above except serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
