package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "sogcmd",
	Short: "Run the SOG model and manage its infiles",
	Long: "sogcmd prepares YAML configuration documents into the flat infiles\n" +
		"the SOG coastal ocean model reads, runs the model executable, and\n" +
		"drives batches of runs through a worker pool.",
}

func init() {
	registerRunCommand(rootCmd)
	registerReadInfileCommand(rootCmd)
	registerBatchCommand(rootCmd)
}
