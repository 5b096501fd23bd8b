package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sogmodel/sogcmd/internal/batch"
)

var (
	batchDryRun bool
	batchDebug  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch BATCHFILE",
	Short: "Run a batch of model jobs",
	Long: "Run the jobs described in a batch descriptor file through a worker\n" +
		"pool. The command fails if any job fails or exits nonzero.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args[0])
	},
}

func registerBatchCommand(root *cobra.Command) {
	root.AddCommand(batchCmd)

	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Report the jobs that would run without running them")
	batchCmd.Flags().BoolVar(&batchDebug, "debug", false, "Show job resolution details")
}

func runBatch(batchfile string) error {
	log, err := batchLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	descriptor, err := batch.Load(batchfile)
	if err != nil {
		return err
	}

	orchestrator := batch.NewOrchestrator(log, os.Stdout)
	if batchDryRun {
		orchestrator.DryRun(descriptor)
		return nil
	}
	_, err = orchestrator.Run(descriptor)
	return err
}

func batchLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if batchDebug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
