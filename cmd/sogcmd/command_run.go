package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sogmodel/sogcmd/internal/prepare"
	"github.com/sogmodel/sogcmd/internal/runner"
)

var (
	runOutfile      string
	runEditFiles    []string
	runLegacyInfile bool
	runNice         int
	runWatch        bool
	runDryRun       bool

	// Exit status of the model run, surfaced through main.
	runExitStatus int
)

var runCmd = &cobra.Command{
	Use:   "run EXEC INFILE",
	Short: "Run the model",
	Long: "Prepare the infile, run the model executable with it, and store\n" +
		"the run's output. The command's exit status is the model's.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModel(args[0], args[1])
	},
}

func registerRunCommand(root *cobra.Command) {
	root.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runOutfile, "outfile", "o", "", "File to receive the run's output (default INFILE.out)")
	runCmd.Flags().StringSliceVarP(&runEditFiles, "editfile", "e", nil, "YAML edit file to apply to the infile (repeatable, applied in order)")
	runCmd.Flags().BoolVar(&runLegacyInfile, "legacy-infile", false, "INFILE is a legacy flat infile, not a YAML document")
	runCmd.Flags().IntVar(&runNice, "nice", runner.DefaultNice, "Priority to run the model at")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Show the contents of the outfile on screen while the model runs")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report the command that would run without running it")
}

func runModel(executable, infilePath string) error {
	if runLegacyInfile && len(runEditFiles) > 0 {
		return fmt.Errorf("edit files cannot be applied to a legacy infile")
	}

	outfile := runOutfile
	if outfile == "" {
		outfile = infilePath + ".out"
	}

	flatPath := infilePath
	if !runLegacyInfile {
		if runDryRun {
			// Report the path the flat file would get; nothing is written.
			flatPath = prepare.TempInfileName(infilePath)
		} else {
			path, err := prepare.TempInfile(infilePath, runEditFiles)
			if err != nil {
				return err
			}
			defer os.Remove(path)
			flatPath = path
		}
	}

	status, err := runner.New(os.Stdout).Run(runner.RunSpec{
		Executable: executable,
		Infile:     flatPath,
		Outfile:    outfile,
		Nice:       runNice,
		Watch:      runWatch,
		DryRun:     runDryRun,
	})
	if err != nil {
		return err
	}
	runExitStatus = status
	return nil
}
