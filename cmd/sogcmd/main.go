package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	// A model run that started but exited nonzero is not a command
	// error; its status still propagates to the shell.
	os.Exit(runExitStatus)
}
