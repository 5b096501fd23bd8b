package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sogmodel/sogcmd/internal/model"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "SOG")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func writeInfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "SOG.infile")
	require.NoError(t, os.WriteFile(path,
		[]byte("\"maxdepth\"  4.000000d+01  \"depth of modelled domain [m]\"\n"), 0o644))
	return path
}

func TestCommandLine(t *testing.T) {
	spec := RunSpec{
		Executable: "./SOG",
		Infile:     "SOG.infile",
		Outfile:    "SOG.out",
		Nice:       19,
	}
	require.Equal(t, "nice -n 19 ./SOG < SOG.infile > SOG.out 2>&1", CommandLine(spec))
}

func TestDryRun(t *testing.T) {
	var out bytes.Buffer
	outfile := filepath.Join(t.TempDir(), "SOG.out")
	spec := RunSpec{
		Executable: "./no-such-SOG",
		Infile:     "no-such.infile",
		Outfile:    outfile,
		Nice:       19,
		DryRun:     true,
	}

	status, err := New(&out).Run(spec)
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Contains(t, out.String(), CommandLine(spec))
	require.NoFileExists(t, outfile)
}

func TestRunCapturesOutput(t *testing.T) {
	exe := writeScript(t, "cat\necho run complete\n")
	outfile := filepath.Join(t.TempDir(), "SOG.out")

	var out bytes.Buffer
	status, err := New(&out).Run(RunSpec{
		Executable: exe,
		Infile:     writeInfile(t),
		Outfile:    outfile,
		Nice:       19,
	})
	require.NoError(t, err)
	require.Equal(t, 0, status)

	captured, err := os.ReadFile(outfile)
	require.NoError(t, err)
	require.Contains(t, string(captured), "maxdepth")
	require.Contains(t, string(captured), "run complete")
}

func TestRunReturnsNonzeroExitStatus(t *testing.T) {
	exe := writeScript(t, "echo blowing up >&2\nexit 3\n")
	outfile := filepath.Join(t.TempDir(), "SOG.out")

	var out bytes.Buffer
	status, err := New(&out).Run(RunSpec{
		Executable: exe,
		Infile:     writeInfile(t),
		Outfile:    outfile,
		Nice:       19,
	})
	require.NoError(t, err)
	require.Equal(t, 3, status)

	// stderr lands in the outfile too.
	captured, err := os.ReadFile(outfile)
	require.NoError(t, err)
	require.Contains(t, string(captured), "blowing up")
}

func TestRunMissingExecutable(t *testing.T) {
	var out bytes.Buffer
	_, err := New(&out).Run(RunSpec{
		Executable: filepath.Join(t.TempDir(), "no-such-SOG"),
		Infile:     writeInfile(t),
		Outfile:    filepath.Join(t.TempDir(), "SOG.out"),
		Nice:       19,
	})
	var launchErr *model.LaunchError
	require.ErrorAs(t, err, &launchErr)
}

func TestRunWrapperStartFailureIsNotALaunchError(t *testing.T) {
	exe := writeScript(t, "exit 0\n")
	// An empty PATH makes the nice wrapper unresolvable while the model
	// executable itself is fine; the failure must not blame the model.
	t.Setenv("PATH", t.TempDir())

	var out bytes.Buffer
	_, err := New(&out).Run(RunSpec{
		Executable: exe,
		Infile:     writeInfile(t),
		Outfile:    filepath.Join(t.TempDir(), "SOG.out"),
		Nice:       19,
	})
	require.Error(t, err)
	var launchErr *model.LaunchError
	require.False(t, errors.As(err, &launchErr))
	require.ErrorContains(t, err, "failed to start model run")
}

func TestRunNonExecutableFile(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "SOG")
	require.NoError(t, os.WriteFile(exe, []byte("not a program"), 0o644))

	var out bytes.Buffer
	_, err := New(&out).Run(RunSpec{
		Executable: exe,
		Infile:     writeInfile(t),
		Outfile:    filepath.Join(t.TempDir(), "SOG.out"),
		Nice:       19,
	})
	var launchErr *model.LaunchError
	require.ErrorAs(t, err, &launchErr)
}

func TestWatchStreamsOutfile(t *testing.T) {
	exe := writeScript(t, "echo first line\nsleep 0.3\necho second line\n")
	outfile := filepath.Join(t.TempDir(), "SOG.out")

	var out bytes.Buffer
	status, err := New(&out).Run(RunSpec{
		Executable: exe,
		Infile:     writeInfile(t),
		Outfile:    outfile,
		Nice:       19,
		Watch:      true,
	})
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Contains(t, out.String(), "first line")
	require.Contains(t, out.String(), "second line")
}
