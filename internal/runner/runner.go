// Package runner launches the model executable as a child process with
// its infile on stdin and its output captured to a file.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sogmodel/sogcmd/internal/model"
)

// DefaultNice is the scheduling priority model runs get unless a caller
// asks for something else. Model runs are long and CPU bound; they yield
// to everything.
const DefaultNice = 19

// watchInterval is how often the watch loop polls the outfile for new
// bytes.
const watchInterval = 100 * time.Millisecond

// RunSpec describes one model run: which executable, which materialized
// flat infile to feed it, and where its stdout goes.
type RunSpec struct {
	Executable string
	Infile     string
	Outfile    string
	Nice       int
	Watch      bool
	DryRun     bool
}

// Runner executes model runs. Stdout is the caller's display, used for
// dry-run reports and watch output.
type Runner struct {
	Stdout io.Writer
}

func New(stdout io.Writer) *Runner {
	return &Runner{Stdout: stdout}
}

// CommandLine returns the shell-style command line a spec resolves to.
// The model reads its infile from stdin and writes progress to stdout;
// stderr is folded into the same outfile.
func CommandLine(spec RunSpec) string {
	return fmt.Sprintf(
		"nice -n %d %s < %s > %s 2>&1",
		spec.Nice, spec.Executable, spec.Infile, spec.Outfile)
}

// Run launches the model run and returns the child's exit status. A dry run
// only reports the resolved command line. A missing or unlaunchable
// executable is a LaunchError; a nonzero exit status is not an error of
// the runner, it is the result.
func (r *Runner) Run(spec RunSpec) (int, error) {
	if spec.DryRun {
		fmt.Fprintln(r.Stdout, "Command that would have been used to run the model:")
		fmt.Fprintf(r.Stdout, "  %s\n", CommandLine(spec))
		if spec.Watch {
			fmt.Fprintf(r.Stdout,
				"Contents of %s would have been shown on screen while the run was in progress.\n",
				spec.Outfile)
		}
		return 0, nil
	}

	info, err := os.Stat(spec.Executable)
	if err != nil {
		return 0, &model.LaunchError{Executable: spec.Executable, Err: err}
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return 0, &model.LaunchError{
			Executable: spec.Executable,
			Err:        errors.New("not an executable file"),
		}
	}

	stdin, err := os.Open(spec.Infile)
	if err != nil {
		return 0, fmt.Errorf("failed to open infile: %w", err)
	}
	defer stdin.Close()
	stdout, err := os.Create(spec.Outfile)
	if err != nil {
		return 0, fmt.Errorf("failed to create outfile: %w", err)
	}
	defer stdout.Close()

	cmd := exec.Command("nice", "-n", strconv.Itoa(spec.Nice), spec.Executable)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stdout
	// The executable itself was vetted above, so a start failure here is
	// the nice wrapper or the environment, not the model binary.
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start model run: %w", err)
	}

	done := make(chan struct{})
	watched := make(chan struct{})
	if spec.Watch {
		go func() {
			defer close(watched)
			r.watchOutfile(spec.Outfile, done)
		}()
	} else {
		close(watched)
	}

	err = cmd.Wait()
	close(done)
	<-watched
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("model run failed: %w", err)
	}
	return 0, nil
}

// watchOutfile streams the growing outfile to the runner's display until
// the run is done and no more bytes appear. Reads poll rather than block,
// so partial lines are copied as they land and completed on a later tick.
func (r *Runner) watchOutfile(path string, done <-chan struct{}) {
	var f *os.File
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	finished := false
	for {
		if f == nil {
			// Run creates the outfile before the child starts; retry
			// here only covers a failed open.
			f, _ = os.Open(path)
		}
		if f != nil {
			io.Copy(r.Stdout, f)
		}
		if finished {
			return
		}
		select {
		case <-done:
			// One more drain pass picks up bytes flushed at exit.
			finished = true
		case <-time.After(watchInterval):
		}
	}
}
