package batch

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sogmodel/sogcmd/internal/prepare"
	"github.com/sogmodel/sogcmd/internal/runner"
)

// Result is the outcome of one batch job. Err covers failures of the
// job's own machinery (unreadable configuration, unlaunchable
// executable); a model run that starts and exits nonzero is a zero Err
// with a nonzero ExitStatus.
type Result struct {
	ExitStatus int
	Err        error
}

// Orchestrator runs the jobs of a resolved descriptor through a worker
// pool sized by the descriptor's max_concurrent_jobs.
type Orchestrator struct {
	log    *zap.Logger
	stdout io.Writer
}

func NewOrchestrator(log *zap.Logger, stdout io.Writer) *Orchestrator {
	return &Orchestrator{log: log, stdout: stdout}
}

// Run executes every job in the descriptor and returns the per-job
// results keyed by job name. The returned error is non-nil when any job
// failed to run or exited nonzero; individual failures never stop
// sibling jobs.
func (o *Orchestrator) Run(d *Descriptor) (map[string]Result, error) {
	o.log.Info("starting batch",
		zap.Int("jobs", len(d.Jobs)),
		zap.Int("max_concurrent_jobs", d.MaxConcurrentJobs))

	outcomes := make([]Result, len(d.Jobs))
	var g errgroup.Group
	g.SetLimit(d.MaxConcurrentJobs)

	for i := range d.Jobs {
		job := &d.Jobs[i]
		// The flat infile is materialized here, before the job takes a
		// worker slot, so a job never starts with its inputs missing.
		infilePath, cleanup, err := o.materialize(job)
		if err != nil {
			o.log.Error("failed to build job inputs",
				zap.String("job", job.Name), zap.Error(err))
			outcomes[i] = Result{Err: err}
			continue
		}

		out := outcomes[i : i+1]
		g.Go(func() error {
			defer cleanup()
			out[0] = o.runOne(job, infilePath)
			return nil
		})
	}
	g.Wait()

	results := make(map[string]Result, len(d.Jobs))
	failed := 0
	for i := range d.Jobs {
		results[d.Jobs[i].Name] = outcomes[i]
		if outcomes[i].Err != nil || outcomes[i].ExitStatus != 0 {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d batch jobs failed", failed, len(d.Jobs))
	}
	o.log.Info("batch finished", zap.Int("jobs", len(d.Jobs)))
	return results, nil
}

// materialize produces the flat infile a job's model run reads. YAML
// jobs get their base document merged with edits and rendered to a temp
// file; legacy jobs feed their flat infile to the model unchanged.
func (o *Orchestrator) materialize(job *Job) (string, func(), error) {
	switch cfg := job.Config.(type) {
	case YamlConfig:
		o.log.Debug("rendering infile",
			zap.String("job", job.Name),
			zap.String("base_infile", cfg.BaseInfile),
			zap.Strings("edit_files", cfg.EditFiles))
		path, err := prepare.TempInfile(cfg.BaseInfile, cfg.EditFiles)
		if err != nil {
			return "", nil, err
		}
		return path, func() { os.Remove(path) }, nil
	case LegacyConfig:
		if _, err := os.Stat(cfg.Infile); err != nil {
			return "", nil, fmt.Errorf("legacy infile: %w", err)
		}
		return cfg.Infile, func() {}, nil
	default:
		return "", nil, fmt.Errorf("job %s: unknown configuration kind", job.Name)
	}
}

func (o *Orchestrator) runOne(job *Job, infilePath string) Result {
	o.log.Info("started job",
		zap.String("job", job.Name),
		zap.String("outfile", job.Outfile))
	status, err := runner.New(o.stdout).Run(runner.RunSpec{
		Executable: job.Executable,
		Infile:     infilePath,
		Outfile:    job.Outfile,
		Nice:       job.Nice,
	})
	if err != nil {
		o.log.Error("job failed to run", zap.String("job", job.Name), zap.Error(err))
		return Result{Err: err}
	}
	o.log.Info("finished job",
		zap.String("job", job.Name),
		zap.Int("exit_status", status))
	return Result{ExitStatus: status}
}

// DryRun reports the run command each job resolves to without touching
// the filesystem or starting any process.
func (o *Orchestrator) DryRun(d *Descriptor) {
	fmt.Fprintln(o.stdout, "The following jobs would have been run:")
	fmt.Fprintln(o.stdout, "  job name: command")
	fmt.Fprintln(o.stdout)
	for i := range d.Jobs {
		fmt.Fprintf(o.stdout, "  %s: %s\n", d.Jobs[i].Name, runCommand(&d.Jobs[i]))
	}
	fmt.Fprintf(o.stdout, "\n%d job(s) would have been run concurrently.\n",
		d.MaxConcurrentJobs)
}

// runCommand renders the equivalent single-job command line for a job.
func runCommand(job *Job) string {
	var b strings.Builder
	switch cfg := job.Config.(type) {
	case YamlConfig:
		fmt.Fprintf(&b, "sogcmd run %s %s", job.Executable, cfg.BaseInfile)
		for _, editFile := range cfg.EditFiles {
			fmt.Fprintf(&b, " -e %s", editFile)
		}
	case LegacyConfig:
		fmt.Fprintf(&b, "sogcmd run %s %s --legacy-infile", job.Executable, cfg.Infile)
	}
	fmt.Fprintf(&b, " -o %s --nice %d", job.Outfile, job.Nice)
	return b.String()
}
