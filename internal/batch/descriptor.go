// Package batch resolves batch descriptor files into fully specified
// model runs and drives them through a bounded worker pool.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/sogmodel/sogcmd/internal/model"
	"github.com/sogmodel/sogcmd/internal/runner"
)

// DefaultMaxConcurrentJobs is the worker pool size used when the
// descriptor does not set max_concurrent_jobs: fully sequential.
const DefaultMaxConcurrentJobs = 1

// descriptorSchema is the JSON schema every batch descriptor is checked
// against before resolution. Shape only; the legacy/YAML key rules need
// cross-key logic and are enforced in resolve.
const descriptorSchema = `
$schema: http://json-schema.org/draft-07/schema#
type: object
additionalProperties: false
required: [jobs]
properties:
  max_concurrent_jobs: {type: integer, minimum: 1}
  SOG_executable: {type: string}
  base_infile: {type: string}
  edit_files:
    type: array
    items: {type: string}
  legacy_infile: {type: boolean}
  nice: {type: integer}
  jobs:
    type: array
    minItems: 1
    items:
      type: object
      minProperties: 1
      maxProperties: 1
      additionalProperties:
        type: object
        additionalProperties: false
        properties:
          SOG_executable: {type: string}
          base_infile: {type: string}
          edit_files:
            type: array
            items: {type: string}
          outfile: {type: string}
          legacy_infile: {type: boolean}
          nice: {type: integer}
`

// Descriptor is a resolved batch: the pool size and the jobs in the
// order the descriptor listed them.
type Descriptor struct {
	MaxConcurrentJobs int
	Jobs              []Job
}

// Job is one fully resolved batch job. Every default has been folded in;
// the orchestrator runs jobs without consulting the descriptor again.
type Job struct {
	Name       string
	Executable string
	Outfile    string
	Nice       int
	Config     JobConfig
}

// JobConfig is the configuration side of a job. A job is either driven
// by a YAML document (base plus ordered edits, rendered to a flat file
// before launch) or by a legacy flat infile fed to the model as-is.
type JobConfig interface {
	isJobConfig()
}

// YamlConfig drives a job from a nested YAML configuration document.
type YamlConfig struct {
	BaseInfile string
	EditFiles  []string
}

func (YamlConfig) isJobConfig() {}

// LegacyConfig drives a job from a flat Fortran-style infile.
type LegacyConfig struct {
	Infile string
}

func (LegacyConfig) isJobConfig() {}

type rawJob struct {
	Executable   *string  `yaml:"SOG_executable"`
	BaseInfile   *string  `yaml:"base_infile"`
	EditFiles    []string `yaml:"edit_files"`
	Outfile      *string  `yaml:"outfile"`
	LegacyInfile *bool    `yaml:"legacy_infile"`
	Nice         *int     `yaml:"nice"`
}

type rawDescriptor struct {
	MaxConcurrentJobs *int                `yaml:"max_concurrent_jobs"`
	Executable        *string             `yaml:"SOG_executable"`
	BaseInfile        *string             `yaml:"base_infile"`
	EditFiles         []string            `yaml:"edit_files"`
	LegacyInfile      *bool               `yaml:"legacy_infile"`
	Nice              *int                `yaml:"nice"`
	Jobs              []map[string]rawJob `yaml:"jobs"`
}

var (
	descriptorOnce     sync.Once
	compiledDescriptor *jsonschema.Schema
	descriptorErr      error
)

func compiledDescriptorSchema() (*jsonschema.Schema, error) {
	descriptorOnce.Do(func() {
		var schemaData interface{}
		if err := yaml.Unmarshal([]byte(descriptorSchema), &schemaData); err != nil {
			descriptorErr = fmt.Errorf("failed to parse descriptor schema: %w", err)
			return
		}
		jsonData, err := json.Marshal(schemaData)
		if err != nil {
			descriptorErr = fmt.Errorf("failed to marshal descriptor schema: %w", err)
			return
		}
		compiledDescriptor, descriptorErr = jsonschema.CompileString(
			"batch-descriptor.json", string(jsonData))
	})
	return compiledDescriptor, descriptorErr
}

// Load reads and resolves a batch descriptor file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch descriptor: %w", err)
	}
	return Parse(data)
}

// Parse validates descriptor YAML against the descriptor schema and
// resolves it: per-job values win over top-level defaults, which win
// over built-in defaults, except edit_files which concatenate.
func Parse(data []byte) (*Descriptor, error) {
	compiled, err := compiledDescriptorSchema()
	if err != nil {
		return nil, err
	}
	var tree interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse batch descriptor YAML: %w", err)
	}
	if err := compiled.Validate(tree); err != nil {
		return nil, &model.ValidationError{Reason: err.Error()}
	}
	var raw rawDescriptor
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse batch descriptor YAML: %w", err)
	}
	return resolve(&raw)
}

func resolve(raw *rawDescriptor) (*Descriptor, error) {
	defaultLegacy := raw.LegacyInfile != nil && *raw.LegacyInfile
	if defaultLegacy {
		if raw.BaseInfile != nil {
			return nil, &model.ValidationError{
				Key:    "base_infile",
				Reason: "default base_infile not allowed with legacy_infile = true",
			}
		}
		if raw.EditFiles != nil {
			return nil, &model.ValidationError{
				Key:    "edit_files",
				Reason: "default edit_files not allowed with legacy_infile = true",
			}
		}
	}

	d := &Descriptor{MaxConcurrentJobs: DefaultMaxConcurrentJobs}
	if raw.MaxConcurrentJobs != nil {
		d.MaxConcurrentJobs = *raw.MaxConcurrentJobs
	}

	for _, entry := range raw.Jobs {
		// The descriptor schema pins each jobs entry to exactly one
		// name, so this loop body runs once per entry.
		for name, rj := range entry {
			job, err := resolveJob(name, &rj, raw, defaultLegacy)
			if err != nil {
				return nil, err
			}
			d.Jobs = append(d.Jobs, job)
		}
	}
	return d, nil
}

func resolveJob(name string, rj *rawJob, raw *rawDescriptor, defaultLegacy bool) (Job, error) {
	job := Job{Name: name, Nice: runner.DefaultNice}

	switch {
	case rj.Executable != nil:
		job.Executable = *rj.Executable
	case raw.Executable != nil:
		job.Executable = *raw.Executable
	default:
		return Job{}, &model.ValidationError{
			Job: name, Key: "SOG_executable", Reason: "no value for job or in defaults",
		}
	}

	switch {
	case rj.Nice != nil:
		job.Nice = *rj.Nice
	case raw.Nice != nil:
		job.Nice = *raw.Nice
	}

	jobLegacy := rj.LegacyInfile != nil && *rj.LegacyInfile
	if jobLegacy {
		if rj.BaseInfile == nil {
			return Job{}, &model.ValidationError{
				Job: name, Key: "base_infile",
				Reason: "required for a job with legacy_infile = true",
			}
		}
		if rj.EditFiles != nil {
			return Job{}, &model.ValidationError{
				Job: name, Key: "edit_files",
				Reason: "not allowed for a job with legacy_infile = true",
			}
		}
	}

	var baseInfile string
	switch {
	case rj.BaseInfile != nil:
		baseInfile = *rj.BaseInfile
	case raw.BaseInfile != nil:
		baseInfile = *raw.BaseInfile
	default:
		return Job{}, &model.ValidationError{
			Job: name, Key: "base_infile", Reason: "no value for job or in defaults",
		}
	}

	if defaultLegacy || jobLegacy {
		job.Config = LegacyConfig{Infile: baseInfile}
	} else {
		// Concatenation, not override: top-level edits apply first.
		var edits []string
		edits = append(edits, raw.EditFiles...)
		edits = append(edits, rj.EditFiles...)
		job.Config = YamlConfig{BaseInfile: baseInfile, EditFiles: edits}
	}

	// The default outfile name comes from the job's own edit list, not
	// the concatenated one: a job without edits of its own writes next
	// to its base infile even when top-level edits are in play.
	switch {
	case rj.Outfile != nil:
		job.Outfile = *rj.Outfile
	case len(rj.EditFiles) > 0 && !(defaultLegacy || jobLegacy):
		job.Outfile = rj.EditFiles[len(rj.EditFiles)-1] + ".out"
	default:
		job.Outfile = baseInfile + ".out"
	}
	return job, nil
}
