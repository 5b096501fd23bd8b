package model

import "fmt"

// SchemaError reports a malformed or incomplete configuration document:
// a required leaf that is absent, a value that fails type coercion, or a
// key the schema does not know.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %q: %s", e.Path, e.Reason)
}

// FormatError reports a flat-file line that does not match the
// key/value/description grammar.
type FormatError struct {
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("infile format error at line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// PathError reports an edit document that references a path absent from
// the base schema, or that tries to introduce a structural node.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("edit path error at %q: %s", e.Path, e.Reason)
}

// LaunchError reports a model executable that could not be started.
type LaunchError struct {
	Executable string
	Err        error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot launch %q: %v", e.Executable, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ValidationError reports a malformed batch descriptor, e.g. conflicting
// legacy/YAML keys or a job missing a required setting.
type ValidationError struct {
	Job    string
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	scope := "batch descriptor"
	if e.Job != "" {
		scope = fmt.Sprintf("job %q", e.Job)
	}
	if e.Key != "" {
		return fmt.Sprintf("invalid %s: %s: %s", scope, e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", scope, e.Reason)
}
