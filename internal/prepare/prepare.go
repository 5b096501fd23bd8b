// Package prepare turns a base configuration document plus a list of
// edit snippets into a materialized flat infile the model executable can
// read. It is the glue between the schema, the edit merger, and the
// flat-file codec.
package prepare

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sogmodel/sogcmd/internal/edits"
	"github.com/sogmodel/sogcmd/internal/infile"
	"github.com/sogmodel/sogcmd/internal/schema"
)

// Infile loads basePath, applies editPaths in order, renders the merged
// document and writes it to destPath. Validation happens fully before the
// destination is touched, so a failure leaves no partial flat file behind.
func Infile(basePath string, editPaths []string, destPath string) error {
	s, err := schema.Default()
	if err != nil {
		return err
	}
	base, err := s.Load(basePath)
	if err != nil {
		return err
	}
	edited := make([]*edits.Edit, 0, len(editPaths))
	for _, path := range editPaths {
		e, err := edits.Load(s, path)
		if err != nil {
			return err
		}
		edited = append(edited, e)
	}
	merged, err := edits.Apply(base, edited)
	if err != nil {
		return err
	}
	records, err := s.Render(merged)
	if err != nil {
		return err
	}
	return infile.WriteFile(destPath, records)
}

// TempInfile materializes the merged flat file under the system temp
// directory and returns its path. The caller owns the file.
func TempInfile(basePath string, editPaths []string) (string, error) {
	f, err := os.CreateTemp("", "sogcmd-*.infile")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary infile: %w", err)
	}
	path := f.Name()
	f.Close()
	if err := Infile(basePath, editPaths, path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// TempInfileName returns a temp-directory path a materialized infile
// would get, without creating it. Dry runs report this path in the
// resolved command line.
func TempInfileName(basePath string) string {
	return filepath.Join(os.TempDir(), filepath.Base(basePath)+".infile")
}
