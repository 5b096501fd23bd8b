// Package edits applies sparse override documents onto a base
// configuration document. Edits change leaf values (and units) only;
// they can never add structure the base schema does not already have.
package edits

import (
	"fmt"
	"os"

	"github.com/sogmodel/sogcmd/internal/model"
	"github.com/sogmodel/sogcmd/internal/schema"
)

// Edit is one parsed override document: leaf overrides keyed by dotted
// document path, in no particular order (ordering between edits is what
// matters, not within one).
type Edit struct {
	Source    string
	Overrides map[string]*model.Quantity
}

// Load reads and parses an edit snippet file against the base schema.
func Load(s *schema.Schema, path string) (*Edit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edit file: %w", err)
	}
	overrides, err := s.ParseEdit(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Edit{Source: path, Overrides: overrides}, nil
}

// Apply merges edits onto base in list order and returns the merged copy.
// Later edits win when several touch the same path. Each override replaces
// the leaf's value, and its units when the edit carries units; the base
// description and variable name are kept.
func Apply(base *model.Document, edits []*Edit) (*model.Document, error) {
	merged := base.Copy()
	for _, edit := range edits {
		for path, override := range edit.Overrides {
			target, ok := merged.Quantities[path]
			if !ok {
				// Optional leaf the base left out (conditional group
				// member being switched on); adopt the edit's leaf whole.
				dup := *override
				merged.Quantities[path] = &dup
				continue
			}
			target.Value = override.Value
			if override.Units != "" {
				target.Units = override.Units
			}
		}
	}
	return merged, nil
}
