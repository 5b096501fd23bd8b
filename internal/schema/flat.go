package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sogmodel/sogcmd/internal/infile"
	"github.com/sogmodel/sogcmd/internal/model"
)

// FromFlat builds a configuration document from the entries of a legacy
// flat infile. Required fields must all be present; optional (conditional)
// fields are taken when the infile carries them. Keys the schema does not
// know are rejected, mirroring Parse.
func (s *Schema) FromFlat(entries map[string]infile.Entry) (*model.Document, error) {
	for key := range entries {
		if _, ok := s.byKey[key]; !ok {
			return nil, &model.SchemaError{Path: key, Reason: "unknown infile key"}
		}
	}

	doc := model.NewDocument()
	var missing []string
	for i := range s.fields {
		f := &s.fields[i]
		entry, ok := entries[f.Key]
		if !ok {
			if !f.Optional {
				missing = append(missing, f.Key)
			}
			continue
		}
		value, err := coerceFlat(f.Kind, entry.Value)
		if err != nil {
			return nil, &model.SchemaError{Path: f.Key, Reason: err.Error()}
		}
		doc.Quantities[f.Path] = &model.Quantity{
			Value:       value,
			Units:       entry.Units,
			VarName:     f.VarName,
			Description: entry.Description,
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &model.SchemaError{
			Path:   missing[0],
			Reason: fmt.Sprintf("missing required infile keys: %s", strings.Join(missing, ", ")),
		}
	}
	return doc, nil
}
