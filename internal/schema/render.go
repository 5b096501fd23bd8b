package schema

import (
	"fmt"
	"strings"

	"github.com/sogmodel/sogcmd/internal/model"
)

// Render produces the ordered flat records for a document. Keys follow the
// master key order; conditional group members are spliced in next to their
// triggers according to the resolved trigger values. The whole document is
// validated before any record is returned, so a failed render leaves no
// partial output for a caller to write.
func (s *Schema) Render(doc *model.Document) ([]model.Record, error) {
	records := make([]model.Record, 0, len(s.order))

	appendRecord := func(key string) error {
		f := s.byKey[key]
		q, ok := doc.Quantities[f.Path]
		if !ok {
			return &model.SchemaError{
				Path:   f.Path,
				Reason: fmt.Sprintf("required for infile key %q but absent", key),
			}
		}
		text, err := formatValue(f.Kind, q.Value)
		if err != nil {
			return &model.SchemaError{Path: f.Path, Reason: err.Error()}
		}
		desc := q.Description
		if q.Units != "" {
			desc += " [" + q.Units + "]"
		}
		records = append(records, model.Record{Key: key, Value: text, Description: desc})
		return nil
	}

	var emitFollowers func(key string) error
	emitFollowers = func(key string) error {
		g, ok := s.follows[key]
		if !ok {
			return nil
		}
		value, err := s.triggerValue(doc, key)
		if err != nil {
			return err
		}
		keys, ok := g.Keys[value]
		if !ok {
			return &model.SchemaError{
				Path:   s.byKey[key].Path,
				Reason: fmt.Sprintf("trigger value %q selects no key group", value),
			}
		}
		for _, extra := range keys {
			if err := appendRecord(extra); err != nil {
				return err
			}
			if err := emitFollowers(extra); err != nil {
				return err
			}
		}
		return nil
	}

	for _, key := range s.order {
		if g, ok := s.precedes[key]; ok {
			value, err := s.triggerValue(doc, g.Trigger)
			if err != nil {
				return nil, err
			}
			keys, ok := g.Keys[value]
			if !ok {
				return nil, &model.SchemaError{
					Path:   s.byKey[g.Trigger].Path,
					Reason: fmt.Sprintf("trigger value %q selects no key group", value),
				}
			}
			for _, extra := range keys {
				if err := appendRecord(extra); err != nil {
					return nil, err
				}
			}
		}
		if err := appendRecord(key); err != nil {
			return nil, err
		}
		if err := emitFollowers(key); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// triggerValue resolves a trigger key to the text form group tables are
// keyed by: .true./.false. for booleans, the bare (unquoted) string for
// string selectors.
func (s *Schema) triggerValue(doc *model.Document, key string) (string, error) {
	f := s.byKey[key]
	q, ok := doc.Quantities[f.Path]
	if !ok {
		return "", &model.SchemaError{Path: f.Path, Reason: "trigger key absent from document"}
	}
	switch f.Kind {
	case model.Bool:
		if q.Value == true {
			return ".true.", nil
		}
		return ".false.", nil
	case model.Str:
		v, ok := q.Value.(string)
		if !ok {
			return "", &model.SchemaError{Path: f.Path, Reason: "trigger value is not a string"}
		}
		return strings.Trim(v, `"`), nil
	}
	text, err := formatValue(f.Kind, q.Value)
	if err != nil {
		return "", &model.SchemaError{Path: f.Path, Reason: err.Error()}
	}
	return text, nil
}
