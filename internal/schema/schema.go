// Package schema defines the nested configuration document the model
// runner works with, validates documents against the field table, and
// renders them into the ordered flat records the model executable's
// input processor reads.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sogmodel/sogcmd/internal/model"
	"gopkg.in/yaml.v3"
)

// topLevelSchema is the JSON schema the top level of every configuration
// document is checked against before field-table parsing. Section-level
// typos surface here with a schema-validation message instead of a pile
// of missing-leaf errors.
const topLevelSchema = `
$schema: http://json-schema.org/draft-07/schema#
type: object
additionalProperties: false
properties:
  location: {type: object}
  grid: {type: object}
  initial_conditions: {type: object}
  end_datetime: {type: object}
  numerics: {type: object}
  vary: {type: object}
  timeseries_results: {type: object}
  profiles_results: {type: object}
  physics: {type: object}
  biology: {type: object}
  forcing_data: {type: object}
`

// Schema is the compiled field table: lookups by document path and by
// flat-file key, the master emission order, and the conditional key
// groups wired to their triggers.
type Schema struct {
	fields    []Field
	byPath    map[string]*Field
	byKey     map[string]*Field
	prefixes  map[string]bool
	order     []string
	follows   map[string]*FollowGroup
	precedes  map[string]*PrecedeGroup
	topSchema *jsonschema.Schema
}

// New compiles the field table into a Schema. It fails when the table is
// inconsistent: duplicate paths or keys, an order entry with no field, or
// a flat key claimed by more than one conditional group.
func New() (*Schema, error) {
	s := &Schema{
		fields:   fieldTable,
		byPath:   make(map[string]*Field, len(fieldTable)),
		byKey:    make(map[string]*Field, len(fieldTable)),
		prefixes: make(map[string]bool),
		order:    masterKeyOrder,
		follows:  make(map[string]*FollowGroup),
		precedes: make(map[string]*PrecedeGroup),
	}
	for i := range s.fields {
		f := &s.fields[i]
		if _, dup := s.byPath[f.Path]; dup {
			return nil, fmt.Errorf("field table defines path %q twice", f.Path)
		}
		if _, dup := s.byKey[f.Key]; dup {
			return nil, fmt.Errorf("field table defines key %q twice", f.Key)
		}
		s.byPath[f.Path] = f
		s.byKey[f.Key] = f
		segments := strings.Split(f.Path, ".")
		for i := 1; i < len(segments); i++ {
			s.prefixes[strings.Join(segments[:i], ".")] = true
		}
	}
	for _, key := range s.order {
		if _, ok := s.byKey[key]; !ok {
			return nil, fmt.Errorf("master key order names unknown key %q", key)
		}
	}
	if err := s.registerGroups(); err != nil {
		return nil, err
	}
	top, err := compileSchema(topLevelSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile top-level document schema: %w", err)
	}
	s.topSchema = top
	return s, nil
}

// registerGroups indexes the conditional groups by trigger/target and
// rejects any flat key claimed by two different groups. Overlapping claims
// would make emission order depend on group registration order, which the
// model's positional reader cannot tolerate.
func (s *Schema) registerGroups() error {
	claimed := make(map[string]string)
	claim := func(key, owner string) error {
		if _, ok := s.byKey[key]; !ok {
			return fmt.Errorf("conditional group %s names unknown key %q", owner, key)
		}
		if prev, ok := claimed[key]; ok {
			return fmt.Errorf("key %q claimed by both group %s and group %s", key, prev, owner)
		}
		claimed[key] = owner
		return nil
	}
	for i := range followGroups {
		g := &followGroups[i]
		if _, dup := s.follows[g.Trigger]; dup {
			return fmt.Errorf("two follow groups share trigger %q", g.Trigger)
		}
		s.follows[g.Trigger] = g
		for value, keys := range g.Keys {
			for _, key := range keys {
				if err := claim(key, fmt.Sprintf("follow(%s=%s)", g.Trigger, value)); err != nil {
					return err
				}
			}
		}
	}
	for i := range precedeGroups {
		g := &precedeGroups[i]
		if _, dup := s.precedes[g.Target]; dup {
			return fmt.Errorf("two precede groups target key %q", g.Target)
		}
		s.precedes[g.Target] = g
		for value, keys := range g.Keys {
			for _, key := range keys {
				if err := claim(key, fmt.Sprintf("precede(%s=%s)", g.Trigger, value)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FieldByPath returns the field for a dotted document path.
func (s *Schema) FieldByPath(path string) (*Field, bool) {
	f, ok := s.byPath[path]
	return f, ok
}

// FieldByKey returns the field for a flat-file key.
func (s *Schema) FieldByKey(key string) (*Field, bool) {
	f, ok := s.byKey[key]
	return f, ok
}

// KeyOrder returns the master emission order of unconditional keys.
func (s *Schema) KeyOrder() []string { return s.order }

// isPrefix reports whether path names a structural grouping node.
func (s *Schema) isPrefix(path string) bool { return s.prefixes[path] }

// compileSchema compiles an embedded YAML JSON-schema document. YAML is
// converted to JSON first because the schema compiler only reads JSON.
func compileSchema(src string) (*jsonschema.Schema, error) {
	var schemaData interface{}
	if err := yaml.Unmarshal([]byte(src), &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema source: %w", err)
	}
	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonschema.CompileString("schema.json", string(jsonData))
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
	defaultErr    error
)

// Default returns the shared Schema compiled from the built-in field table.
func Default() (*Schema, error) {
	defaultOnce.Do(func() {
		defaultSchema, defaultErr = New()
	})
	return defaultSchema, defaultErr
}

// ReadValue resolves a dotted document path to its quantity. It fails
// with a SchemaError when the path is unknown or absent from the document.
func (s *Schema) ReadValue(doc *model.Document, path string) (*model.Quantity, error) {
	if _, ok := s.byPath[path]; !ok {
		return nil, &model.SchemaError{Path: path, Reason: "unknown parameter path"}
	}
	q, ok := doc.Quantities[path]
	if !ok {
		return nil, &model.SchemaError{Path: path, Reason: "not present in document"}
	}
	return q, nil
}
