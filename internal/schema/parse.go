package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sogmodel/sogcmd/internal/model"
	"gopkg.in/yaml.v3"
)

// leafKeys are the only mapping keys recognized on a value node.
var leafKeys = map[string]bool{
	"value":         true,
	"units":         true,
	"variable_name": true,
	"variable name": true,
	"description":   true,
}

// Load reads and parses a nested configuration document file.
func (s *Schema) Load(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	doc, err := s.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse validates a nested YAML configuration document against the field
// table and returns it as a Document. Unknown keys are rejected, required
// leaves must be present, and every value must coerce to its declared kind.
func (s *Schema) Parse(data []byte) (*model.Document, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, &model.SchemaError{Reason: fmt.Sprintf("not parsable as YAML: %v", err)}
	}
	if err := s.topSchema.Validate(topLevelShape(tree)); err != nil {
		return nil, &model.SchemaError{Reason: fmt.Sprintf("document shape: %v", err)}
	}

	doc := model.NewDocument()
	if err := s.walkSections("", tree, doc); err != nil {
		return nil, err
	}

	var missing []string
	for i := range s.fields {
		f := &s.fields[i]
		if f.Optional {
			continue
		}
		if _, ok := doc.Quantities[f.Path]; !ok {
			missing = append(missing, f.Path)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &model.SchemaError{
			Path:   missing[0],
			Reason: fmt.Sprintf("missing required parameters: %s", strings.Join(missing, ", ")),
		}
	}
	return doc, nil
}

// topLevelShape strips each section down to an empty object so the shape
// validator only sees JSON-compatible values. Deep values (timestamps in
// particular) decode to Go types the JSON schema library cannot inspect.
func topLevelShape(tree map[string]any) map[string]any {
	shape := make(map[string]any, len(tree))
	for key, value := range tree {
		if _, ok := value.(map[string]any); ok {
			shape[key] = map[string]any{}
		} else {
			shape[key] = value
		}
	}
	return shape
}

func (s *Schema) walkSections(prefix string, node map[string]any, doc *model.Document) error {
	for key, child := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if f, ok := s.byPath[path]; ok {
			leaf, ok := child.(map[string]any)
			if !ok {
				return &model.SchemaError{Path: path, Reason: "parameter must be a mapping with a value entry"}
			}
			q, err := s.parseLeaf(f, leaf)
			if err != nil {
				return err
			}
			// Base-document leaves carry the metadata that survives into
			// rendered infiles; a bare value is only acceptable in edits.
			if q.Description == "" {
				return &model.SchemaError{Path: path, Reason: "missing description"}
			}
			doc.Quantities[path] = q
			continue
		}
		if s.isPrefix(path) {
			sub, ok := child.(map[string]any)
			if !ok {
				return &model.SchemaError{Path: path, Reason: "must be a mapping"}
			}
			if err := s.walkSections(path, sub, doc); err != nil {
				return err
			}
			continue
		}
		return &model.SchemaError{Path: path, Reason: "unknown key"}
	}
	return nil
}

func (s *Schema) parseLeaf(f *Field, node map[string]any) (*model.Quantity, error) {
	for key := range node {
		if !leafKeys[key] {
			return nil, &model.SchemaError{Path: f.Path + "." + key, Reason: "unknown key"}
		}
	}
	raw, ok := node["value"]
	if !ok {
		return nil, &model.SchemaError{Path: f.Path, Reason: "missing value"}
	}
	value, err := coerceValue(f.Kind, raw)
	if err != nil {
		return nil, &model.SchemaError{Path: f.Path, Reason: err.Error()}
	}
	q := &model.Quantity{Value: value, VarName: f.VarName}
	if units, err := leafString(f.Path, node, "units"); err != nil {
		return nil, err
	} else if units != "" {
		q.Units = units
	}
	if desc, err := leafString(f.Path, node, "description"); err != nil {
		return nil, err
	} else if desc != "" {
		q.Description = desc
	}
	for _, key := range []string{"variable_name", "variable name"} {
		if name, err := leafString(f.Path, node, key); err != nil {
			return nil, err
		} else if name != "" {
			q.VarName = name
		}
	}
	return q, nil
}

func leafString(path string, node map[string]any, key string) (string, error) {
	raw, ok := node[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &model.SchemaError{Path: path + "." + key, Reason: fmt.Sprintf("%v is not a string", raw)}
	}
	return s, nil
}

// ParseEdit parses a sparse override document. Every leaf must name a path
// the base schema knows; anything else is a PathError, so edits cannot
// introduce structural nodes. Only value and units are honored on an edit
// leaf; descriptions and variable names stay with the base document.
func (s *Schema) ParseEdit(data []byte) (map[string]*model.Quantity, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, &model.SchemaError{Reason: fmt.Sprintf("not parsable as YAML: %v", err)}
	}
	overrides := make(map[string]*model.Quantity)
	if err := s.walkEdit("", tree, overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

func (s *Schema) walkEdit(prefix string, node map[string]any, overrides map[string]*model.Quantity) error {
	for key, child := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if f, ok := s.byPath[path]; ok {
			leaf, ok := child.(map[string]any)
			if !ok {
				return &model.PathError{Path: path, Reason: "override must be a mapping with a value entry"}
			}
			q, err := s.parseLeaf(f, leaf)
			if err != nil {
				return err
			}
			overrides[path] = q
			continue
		}
		if s.isPrefix(path) {
			sub, ok := child.(map[string]any)
			if !ok {
				return &model.PathError{Path: path, Reason: "must be a mapping"}
			}
			if err := s.walkEdit(path, sub, overrides); err != nil {
				return err
			}
			continue
		}
		return &model.PathError{Path: path, Reason: "not present in base schema"}
	}
	return nil
}
