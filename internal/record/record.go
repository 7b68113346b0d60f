// Package record defines records, their field schema, and their YAML form.
package record

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Reserved names inside the record folder.
const (
	SchemaID         = "skeleton"
	CreationSchemaID = "skeleton_add"
	// LegacyCreationSchemaID is read when skeleton_add is absent.
	LegacyCreationSchemaID = "newticket"
)

// Well-known fields the store assigns defaults to.
const (
	FieldTitle    = "title"
	FieldStatus   = "status"
	FieldComment  = "comment"
	FieldGroup    = "group"
	FieldEstimate = "estimate"
	FieldPriority = "priority"
)

const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	OpeningComment = "Opening ticket"
)

// ErrNotMapping is returned when a document is empty or not a mapping.
var ErrNotMapping = errors.New("document is not a field mapping")

// Record is a field name to value mapping.
type Record map[string]interface{}

// String returns the field rendered as text, or "" when absent or null.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Title is a shortcut for String(FieldTitle).
func (r Record) Title() string {
	return r.String(FieldTitle)
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Decode parses a YAML document into a field mapping.
func Decode(raw []byte) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMapping
	}
	return m, nil
}

// Encode renders a mapping as block-style YAML with sorted keys.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
