package record

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Field is one schema entry. Its value doubles as help text and as the
// default a record receives when the field is not supplied.
type Field struct {
	Name    string
	Default interface{}
}

// Help renders the default as text for flag help.
func (f Field) Help() string {
	if s, ok := f.Default.(string); ok {
		return s
	}
	return fmt.Sprint(f.Default)
}

// Schema is an ordered, immutable list of fields.
type Schema struct {
	fields []Field
	byName map[string]int
}

// NewSchema builds a schema; later duplicates of a name are dropped.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{byName: make(map[string]int, len(fields))}
	for _, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			continue
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// SchemaFromMap builds a schema from an unordered mapping, sorting by name.
func SchemaFromMap(m map[string]interface{}) *Schema {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Field{Name: n, Default: m[n]}
	}
	return NewSchema(fields...)
}

// ParseSchema decodes a schema document, keeping declaration order.
func ParseSchema(raw []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNotMapping
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	fields := make([]Field, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		var value interface{}
		if err := root.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("field %q: %w", root.Content[i].Value, err)
		}
		fields = append(fields, Field{Name: root.Content[i].Value, Default: value})
	}
	return NewSchema(fields...), nil
}

// MarshalYAML emits the fields as a mapping in schema order.
func (s *Schema) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range s.fields {
		var value yaml.Node
		if err := value.Encode(f.Default); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			&value,
		)
	}
	return node, nil
}

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) Len() int { return len(s.fields) }

// Has reports whether name is a schema field.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Default returns the default value of a field.
func (s *Schema) Default(name string) (interface{}, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].Default, true
}

// Map returns the schema as a plain mapping, as stored under the index's
// reserved skeleton entry.
func (s *Schema) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(s.fields))
	for _, f := range s.fields {
		m[f.Name] = f.Default
	}
	return m
}

// Without returns a copy of s minus the named fields.
func (s *Schema) Without(names ...string) *Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var kept []Field
	for _, f := range s.fields {
		if !drop[f.Name] {
			kept = append(kept, f)
		}
	}
	return NewSchema(kept...)
}

// Project copies the fields of r that the schema names. Fields absent from r
// stay absent.
func (s *Schema) Project(r Record) Record {
	out := make(Record, len(s.fields))
	for _, f := range s.fields {
		if v, ok := r[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

// DefaultSchema is the full field set written by init.
func DefaultSchema() *Schema {
	return NewSchema(
		Field{FieldTitle, "A title for the ticket"},
		Field{"description", "A detailed description of this ticket."},
		Field{FieldEstimate, "A time estimate for completion"},
		Field{FieldStatus, "open, closed"},
		Field{FieldGroup, "unfiled"},
		Field{FieldPriority, "high, normal, low"},
		Field{FieldComment, "The current comment on this ticket."},
	)
}

// DefaultCreationSchema lists the fields required when adding a record.
func DefaultCreationSchema() *Schema {
	full := DefaultSchema()
	return full.Without(FieldStatus, FieldGroup, FieldPriority, FieldComment)
}

// DefaultIndexSchema is the subset of fields copied into the index.
func DefaultIndexSchema() *Schema {
	return DefaultSchema().Without(FieldComment)
}
