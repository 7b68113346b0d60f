package main

import (
	"strings"

	"github.com/BurntSushi/toml"

	"yt/internal/errors"
	"yt/internal/record"
)

// schemaFile is the layout accepted by "yt init --schema":
//
//	required = ["title", "description"]
//	unindexed = ["comment"]
//
//	[fields]
//	title = "A title for the ticket"
//	status = "open, closed"
//
// Field order in [fields] is kept. required defaults to the built-in
// creation fields that are present; unindexed defaults to comment.
type schemaFile struct {
	Required  []string               `toml:"required"`
	Unindexed []string               `toml:"unindexed"`
	Fields    map[string]interface{} `toml:"fields"`
}

type schemaSet struct {
	schema   *record.Schema
	creation *record.Schema
	index    *record.Schema
}

func defaultSchemaSet() schemaSet {
	return schemaSet{
		schema:   record.DefaultSchema(),
		creation: record.DefaultCreationSchema(),
		index:    record.DefaultIndexSchema(),
	}
}

func loadSchemaFile(path string) (schemaSet, error) {
	var doc schemaFile
	md, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return schemaSet{}, errors.Newf(errors.InvalidInput, err, "failed to read schema file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return schemaSet{}, errors.Newf(errors.InvalidInput, nil, "unknown keys in schema file: %s", strings.Join(keys, ", "))
	}
	if len(doc.Fields) == 0 {
		return schemaSet{}, errors.New(errors.InvalidInput, "schema file defines no [fields]", nil)
	}

	var fields []record.Field
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "fields" {
			fields = append(fields, record.Field{Name: key[1], Default: doc.Fields[key[1]]})
		}
	}
	schema := record.NewSchema(fields...)

	required := doc.Required
	if required == nil {
		for _, name := range record.DefaultCreationSchema().Names() {
			if schema.Has(name) {
				required = append(required, name)
			}
		}
	}
	var creation []record.Field
	for _, name := range required {
		def, ok := schema.Default(name)
		if !ok {
			return schemaSet{}, errors.Newf(errors.InvalidInput, nil, "required field %q is not in [fields]", name)
		}
		creation = append(creation, record.Field{Name: name, Default: def})
	}

	unindexed := doc.Unindexed
	if unindexed == nil {
		unindexed = []string{record.FieldComment}
	}

	return schemaSet{
		schema:   schema,
		creation: record.NewSchema(creation...),
		index:    schema.Without(unindexed...),
	}, nil
}
