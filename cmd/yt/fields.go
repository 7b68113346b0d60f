package main

import (
	"github.com/spf13/cobra"

	"yt/internal/record"
)

// reservedShorthands are taken by persistent flags and help.
var reservedShorthands = map[string]bool{"v": true, "q": true, "C": true, "h": true}

// fieldFlags exposes every schema field as a string flag.
type fieldFlags struct {
	values map[string]*string
}

func addFieldFlags(cmd *cobra.Command, schema, required *record.Schema) *fieldFlags {
	ff := &fieldFlags{values: make(map[string]*string, schema.Len())}
	used := map[string]bool{}
	for name := range reservedShorthands {
		used[name] = true
	}

	for _, f := range schema.Fields() {
		if f.Name == "" {
			continue
		}
		short := ""
		if first := f.Name[:1]; !used[first] {
			short = first
			used[first] = true
		}
		help := f.Help()
		if required != nil && required.Has(f.Name) {
			help += " (required)"
		}
		ff.values[f.Name] = cmd.Flags().StringP(f.Name, short, "", help)
	}
	return ff
}

// collect returns the fields whose flag was given on the command line.
func (ff *fieldFlags) collect(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	for name, v := range ff.values {
		if cmd.Flags().Changed(name) {
			out[name] = *v
		}
	}
	return out
}
