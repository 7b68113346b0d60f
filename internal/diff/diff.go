// Package diff computes one-level structural differences between two
// field mappings.
package diff

import (
	"reflect"
	"sort"
)

// Change holds both sides of a field whose value differs.
type Change struct {
	Old interface{} `json:"old" yaml:"old" toml:"old"`
	New interface{} `json:"new" yaml:"new" toml:"new"`
}

// Diff describes how the newer mapping differs from the older one.
// A nil *Diff means nothing changed.
type Diff struct {
	Added   map[string]interface{} `json:"added,omitempty" yaml:"added,omitempty" toml:"added,omitempty"`
	Removed map[string]interface{} `json:"removed,omitempty" yaml:"removed,omitempty" toml:"removed,omitempty"`
	Changed map[string]Change      `json:"changed,omitempty" yaml:"changed,omitempty" toml:"changed,omitempty"`
}

// Compare merge-walks the sorted keys of older and newer. Nested values are
// compared for equality only. It returns nil when the mappings are equal.
func Compare(older, newer map[string]interface{}) *Diff {
	oldKeys := sortedKeys(older)
	newKeys := sortedKeys(newer)

	d := &Diff{
		Added:   map[string]interface{}{},
		Removed: map[string]interface{}{},
		Changed: map[string]Change{},
	}

	i, j := 0, 0
	for i < len(oldKeys) && j < len(newKeys) {
		ok, nk := oldKeys[i], newKeys[j]
		switch {
		case ok < nk:
			d.Removed[ok] = older[ok]
			i++
		case ok > nk:
			d.Added[nk] = newer[nk]
			j++
		default:
			if !reflect.DeepEqual(older[ok], newer[nk]) {
				d.Changed[ok] = Change{Old: older[ok], New: newer[nk]}
			}
			i++
			j++
		}
	}
	for ; i < len(oldKeys); i++ {
		d.Removed[oldKeys[i]] = older[oldKeys[i]]
	}
	for ; j < len(newKeys); j++ {
		d.Added[newKeys[j]] = newer[newKeys[j]]
	}

	if d.Empty() {
		return nil
	}
	return d
}

// Empty reports whether d carries no changes. A nil Diff is empty.
func (d *Diff) Empty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0)
}

// Fields returns every field name touched by d, sorted.
func (d *Diff) Fields() []string {
	if d == nil {
		return nil
	}
	fields := make([]string, 0, len(d.Added)+len(d.Removed)+len(d.Changed))
	for k := range d.Added {
		fields = append(fields, k)
	}
	for k := range d.Removed {
		fields = append(fields, k)
	}
	for k := range d.Changed {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
