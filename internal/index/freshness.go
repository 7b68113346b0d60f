package index

import (
	"fmt"
	"reflect"

	"yt/internal/record"
)

// FreshnessResult describes how far the index has drifted from the
// canonical records.
type FreshnessResult struct {
	Fresh  bool   `json:"fresh" yaml:"fresh" toml:"fresh"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty"`

	// Stale ids have an entry that differs from the record's projection.
	Stale []string `json:"stale,omitempty" yaml:"stale,omitempty" toml:"stale,omitempty"`
	// Missing ids have a canonical record but no entry.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty" toml:"missing,omitempty"`
	// Orphaned ids have an entry but no canonical record.
	Orphaned []string `json:"orphaned,omitempty" yaml:"orphaned,omitempty" toml:"orphaned,omitempty"`
}

// CheckFreshness compares idx with the projection of every canonical record.
// Ids are reported in sorted order.
func CheckFreshness(idx Index, canonical map[string]record.Record, fallback *record.Schema) FreshnessResult {
	schema := idx.Schema(fallback)
	var res FreshnessResult

	for _, id := range Index(canonical).IDs() {
		entry, ok := idx[id]
		if !ok {
			res.Missing = append(res.Missing, id)
			continue
		}
		if !reflect.DeepEqual(map[string]interface{}(entry), map[string]interface{}(schema.Project(canonical[id]))) {
			res.Stale = append(res.Stale, id)
		}
	}
	for _, id := range idx.IDs() {
		if _, ok := canonical[id]; !ok {
			res.Orphaned = append(res.Orphaned, id)
		}
	}

	switch {
	case len(res.Stale) > 0 || len(res.Missing) > 0:
		res.Reason = fmt.Sprintf("%d stale, %d missing entries", len(res.Stale), len(res.Missing))
	case len(res.Orphaned) > 0:
		res.Reason = fmt.Sprintf("%d entries without a record", len(res.Orphaned))
	default:
		res.Fresh = true
	}
	return res
}
