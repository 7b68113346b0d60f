package record

import (
	"strconv"
	"strings"
)

// Scale buckets an estimate by its time unit.
type Scale string

const (
	ScaleShort     Scale = "short"
	ScaleMedium    Scale = "medium"
	ScaleLong      Scale = "long"
	ScaleUnplanned Scale = "unplanned"
)

// Priority is the normalized priority of a record.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Classification is the list view's summary of a record.
type Classification struct {
	Scale    Scale    `json:"scale" yaml:"scale" toml:"scale"`
	Priority Priority `json:"priority" yaml:"priority" toml:"priority"`
	Estimate string   `json:"estimate" yaml:"estimate" toml:"estimate"`
}

// Classify derives scale and priority from a record. Unrecognized data
// falls back to ScaleUnplanned and PriorityHigh so nothing is hidden.
func Classify(r Record) Classification {
	return Classification{
		Scale:    ClassifyScale(r[FieldEstimate]),
		Priority: ClassifyPriority(r[FieldPriority]),
		Estimate: r.String(FieldEstimate),
	}
}

// ClassifyScale looks only at the unit word of an estimate.
func ClassifyScale(estimate interface{}) Scale {
	s, ok := estimate.(string)
	if !ok {
		return ScaleUnplanned
	}
	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return ScaleUnplanned
	}
	switch normalizeUnit(tokens[1]) {
	case "hour", "minute":
		return ScaleShort
	case "day":
		return ScaleMedium
	default:
		return ScaleLong
	}
}

// ClassifyPriority matches high, normal or low as substrings, in that order.
func ClassifyPriority(priority interface{}) Priority {
	s, ok := priority.(string)
	if !ok {
		return PriorityHigh
	}
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "high"):
		return PriorityHigh
	case strings.Contains(s, "normal"):
		return PriorityNormal
	case strings.Contains(s, "low"):
		return PriorityLow
	}
	return PriorityHigh
}

// Estimate is a parsed "<amount> <unit>" value.
type Estimate struct {
	Amount int
	Unit   string
}

// ParseEstimate accepts exactly two tokens, an integer amount and a unit.
// The unit is lowercased with trailing s removed.
func ParseEstimate(v interface{}) (Estimate, bool) {
	s, ok := v.(string)
	if !ok {
		return Estimate{}, false
	}
	tokens := strings.Fields(s)
	if len(tokens) != 2 {
		return Estimate{}, false
	}
	amount, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Estimate{}, false
	}
	return Estimate{Amount: amount, Unit: normalizeUnit(tokens[1])}, true
}

// Split returns the estimate as whole hours plus leftover minutes.
// Units other than minute, hour, day and week yield ok=false.
func (e Estimate) Split() (hours, minutes int, ok bool) {
	switch e.Unit {
	case "minute":
		return 0, e.Amount, true
	case "hour":
		return e.Amount, 0, true
	case "day":
		return 24 * e.Amount, 0, true
	case "week":
		return 168 * e.Amount, 0, true
	}
	return 0, 0, false
}

func normalizeUnit(unit string) string {
	return strings.TrimRight(strings.ToLower(unit), "s")
}
