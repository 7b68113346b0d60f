package main

import (
	"strings"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"yt/internal/burndown"
	"yt/internal/diff"
	"yt/internal/history"
	"yt/internal/index"
	"yt/internal/record"
	"yt/internal/related"
	"yt/internal/store"
	"yt/internal/testutil"
)

func init() {
	text.DisableColors()
}

func TestFormatResponse_JSON(t *testing.T) {
	resp := &messageResponse{Message: "Added record: ab12", ID: "ab12"}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"id": "ab12"`) {
		t.Errorf("JSON output missing id:\n%s", result)
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(&messageResponse{Message: "x"}, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatResponse_YAMLAndTOML(t *testing.T) {
	resp := &burndownResponse{
		Group:       "web",
		Checkpoints: []burndown.Checkpoint{{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Hours: 5}},
	}

	y, err := FormatResponse(resp, FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(y, "group: web") || !strings.Contains(y, "hours: 5") {
		t.Errorf("unexpected YAML:\n%s", y)
	}

	tm, err := FormatResponse(resp, FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tm, "group = 'web'") || !strings.Contains(tm, "hours = 5") {
		t.Errorf("unexpected TOML:\n%s", tm)
	}
}

func TestFormatListHuman(t *testing.T) {
	if got := formatListHuman(&listResponse{Status: "open"}); got != "No open records found." {
		t.Errorf("empty list = %q", got)
	}

	rec := record.Record{"title": "Fix login", "group": "web", "status": "open", "estimate": "3 days", "priority": "high"}
	out := formatListHuman(&listResponse{
		Status:  "open",
		Entries: []store.Entry{{ID: "ab12", Record: rec, Classification: record.Classify(rec)}},
	})
	for _, want := range []string{"ab12", "Fix login", "web", "3 days", scaleMarker(record.ScaleMedium)} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestScaleMarker(t *testing.T) {
	tests := []struct {
		scale record.Scale
		want  string
	}{
		{record.ScaleShort, ">   "},
		{record.ScaleMedium, "> > "},
		{record.ScaleLong, ">>>>"},
		{record.ScaleUnplanned, "===="},
	}
	for _, tt := range tests {
		if got := scaleMarker(tt.scale); got != tt.want {
			t.Errorf("scaleMarker(%s) = %q, want %q", tt.scale, got, tt.want)
		}
	}
}

func TestFormatShowHuman(t *testing.T) {
	snaps := []*history.Snapshot{
		{Working: true, Data: map[string]interface{}{"title": "Fix login", "status": "closed"}},
		{
			Data:      map[string]interface{}{"title": "Fix login", "status": "closed"},
			Revision:  "c0ffee",
			Committer: "Dev <dev@example.com>",
			Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Files:     []string{"issues/ab12", "src/login.go"},
			Compared:  true,
			Diff:      &diff.Diff{Changed: map[string]diff.Change{"status": {Old: "open", New: "closed"}}},
		},
		{
			Data:      map[string]interface{}{"title": "Fix login", "status": "open"},
			Revision:  "beef",
			Committer: "Dev <dev@example.com>",
			Files:     []string{"issues/ab12"},
		},
	}
	out := formatShowHuman(&showResponse{ID: "ab12", Snapshots: snaps})

	for _, want := range []string{
		"Record: ab12",
		"FIX LOGIN",
		"STATUS: closed",
		"Changeset: c0ffee",
		"Committed by: Dev <dev@example.com>",
		"    src/login.go",
		"Changed: STATUS - closed",
		"Changeset: beef",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Changed:") != 1 {
		t.Errorf("only the compared revision should print a diff:\n%s", out)
	}
}

func TestFormatRelatedHuman(t *testing.T) {
	out := formatRelatedHuman(&relatedResponse{Sections: []relatedSection{
		{File: "src/login.go", Records: []related.Candidate{{ID: "ab12", Title: "Fix login"}}},
		{File: "README.md", Records: []related.Candidate{}},
	}})
	testutil.AssertText(t, "related", out, "File: src/login.go\n    Record: ab12\n    FIX LOGIN\nFile: README.md")
}

func TestFormatBurndownHuman(t *testing.T) {
	if got := formatBurndownHuman(&burndownResponse{Group: "web"}); got != `No history for group "web".` {
		t.Errorf("empty burndown = %q", got)
	}

	out := formatBurndownHuman(&burndownResponse{Group: "web", Checkpoints: []burndown.Checkpoint{
		{Time: time.Now(), Hours: 10},
		{Time: time.Now().Add(-time.Hour), Hours: 5},
		{Time: time.Now().Add(-2 * time.Hour), Hours: 0},
	}})
	if !strings.Contains(out, strings.Repeat("#", burndownWidth)) {
		t.Errorf("peak should get a full bar:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("#", burndownWidth/2)) {
		t.Errorf("half the peak should get half a bar:\n%s", out)
	}
}

func TestFormatReindexHuman(t *testing.T) {
	if got := formatReindexHuman(&reindexResponse{Reindexed: 3}); got != "Reindexed 3 record(s)." {
		t.Errorf("got %q", got)
	}
	if got := formatReindexHuman(&reindexResponse{Freshness: &index.FreshnessResult{Fresh: true}}); got != "Index is up to date." {
		t.Errorf("got %q", got)
	}

	out := formatReindexHuman(&reindexResponse{Freshness: &index.FreshnessResult{
		Reason:  "1 stale, 1 missing entries",
		Stale:   []string{"ab12"},
		Missing: []string{"cd34"},
	}})
	for _, want := range []string{"1 stale, 1 missing entries", "stale    ab12", "missing  cd34", "yt reindex --all"} {
		if !strings.Contains(out, want) {
			t.Errorf("freshness output missing %q:\n%s", want, out)
		}
	}
}
