package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pelletier/go-toml/v2"

	"yt/internal/burndown"
	"yt/internal/history"
	"yt/internal/index"
	"yt/internal/record"
	"yt/internal/related"
	"yt/internal/store"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatTOML  OutputFormat = "toml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		data, err := record.Encode(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	case FormatTOML:
		data, err := toml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal TOML: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *messageResponse:
		return v.Message, nil
	case *listResponse:
		return formatListHuman(v), nil
	case *showResponse:
		return formatShowHuman(v), nil
	case *relatedResponse:
		return formatRelatedHuman(v), nil
	case *burndownResponse:
		return formatBurndownHuman(v), nil
	case *reindexResponse:
		return formatReindexHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// messageResponse is a one-line result such as a new record id.
type messageResponse struct {
	Message string `json:"message" yaml:"message" toml:"message"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
}

type listResponse struct {
	Status  string        `json:"status" yaml:"status" toml:"status"`
	Entries []store.Entry `json:"entries" yaml:"entries" toml:"entries"`
}

type showResponse struct {
	ID        string              `json:"id" yaml:"id" toml:"id"`
	Snapshots []*history.Snapshot `json:"snapshots" yaml:"snapshots" toml:"snapshots"`
}

type relatedSection struct {
	File    string              `json:"file" yaml:"file" toml:"file"`
	Records []related.Candidate `json:"records" yaml:"records" toml:"records"`
}

type relatedResponse struct {
	Sections []relatedSection `json:"sections" yaml:"sections" toml:"sections"`
}

type burndownResponse struct {
	Group       string                `json:"group" yaml:"group" toml:"group"`
	Checkpoints []burndown.Checkpoint `json:"checkpoints" yaml:"checkpoints" toml:"checkpoints"`
}

type reindexResponse struct {
	Reindexed int                    `json:"reindexed" yaml:"reindexed" toml:"reindexed"`
	Freshness *index.FreshnessResult `json:"freshness,omitempty" yaml:"freshness,omitempty" toml:"freshness,omitempty"`
}

func priorityColor(p record.Priority) text.Colors {
	switch p {
	case record.PriorityHigh:
		return text.Colors{text.FgRed}
	case record.PriorityLow:
		return text.Colors{text.FgBlue}
	}
	return nil
}

// scaleMarker is a fixed-width hint of how big a record is.
func scaleMarker(s record.Scale) string {
	switch s {
	case record.ScaleLong:
		return ">>>>"
	case record.ScaleMedium:
		return "> > "
	case record.ScaleShort:
		return ">   "
	}
	return "===="
}

func formatListHuman(resp *listResponse) string {
	if len(resp.Entries) == 0 {
		if resp.Status == "" {
			return "No records found."
		}
		return fmt.Sprintf("No %s records found.", resp.Status)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "ID", "Title", "Group", "Status", "Estimate"})
	for _, e := range resp.Entries {
		color := priorityColor(e.Classification.Priority)
		t.AppendRow(table.Row{
			scaleMarker(e.Classification.Scale),
			color.Sprint(e.ID),
			color.Sprint(e.Record.Title()),
			e.Record.String(record.FieldGroup),
			e.Record.String(record.FieldStatus),
			e.Classification.Estimate,
		})
	}
	return t.Render()
}

func formatShowHuman(resp *showResponse) string {
	var b strings.Builder
	if len(resp.Snapshots) == 0 {
		return "No such record found."
	}

	current := record.Record(resp.Snapshots[0].Data)
	b.WriteString(text.Bold.Sprintf("Record: %s", resp.ID) + "\n")
	if title := current.Title(); title != "" {
		b.WriteString(strings.ToUpper(title) + "\n")
	}
	if desc := current.String("description"); desc != "" {
		b.WriteString(desc + "\n")
	}
	b.WriteString("\n")

	for _, k := range sortedKeys(current) {
		if k == record.FieldTitle || k == "description" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(k), current.String(k))
	}
	writeDiff(&b, resp.Snapshots[0])

	for _, s := range resp.Snapshots[1:] {
		fmt.Fprintf(&b, "\nChangeset: %s\n", s.Revision)
		fmt.Fprintf(&b, "Committed by: %s on %s\n", s.Committer, s.Timestamp.Local().Format(time.RFC1123))
		b.WriteString("Linked files:\n")
		for _, f := range s.Files {
			fmt.Fprintf(&b, "    %s\n", f)
		}
		writeDiff(&b, s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDiff(b *strings.Builder, s *history.Snapshot) {
	if !s.Changed() {
		return
	}
	d := s.Diff
	for _, k := range sortedKeys(d.Added) {
		fmt.Fprintf(b, "%s %s - %v\n", text.FgGreen.Sprint("Added:"), strings.ToUpper(k), d.Added[k])
	}
	for _, k := range sortedKeys(d.Removed) {
		fmt.Fprintf(b, "%s %s\n", text.FgRed.Sprint("Removed:"), strings.ToUpper(k))
	}
	for _, k := range sortedKeys(d.Changed) {
		fmt.Fprintf(b, "%s %s - %v\n", text.FgYellow.Sprint("Changed:"), strings.ToUpper(k), d.Changed[k].New)
	}
}

func formatRelatedHuman(resp *relatedResponse) string {
	if len(resp.Sections) == 0 {
		return "No changed files."
	}
	var b strings.Builder
	for _, sec := range resp.Sections {
		b.WriteString(text.Bold.Sprintf("File: %s", sec.File) + "\n")
		for _, c := range sec.Records {
			fmt.Fprintf(&b, "    Record: %s\n    %s\n", c.ID, strings.ToUpper(c.Title))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// burndownWidth is the length of the longest bar.
const burndownWidth = 40

func formatBurndownHuman(resp *burndownResponse) string {
	if len(resp.Checkpoints) == 0 {
		return fmt.Sprintf("No history for group %q.", resp.Group)
	}
	peak := 0
	for _, c := range resp.Checkpoints {
		if c.Hours > peak {
			peak = c.Hours
		}
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Burndown: " + resp.Group)
	t.AppendHeader(table.Row{"When", "Hours", ""})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, c := range resp.Checkpoints {
		bar := 0
		if peak > 0 {
			bar = c.Hours * burndownWidth / peak
		}
		t.AppendRow(table.Row{
			c.Time.Local().Format("2006-01-02 15:04"),
			c.Hours,
			text.FgCyan.Sprint(strings.Repeat("#", bar)),
		})
	}
	return t.Render()
}

func formatReindexHuman(resp *reindexResponse) string {
	if resp.Freshness == nil {
		return fmt.Sprintf("Reindexed %d record(s).", resp.Reindexed)
	}
	f := resp.Freshness
	if f.Fresh {
		return "Index is up to date."
	}
	var b strings.Builder
	b.WriteString("Index is out of date: " + f.Reason + "\n")
	for _, group := range []struct {
		label string
		ids   []string
	}{{"stale", f.Stale}, {"missing", f.Missing}, {"orphaned", f.Orphaned}} {
		for _, id := range group.ids {
			fmt.Fprintf(&b, "  %-8s %s\n", group.label, id)
		}
	}
	b.WriteString("Run 'yt reindex --all' to rebuild it.")
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// render writes resp to w in the requested format.
func render(w io.Writer, resp interface{}, format OutputFormat) error {
	s, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
