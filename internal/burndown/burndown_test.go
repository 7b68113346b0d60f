package burndown

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"

	"yt/internal/history/historytest"
	"yt/internal/index"
	"yt/internal/record"
	"yt/internal/slogutil"
)

const indexPath = "issues/issues.yaml"

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func entry(group, status, estimate string) record.Record {
	return record.Record{"group": group, "status": status, "estimate": estimate}
}

func TestGroupEstimateHours(t *testing.T) {
	tests := []struct {
		name string
		idx  index.Index
		want int
	}{
		{
			name: "open counted, closed excluded",
			idx: index.Index{
				"a": entry("alpha", "open", "2 days"),
				"b": entry("alpha", "closed", "5 hours"),
			},
			want: 48,
		},
		{
			name: "unknown unit contributes zero",
			idx: index.Index{
				"a": entry("alpha", "open", "3 decades"),
				"b": entry("alpha", "open", "1 week"),
			},
			want: 168,
		},
		{
			name: "malformed estimates skipped",
			idx: index.Index{
				"a": entry("alpha", "open", "two days"),
				"b": entry("alpha", "open", "2 days please"),
				"c": entry("alpha", "open", ""),
				"d": {"group": "alpha", "status": "open"},
				"e": entry("alpha", "open", "1 Hour"),
			},
			want: 1,
		},
		{
			name: "minutes sum before truncation",
			idx: index.Index{
				"a": entry("alpha", "open", "45 minutes"),
				"b": entry("alpha", "open", "30 minutes"),
				"c": entry("alpha", "open", "10 minutes"),
			},
			want: 1,
		},
		{
			name: "status matched as substring ignoring case",
			idx: index.Index{
				"a": entry("alpha", "Reopened", "3 hours"),
				"b": entry("beta", "open", "3 hours"),
			},
			want: 3,
		},
		{
			name: "skeleton ignored",
			idx: index.Index{
				record.SchemaID: entry("alpha", "open, closed", "1 week"),
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupEstimateHours(tt.idx, "alpha"); got != tt.want {
				t.Errorf("GroupEstimateHours() = %d, want %d", got, tt.want)
			}
		})
	}
}

// indexDoc renders an index with one open alpha record per estimate.
func indexDoc(estimates ...string) string {
	var b strings.Builder
	b.WriteString("skeleton:\n  title: A title\n")
	for i, e := range estimates {
		fmt.Fprintf(&b, "r%d:\n  group: alpha\n  status: open\n  estimate: %s\n", i, e)
	}
	return b.String()
}

func newAggregator(src *historytest.Source) *Aggregator {
	a := New(src, indexPath, slogutil.NewDiscardLogger())
	a.now = func() time.Time { return now }
	return a
}

func hour(h int) time.Time {
	return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
}

func TestBurndown_StopsAfterFirstZero(t *testing.T) {
	src := historytest.NewSource()
	src.Commit(indexPath, historytest.Revision{Content: indexDoc()})
	src.Commit(indexPath, historytest.Revision{Content: indexDoc()})
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("7 hours")})
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("10 hours")})
	src.Working[indexPath] = indexDoc("4 hours")

	got, err := newAggregator(src).Burndown(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	want := []Checkpoint{
		{now, 4},
		{hour(3), 10},
		{hour(2), 7},
		{hour(1), 0},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestBurndown_LeadingZerosKept(t *testing.T) {
	src := historytest.NewSource()
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("1 day")})
	src.Commit(indexPath, historytest.Revision{Content: indexDoc()})

	got, err := newAggregator(src).Burndown(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	want := []Checkpoint{{now, 0}, {hour(1), 0}, {hour(0), 24}}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestBurndown_SkipsUnparsableRevisions(t *testing.T) {
	src := historytest.NewSource()
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("2 hours")})
	src.Commit(indexPath, historytest.Revision{Content: "{ broken: ["})
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("3 hours")})

	got, err := newAggregator(src).Burndown(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	want := []Checkpoint{{now, 3}, {hour(2), 3}, {hour(0), 2}}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestBurndown_NoIndex(t *testing.T) {
	src := historytest.NewSource()
	got, err := newAggregator(src).Burndown(context.Background(), "alpha")
	if err != nil || len(got) != 0 {
		t.Errorf("Burndown() = %v, %v; want empty and no error", got, err)
	}

	src.Working[indexPath] = "- not\n- an index\n"
	got, err = newAggregator(src).Burndown(context.Background(), "alpha")
	if err != nil || len(got) != 0 {
		t.Errorf("unparsable index: Burndown() = %v, %v", got, err)
	}
}

func TestBurndown_UncommittedIndex(t *testing.T) {
	src := historytest.NewSource()
	src.Working[indexPath] = indexDoc("90 minutes")

	got, err := newAggregator(src).Burndown(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []Checkpoint{{now, 1}}); diff != nil {
		t.Error(diff)
	}
}

func TestBurndown_BackendFailureKeepsPartialSeries(t *testing.T) {
	src := historytest.NewSource()
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("1 hour")})
	src.Commit(indexPath, historytest.Revision{Content: indexDoc("2 hours")})
	boom := stderrors.New("git log failed")
	src.PreviousErr = boom
	src.PreviousErrAt = indexPath + "@2"

	got, err := newAggregator(src).Burndown(context.Background(), "alpha")
	if err != boom {
		t.Errorf("err = %v, want backend error", err)
	}
	if diff := deep.Equal(got, []Checkpoint{{now, 2}, {hour(1), 2}}); diff != nil {
		t.Error(diff)
	}
}
