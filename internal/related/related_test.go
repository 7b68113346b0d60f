package related

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/go-test/deep"

	"yt/internal/errors"
	"yt/internal/history/historytest"
	"yt/internal/slogutil"
)

func newSource() *historytest.Source {
	src := historytest.NewSource()
	// X: committed once alone, then modified in the working tree
	src.Commit("issues/x", historytest.Revision{Content: "title: X\n"})
	// Y: created alongside src/a.go, later edited alone
	src.Commit("issues/y", historytest.Revision{Content: "title: Y\n", Files: []string{"issues/y", "src/a.go"}})
	src.Commit("issues/y", historytest.Revision{Content: "title: Y2\n"})
	// Z: never touched src/a.go
	src.Commit("issues/z", historytest.Revision{Content: "title: Z\n", Files: []string{"issues/z", "src/b.go"}})
	src.Changed = []string{"issues/x"}
	return src
}

func TestRelated(t *testing.T) {
	s := NewScanner(newSource(), "issues", slogutil.NewDiscardLogger())

	got, err := s.Related(context.Background(), Files([]string{"src/a.go"}), []string{"z", "y", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []string{"y", "x"}); diff != nil {
		t.Error(diff)
	}
}

func TestRelated_UncommittedSkipsHistory(t *testing.T) {
	src := newSource()
	// a history error for x would surface if the shortcut scanned it
	src.PreviousErr = stderrors.New("should not be reached")
	src.PreviousErrAt = "issues/x@1"

	s := NewScanner(src, "issues", slogutil.NewDiscardLogger())
	got, err := s.Related(context.Background(), Files([]string{"nothing"}), []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []string{"x"}); diff != nil {
		t.Error(diff)
	}
}

func TestRelated_FirstMatchStops(t *testing.T) {
	src := newSource()
	// stepping past the matching revision would fail
	src.PreviousErr = stderrors.New("walked too far")
	src.PreviousErrAt = "issues/y@2"
	src.Revisions["issues/y"][1].Files = []string{"issues/y", "src/a.go"}

	s := NewScanner(src, "issues", slogutil.NewDiscardLogger())
	got, err := s.Related(context.Background(), Files([]string{"src/a.go"}), []string{"y"})
	if err != nil {
		t.Fatalf("scan should stop at the first match: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %v", got)
	}
}

func TestRelated_BackendError(t *testing.T) {
	src := newSource()
	src.CursorErr = errors.New(errors.BackendFailure, "git log failed", nil)

	s := NewScanner(src, "issues", slogutil.NewDiscardLogger())
	if _, err := s.Related(context.Background(), Files(nil), []string{"y"}); !errors.Is(err, errors.BackendFailure) {
		t.Errorf("got %v, want BACKEND_FAILURE", err)
	}
}

func TestGlobs(t *testing.T) {
	m, err := Globs([]string{"src/*.go", "docs/**"})
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]bool{
		"src/a.go":      true,
		"src/sub/a.go":  false,
		"docs/x/y/z.md": true,
		"README.md":     false,
		"src/a.go.orig": false,
	}
	for path, want := range tests {
		if got := m.Match(path); got != want {
			t.Errorf("Match(%q) = %v, want %v", path, got, want)
		}
	}

	if _, err := Globs([]string{"src/[a"}); !errors.Is(err, errors.InvalidInput) {
		t.Errorf("bad pattern: got %v, want INVALID_INPUT", err)
	}

	s := NewScanner(newSource(), "issues", slogutil.NewDiscardLogger())
	m, _ = Globs([]string{"src/*"})
	got, err := s.Related(context.Background(), m, []string{"y", "z"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []string{"y", "z"}); diff != nil {
		t.Error(diff)
	}
}

func TestGuess(t *testing.T) {
	candidates := []Candidate{{"x", "X"}, {"y", "Y"}, {"z", "Z"}}

	tests := []struct {
		name    string
		changed []string
		want    string
		code    errors.ErrorCode
	}{
		{"nothing changed", nil, "", errors.NoGuessFound},
		{"only record files changed", []string{"issues/y"}, "", errors.NoGuessFound},
		{"one match", []string{"src/b.go"}, "z", ""},
		{"unrelated file", []string{"src/c.go"}, "", errors.NoGuessFound},
		{"two matches", []string{"src/a.go", "src/b.go"}, "", errors.AmbiguousGuess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource()
			src.Changed = tt.changed
			s := NewScanner(src, "issues", slogutil.NewDiscardLogger())

			got, err := s.Guess(context.Background(), candidates)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Fatalf("got %q, %v; want %s", got, err, tt.code)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Guess() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestGuess_AmbiguousListsCandidates(t *testing.T) {
	src := newSource()
	src.Changed = []string{"issues/x", "src/a.go"}
	s := NewScanner(src, "issues", slogutil.NewDiscardLogger())

	_, err := s.Guess(context.Background(), []Candidate{{"x", "X"}, {"y", "Y"}})
	var te *errors.TrakError
	if !stderrors.As(err, &te) || te.Code != errors.AmbiguousGuess {
		t.Fatalf("got %v, want AMBIGUOUS_GUESS", err)
	}
	details := te.Details.(map[string]interface{})
	if diff := deep.Equal(details["candidates"], []Candidate{{"x", "X"}, {"y", "Y"}}); diff != nil {
		t.Error(diff)
	}
}
