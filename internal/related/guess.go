package related

import (
	"context"
	"fmt"
	"strings"

	"yt/internal/errors"
	"yt/internal/paths"
)

// Candidate is a record that a guess may resolve to.
type Candidate struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Title string `json:"title" yaml:"title" toml:"title"`
}

// Guess picks the one candidate related to the files changed in the working
// tree. Changes inside the record folder do not count as work on their own.
func (s *Scanner) Guess(ctx context.Context, candidates []Candidate) (string, error) {
	changed, err := s.src.ModifiedOrAdded(ctx)
	if err != nil {
		return "", err
	}
	var files []string
	for _, p := range changed {
		if !paths.InFolder(p, s.folder) {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return "", errors.New(errors.NoGuessFound, "no modified or added files to guess from", nil)
	}

	ids := make([]string, len(candidates))
	titles := make(map[string]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		titles[c.ID] = c.Title
	}

	matched, err := s.Related(ctx, Files(files), ids)
	if err != nil {
		return "", err
	}
	switch len(matched) {
	case 0:
		return "", errors.New(errors.NoGuessFound, "no record is related to the changed files", nil).
			WithDetails(map[string]interface{}{"files": files})
	case 1:
		s.logger.Debug("Guessed record", "id", matched[0])
		return matched[0], nil
	}

	found := make([]Candidate, len(matched))
	lines := make([]string, len(matched))
	for i, id := range matched {
		found[i] = Candidate{ID: id, Title: titles[id]}
		lines[i] = fmt.Sprintf("%s %s", id, titles[id])
	}
	return "", errors.New(errors.AmbiguousGuess,
		fmt.Sprintf("%d records match the changed files, pass an id:\n%s", len(matched), strings.Join(lines, "\n")), nil).
		WithDetails(map[string]interface{}{"candidates": found})
}
