package testutil

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

// AssertEqual fails the test with a field-level diff when got and want differ.
func AssertEqual(t testing.TB, got, want any) {
	t.Helper()
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("mismatch:\n  %s", strings.Join(diff, "\n  "))
	}
}

// AssertText fails with a line diff when two multi-line strings differ.
func AssertText(t testing.TB, name, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s mismatch:\n%s", name, unifiedDiff(want, got, name))
	}
}

// unifiedDiff produces a minimal line-by-line diff between two strings.
func unifiedDiff(expected, got, name string) string {
	var buf bytes.Buffer

	expectedLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")

	fmt.Fprintf(&buf, "--- %s (expected)\n", name)
	fmt.Fprintf(&buf, "+++ %s (got)\n", name)

	n := len(expectedLines)
	if len(gotLines) > n {
		n = len(gotLines)
	}

	for i := 0; i < n; i++ {
		var exp, act string
		hasExp, hasAct := i < len(expectedLines), i < len(gotLines)
		if hasExp {
			exp = expectedLines[i]
		}
		if hasAct {
			act = gotLines[i]
		}

		if hasExp && hasAct && exp == act {
			fmt.Fprintf(&buf, " %s\n", exp)
			continue
		}
		if hasExp {
			fmt.Fprintf(&buf, "-%s\n", exp)
		}
		if hasAct {
			fmt.Fprintf(&buf, "+%s\n", act)
		}
	}

	return buf.String()
}
