package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// Outcome is a parsed match result from player 1's perspective.
type Outcome struct {
	Wins   int
	Losses int
	Draws  int
}

// IsDraw reports whether neither player won the match.
func (o Outcome) IsDraw() bool {
	return o.Wins == o.Losses
}

// ParseResult parses a "W-L" or "W-L-D" result string. Anything else is
// a malformed result; callers skip the match and count it in diagnostics
// rather than failing the run.
func ParseResult(s string) (Outcome, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Outcome{}, fmt.Errorf("result %q: expected 2 or 3 components", s)
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return Outcome{}, fmt.Errorf("result %q: component %q is not a non-negative integer", s, part)
		}
		values[i] = n
	}

	outcome := Outcome{Wins: values[0], Losses: values[1]}
	if len(values) == 3 {
		outcome.Draws = values[2]
	}
	return outcome, nil
}
