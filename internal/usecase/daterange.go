package usecase

import (
	"fmt"
	"time"
)

// Date layouts accepted for organization stats ranges.
const (
	CLIDateLayout  = "2006/01/02"
	HTTPDateLayout = "2006-01-02"
	githubLayout   = "2006-01-02"
)

// DateRanges holds the search qualifiers restricting organization stats to a
// period. Commit search filters on author-date, PR search on created.
type DateRanges struct {
	Commits      string
	PullRequests string
}

// ParseDateRanges builds the qualifiers from optional from/to dates in
// layout. An empty bound is open. Both empty means no restriction.
func ParseDateRanges(from, to, layout string) (DateRanges, error) {
	if from == "" && to == "" {
		return DateRanges{}, nil
	}
	fromQuery, err := rangeBound(from, layout, "from")
	if err != nil {
		return DateRanges{}, err
	}
	toQuery, err := rangeBound(to, layout, "to")
	if err != nil {
		return DateRanges{}, err
	}
	// The leading space is needed when appended to a search query.
	return DateRanges{
		Commits:      fmt.Sprintf(" author-date:%s..%s", fromQuery, toQuery),
		PullRequests: fmt.Sprintf(" created:%s..%s", fromQuery, toQuery),
	}, nil
}

func rangeBound(value, layout, name string) (string, error) {
	if value == "" {
		return "*", nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return "", fmt.Errorf("invalid %s date %q: %w", name, value, err)
	}
	return t.Format(githubLayout), nil
}
