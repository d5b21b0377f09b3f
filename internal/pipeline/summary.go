package pipeline

import "github.com/jonathan/talent-scout/internal/types"

// Summary counts result rows by outcome.
type Summary struct {
	Total     int
	Matched   int
	NotFound  int
	NoResults int
	Errors    int
	Cancelled int
}

// Summarize classifies rows by their sentinel values. Cancelled rows are not
// counted as errors.
func Summarize(results []types.CompanyResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case IsCancelled(r):
			s.Cancelled++
		case r.Domain == types.ValueError:
			s.Errors++
		case r.Name == types.NameNoResults:
			s.NoResults++
		case r.Name == types.NameNotFound:
			s.NotFound++
		default:
			s.Matched++
		}
	}
	return s
}
