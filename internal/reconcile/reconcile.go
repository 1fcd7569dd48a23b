package reconcile

import (
	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
)

// Resolved is the canonical current view of one page.
type Resolved struct {
	// Query is the most recently requested period.
	Query period.Query `json:"query"`
	// Source is the period the dataset belongs to. It differs from Query
	// while a request is pending or after it failed.
	Source  period.Query  `json:"source"`
	Origin  Origin        `json:"origin"`
	Dataset model.Dataset `json:"dataset"`
	// Failure is the last failure message for Query, empty when none.
	Failure string `json:"failure,omitempty"`
}

// Clone returns a deep copy of r.
func (r Resolved) Clone() Resolved {
	r.Dataset = r.Dataset.Clone()
	return r
}

// Reconcile computes the view for query from the catalog fallback, the
// previous view (nil on first render) and the remote result (nil while the
// request is pending). It has no side effects.
//
// A success replaces the dataset entirely, even when empty. A failure keeps
// the previous dataset. A pending request keeps previous live data and
// otherwise shows the fallback for the new period.
func Reconcile(query period.Query, fallback model.Dataset, prev *Resolved, result *Result) Resolved {
	switch {
	case result != nil && result.IsSuccess():
		return Resolved{
			Query:   query,
			Source:  query,
			Origin:  OriginRemote,
			Dataset: result.Dataset().Clone(),
		}

	case result != nil:
		if prev == nil {
			return Resolved{
				Query:   query,
				Source:  query,
				Origin:  OriginFallback,
				Dataset: fallback.Clone(),
				Failure: result.Message(),
			}
		}
		return Resolved{
			Query:   query,
			Source:  prev.Source,
			Origin:  prev.Origin,
			Dataset: prev.Dataset.Clone(),
			Failure: result.Message(),
		}

	default:
		if prev != nil && prev.Origin == OriginRemote {
			return Resolved{
				Query:   query,
				Source:  prev.Source,
				Origin:  OriginRemote,
				Dataset: prev.Dataset.Clone(),
			}
		}
		return Resolved{
			Query:   query,
			Source:  query,
			Origin:  OriginFallback,
			Dataset: fallback.Clone(),
		}
	}
}
