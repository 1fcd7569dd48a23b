// Package reconcile resolves the live backend result and the static catalog
// entry of a page into the single dataset the dashboard renders.
package reconcile

import (
	"github.com/sells-group/dashboard-engine/internal/model"
)

// Kind discriminates a Result.
type Kind int

const (
	// KindSuccess carries a decoded dataset.
	KindSuccess Kind = iota + 1
	// KindFailure carries a human-readable message.
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of one remote fetch. Remote faults are values of this
// type, never Go errors.
type Result struct {
	kind    Kind
	dataset model.Dataset
	message string
}

// Success wraps a dataset returned by the backend.
func Success(ds model.Dataset) Result {
	return Result{kind: KindSuccess, dataset: ds}
}

// Failure wraps a remote error message.
func Failure(message string) Result {
	return Result{kind: KindFailure, message: message}
}

// Kind returns the discriminant.
func (r Result) Kind() Kind { return r.kind }

// IsSuccess reports whether r is a Success.
func (r Result) IsSuccess() bool { return r.kind == KindSuccess }

// Dataset returns the success payload. It is empty for failures.
func (r Result) Dataset() model.Dataset { return r.dataset }

// Message returns the failure message. It is empty for successes.
func (r Result) Message() string { return r.message }

// Origin names where a resolved dataset came from.
type Origin string

const (
	OriginFallback Origin = "fallback"
	OriginRemote   Origin = "remote"
)
