package period

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotPreset is returned when SelectPreset receives Custom or an unknown key.
var ErrNotPreset = eris.New("period: not a preset key")

// ErrUnknownKey is returned when a wire period name matches no key.
var ErrUnknownKey = eris.New("period: unknown period key")

// RangeReason explains why a custom range was rejected.
type RangeReason string

const (
	ReasonMissingEndpoint RangeReason = "missing endpoint"
	ReasonInverted        RangeReason = "start after end"
	ReasonMalformed       RangeReason = "malformed date"
)

// InvalidRangeError rejects a custom date range before any request is made.
type InvalidRangeError struct {
	Start  time.Time
	End    time.Time
	Reason RangeReason
	Input  string
}

func (e *InvalidRangeError) Error() string {
	switch e.Reason {
	case ReasonInverted:
		return fmt.Sprintf("period: invalid range: start %s after end %s",
			e.Start.Format(DateLayout), e.End.Format(DateLayout))
	case ReasonMalformed:
		return fmt.Sprintf("period: invalid range: malformed date %q", e.Input)
	default:
		return "period: invalid range: " + string(e.Reason)
	}
}
