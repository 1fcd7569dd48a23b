package period

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// State is the selector's mode.
type State int

const (
	StatePreset State = iota
	StateCustomActive
)

func (s State) String() string {
	if s == StateCustomActive {
		return "custom"
	}
	return "preset"
}

// Selector holds the active period selection for one page. It starts on Day.
// A Selector is not safe for concurrent use; each page owns one.
type Selector struct {
	current Query
}

// NewSelector returns a selector positioned on the given preset, or Day when
// initial is not a preset key.
func NewSelector(initial Key) *Selector {
	if !initial.IsPreset() {
		initial = Day
	}
	return &Selector{current: Preset(initial)}
}

// Current returns the active query.
func (s *Selector) Current() Query { return s.current }

// State reports whether a preset or a custom range is active.
func (s *Selector) State() State {
	if s.current.key == Custom {
		return StateCustomActive
	}
	return StatePreset
}

// SelectPreset activates a preset and drops any custom range.
func (s *Selector) SelectPreset(k Key) (Query, error) {
	if !k.IsPreset() {
		return s.current, eris.Wrapf(ErrNotPreset, "select %q", string(k))
	}
	s.current = Preset(k)
	return s.current, nil
}

// SelectCustomRange activates a custom range. On error the current query is
// left untouched.
func (s *Selector) SelectCustomRange(start, end time.Time) (Query, error) {
	q, err := CustomRange(start, end)
	if err != nil {
		return s.current, err
	}
	s.current = q
	return q, nil
}

// SelectCustomRangeStrings parses YYYY-MM-DD endpoints; blank input counts as
// a missing endpoint.
func (s *Selector) SelectCustomRangeStrings(start, end string) (Query, error) {
	st, err := ParseDate(start)
	if err != nil {
		return s.current, err
	}
	en, err := ParseDate(end)
	if err != nil {
		return s.current, err
	}
	return s.SelectCustomRange(st, en)
}

// ParseDate parses a calendar date. Blank input yields the zero time with no
// error so that CustomRange reports the missing endpoint.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, &InvalidRangeError{Reason: ReasonMalformed, Input: v}
	}
	return t, nil
}
