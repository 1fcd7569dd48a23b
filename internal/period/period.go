// Package period models the reporting period a dashboard page is scoped to.
package period

import (
	"time"
)

// Key is the reporting granularity selected by the operator.
type Key string

const (
	Day     Key = "jour"
	Week    Key = "semaine"
	Month   Key = "mois"
	Year    Key = "annee"
	AllTime Key = "tout"
	Custom  Key = "personnalise"
)

// Keys lists every period key in display order.
var Keys = []Key{Day, Week, Month, Year, AllTime, Custom}

// Presets lists the keys that can be selected without a date range.
var Presets = []Key{Day, Week, Month, Year, AllTime}

// Valid reports whether k is one of the six known keys.
func (k Key) Valid() bool {
	switch k {
	case Day, Week, Month, Year, AllTime, Custom:
		return true
	}
	return false
}

// IsPreset reports whether k is a valid key other than Custom.
func (k Key) IsPreset() bool {
	return k.Valid() && k != Custom
}

func (k Key) String() string {
	return string(k)
}

// Bucket is the scale currency amounts are expressed in for a granularity.
type Bucket string

const (
	// Millions, shown as "M".
	Millions Bucket = "M"
	// Billions, shown as "Mrd".
	Billions Bucket = "Mrd"
)

// Factor returns the divisor applied to raw amounts for this bucket.
func (b Bucket) Factor() float64 {
	if b == Billions {
		return 1e9
	}
	return 1e6
}

// CurrencyBucket returns the fixed bucket used for currency amounts at this
// granularity. Short periods read in millions, yearly and all-time views in
// billions; custom ranges follow the short-period rule.
func (k Key) CurrencyBucket() Bucket {
	switch k {
	case Year, AllTime:
		return Billions
	default:
		return Millions
	}
}

// DateLayout is the calendar date format used on the wire and on the CLI.
const DateLayout = "2006-01-02"

// Query is an issued period selection. The zero value is not a valid query;
// build one with Preset or CustomRange. A date range is carried if and only
// if the key is Custom.
type Query struct {
	key   Key
	start time.Time
	end   time.Time
}

// Preset returns the query for a preset key. It panics on Custom or an
// unknown key; Selector.SelectPreset is the checked entry point.
func Preset(k Key) Query {
	if !k.IsPreset() {
		panic("period: Preset called with non-preset key " + string(k))
	}
	return Query{key: k}
}

// CustomRange returns a Custom query for [start, end], or an
// *InvalidRangeError when an endpoint is missing or the range is inverted.
func CustomRange(start, end time.Time) (Query, error) {
	if start.IsZero() || end.IsZero() {
		return Query{}, &InvalidRangeError{Start: start, End: end, Reason: ReasonMissingEndpoint}
	}
	s, e := Date(start), Date(end)
	if s.After(e) {
		return Query{}, &InvalidRangeError{Start: s, End: e, Reason: ReasonInverted}
	}
	return Query{key: Custom, start: s, end: e}, nil
}

// Date truncates t to its calendar day at UTC midnight with no monotonic
// reading, so that dates compare with ==.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key returns the query's period key.
func (q Query) Key() Key { return q.key }

// IsZero reports whether q was never issued.
func (q Query) IsZero() bool { return q.key == "" }

// Range returns the custom date range. ok is false for preset queries.
func (q Query) Range() (start, end time.Time, ok bool) {
	if q.key != Custom {
		return time.Time{}, time.Time{}, false
	}
	return q.start, q.end, true
}

// Equal reports whether two queries select the same period.
func (q Query) Equal(o Query) bool {
	return q.key == o.key && q.start.Equal(o.start) && q.end.Equal(o.end)
}

func (q Query) String() string {
	if q.key != Custom {
		return string(q.key)
	}
	return string(q.key) + "[" + q.start.Format(DateLayout) + ".." + q.end.Format(DateLayout) + "]"
}
