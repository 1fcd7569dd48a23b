package model

// MetricPoint is one labeled sub-interval observation of a period, such as an
// hour bucket, a weekday or a month.
type MetricPoint struct {
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// Value returns the named field, 0 when absent.
func (p MetricPoint) Value(field string) float64 {
	return p.Values[field]
}

// CategorySlice is one segment of a proportion breakdown. Values are absolute
// counts, not fractions.
type CategorySlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Dataset is the reconciled data driving one page for one period. It is
// produced fresh per reconciliation and treated as immutable; use Clone
// before handing it across goroutines.
type Dataset struct {
	Series      []MetricPoint   `json:"series"`
	Performance []Record        `json:"performance"`
	Slices      []CategorySlice `json:"slices"`
	Stats       Record          `json:"stats"`
	Rows        []Record        `json:"rows"`
}

// Empty returns a dataset with no observations, as reported by a backend for
// a genuinely empty period.
func Empty() Dataset {
	return Dataset{
		Series:      []MetricPoint{},
		Performance: []Record{},
		Slices:      []CategorySlice{},
		Stats:       Record{},
		Rows:        []Record{},
	}
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Series:      make([]MetricPoint, len(d.Series)),
		Performance: make([]Record, len(d.Performance)),
		Slices:      make([]CategorySlice, len(d.Slices)),
		Stats:       d.Stats.Clone(),
		Rows:        make([]Record, len(d.Rows)),
	}
	for i, p := range d.Series {
		vals := make(map[string]float64, len(p.Values))
		for k, v := range p.Values {
			vals[k] = v
		}
		out.Series[i] = MetricPoint{Label: p.Label, Values: vals}
	}
	for i, r := range d.Performance {
		out.Performance[i] = r.Clone()
	}
	copy(out.Slices, d.Slices)
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	if out.Stats == nil {
		out.Stats = Record{}
	}
	return out
}

// SliceTotal sums the slice values.
func (d Dataset) SliceTotal() float64 {
	var sum float64
	for _, s := range d.Slices {
		sum += s.Value
	}
	return sum
}

// SeriesTotal sums one field across the series.
func (d Dataset) SeriesTotal(field string) float64 {
	var sum float64
	for _, p := range d.Series {
		sum += p.Values[field]
	}
	return sum
}
