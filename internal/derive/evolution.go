package derive

import (
	"strconv"
)

// Trend is the direction of a variance.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Variance compares a value with its previous-period counterpart.
type Variance struct {
	Delta   float64 `json:"delta"`
	Percent float64 `json:"percent"`
	Trend   Trend   `json:"trend"`
}

// Evolution computes the change from previous to current. The percentage is
// 0 when previous is 0.
func Evolution(current, previous float64) Variance {
	current, previous = SafeNumber(current), SafeNumber(previous)
	delta := current - previous
	v := Variance{Delta: delta, Percent: PercentageOf(delta, absf(previous)), Trend: TrendFlat}
	switch {
	case delta > 0:
		v.Trend = TrendUp
	case delta < 0:
		v.Trend = TrendDown
	}
	return v
}

// Label renders the percentage with an explicit sign: "+12.5%", "-3.0%",
// "0.0%".
func (v Variance) Label() string {
	p := SafeNumber(v.Percent)
	s := strconv.FormatFloat(p, 'f', 1, 64) + "%"
	if p > 0 {
		return "+" + s
	}
	if p == 0 {
		return "0.0%"
	}
	return s
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
