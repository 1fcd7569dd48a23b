package derive

import (
	"sort"

	"github.com/sells-group/dashboard-engine/internal/model"
)

// TopN returns at most n rows ordered by the numeric field by, descending.
// Ties keep their input order. rows is not modified; the result holds
// copies.
func TopN(rows []model.Record, by string, n int) []model.Record {
	if len(rows) == 0 || n <= 0 {
		return []model.Record{}
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rows[idx[a]].Number(by) > rows[idx[b]].Number(by)
	})
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]model.Record, n)
	for i := 0; i < n; i++ {
		out[i] = rows[idx[i]].Clone()
	}
	return out
}

// Share is a slice annotated with its percentage of the declared total.
type Share struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// Shares computes each slice's percentage of total. A non-positive total
// falls back to the sum of the slices.
func Shares(slices []model.CategorySlice, total float64) []Share {
	total = SafeNumber(total)
	if total <= 0 {
		for _, s := range slices {
			total += SafeNumber(s.Value)
		}
	}
	out := make([]Share, 0, len(slices))
	for _, s := range slices {
		v := SafeNumber(s.Value)
		out = append(out, Share{
			Name:    s.Name,
			Value:   v,
			Percent: PercentageOf(v, total),
			Color:   s.Color,
		})
	}
	return out
}
