package catalog

import (
	"fmt"
	"math"

	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
)

// Problem is one consistency defect found by Validate.
type Problem struct {
	Page    string     `json:"page"`
	Key     period.Key `json:"periode,omitempty"`
	Message string     `json:"message"`
}

func (p Problem) String() string {
	if p.Key == "" {
		return fmt.Sprintf("%s: %s", p.Page, p.Message)
	}
	return fmt.Sprintf("%s/%s: %s", p.Page, p.Key, p.Message)
}

// Validate checks that every known page has an entry for every period key,
// that each entry carries the page's total stat, and that pie slices add up
// to that total.
func Validate(c *Catalog) []Problem {
	var problems []Problem
	for _, page := range model.Pages() {
		if _, ok := c.entries[page.Name]; !ok {
			problems = append(problems, Problem{Page: page.Name, Message: "no entries"})
			continue
		}
		for _, key := range period.Keys {
			ds, ok := c.entries[page.Name][key]
			if !ok {
				problems = append(problems, Problem{Page: page.Name, Key: key, Message: "missing entry"})
				continue
			}
			problems = append(problems, checkEntry(page, key, ds)...)
		}
	}
	return problems
}

func checkEntry(page model.PageDef, key period.Key, ds model.Dataset) []Problem {
	var problems []Problem
	if !ds.Stats.Has(page.TotalField) {
		problems = append(problems, Problem{Page: page.Name, Key: key, Message: "stats missing " + page.TotalField})
		return problems
	}
	if len(ds.Slices) > 0 {
		total := ds.Stats.Number(page.TotalField)
		if sum := ds.SliceTotal(); math.Abs(sum-total) > 0.5 {
			problems = append(problems, Problem{
				Page:    page.Name,
				Key:     key,
				Message: fmt.Sprintf("slices sum to %g, %s is %g", sum, page.TotalField, total),
			})
		}
	}
	for _, r := range page.Ratios {
		if ds.Stats.Number(r.Part) > ds.Stats.Number(r.Whole) {
			problems = append(problems, Problem{
				Page:    page.Name,
				Key:     key,
				Message: fmt.Sprintf("%s exceeds %s", r.Part, r.Whole),
			})
		}
	}
	return problems
}
