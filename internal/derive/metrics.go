package derive

import (
	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
)

// DefaultTopN is the ranking length used when none is configured.
const DefaultTopN = 5

// Metrics is everything the presentation layer shows besides the raw dataset.
type Metrics struct {
	// Ratios holds the page's declared Part/Whole percentages.
	Ratios map[string]float64 `json:"ratios"`
	// Percents holds stats that already arrive as rounded percentages.
	Percents map[string]float64 `json:"percents"`
	Shares   []Share            `json:"shares"`
	Top      []model.Record     `json:"top"`
	// Formatted holds display strings for the page's count and currency stats.
	Formatted map[string]string `json:"formatted"`
	Bucket    period.Bucket     `json:"bucket"`
	// Trend compares the last two points of the series on the trend field.
	Trend Variance `json:"trend"`
	// SeriesTotal sums the trend field over the whole series.
	SeriesTotal float64 `json:"seriesTotal"`
}

// Derive computes the page's metrics from ds. bucket is the currency scale
// of the active period; topN <= 0 uses DefaultTopN.
func Derive(page model.PageDef, ds model.Dataset, bucket period.Bucket, topN int) Metrics {
	if topN <= 0 {
		topN = DefaultTopN
	}
	m := Metrics{
		Ratios:    make(map[string]float64, len(page.Ratios)),
		Percents:  make(map[string]float64, len(page.PercentFields)),
		Formatted: make(map[string]string, len(page.CountFields)+len(page.CurrencyFields)),
		Bucket:    bucket,
	}
	for _, r := range page.Ratios {
		m.Ratios[r.Name] = PercentageOf(ds.Stats.Number(r.Part), ds.Stats.Number(r.Whole))
	}
	for _, f := range page.PercentFields {
		m.Percents[f] = PassThroughPercent(ds.Stats.Number(f))
	}
	for _, f := range page.CountFields {
		m.Formatted[f] = FormatMagnitude(ds.Stats.Number(f), UnitCount, "")
	}
	for _, f := range page.CurrencyFields {
		m.Formatted[f] = FormatMagnitude(ds.Stats.Number(f), UnitCurrency, bucket)
	}
	m.Shares = Shares(ds.Slices, ds.Stats.Number(page.TotalField))
	m.Top = TopN(ds.Rows, page.RankField, topN)
	m.Trend = seriesTrend(ds.Series, page.TrendField)
	m.SeriesTotal = SafeNumber(ds.SeriesTotal(page.TrendField))
	return m
}

// seriesTrend compares the last two series points on field. Series without
// that field, or with fewer than two points, are flat.
func seriesTrend(series []model.MetricPoint, field string) Variance {
	if len(series) < 2 {
		return Evolution(0, 0)
	}
	last, prev := series[len(series)-1], series[len(series)-2]
	return Evolution(last.Value(field), prev.Value(field))
}
