package model

import (
	"math"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Payload fields shared by every page.
const (
	FieldActivity    = "activityData"
	FieldPerformance = "performanceData"
	FieldPie         = "pieData"
	FieldStats       = "stats"
)

// DecodePayload maps a backend or catalog payload object onto a Dataset using
// the page's field mapping. Missing sections decode as empty, never nil.
func DecodePayload(page PageDef, data []byte) (Dataset, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Dataset{}, eris.Wrapf(err, "model: decode %s payload", page.Name)
	}
	if raw == nil {
		return Dataset{}, eris.Errorf("model: decode %s payload: not an object", page.Name)
	}

	ds := Empty()

	var activity []Record
	if err := decodeSection(raw, FieldActivity, &activity); err != nil {
		return Dataset{}, eris.Wrapf(err, "model: decode %s %s", page.Name, FieldActivity)
	}
	labelField := page.LabelField
	if labelField == "" {
		labelField = "period"
	}
	for _, rec := range activity {
		pt := MetricPoint{Label: rec.Text(labelField), Values: map[string]float64{}}
		for k, v := range rec {
			if k == labelField {
				continue
			}
			f, ok := numberOf(v)
			if !ok {
				continue
			}
			pt.Values[k] = f
		}
		ds.Series = append(ds.Series, pt)
	}

	if err := decodeSection(raw, FieldPerformance, &ds.Performance); err != nil {
		return Dataset{}, eris.Wrapf(err, "model: decode %s %s", page.Name, FieldPerformance)
	}

	var slices []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
		Color string `json:"color"`
	}
	if err := decodeSection(raw, FieldPie, &slices); err != nil {
		return Dataset{}, eris.Wrapf(err, "model: decode %s %s", page.Name, FieldPie)
	}
	for _, s := range slices {
		v := ToNumber(s.Value)
		if v < 0 {
			v = 0
		}
		ds.Slices = append(ds.Slices, CategorySlice{Name: s.Name, Value: v, Color: s.Color})
	}

	if err := decodeSection(raw, FieldStats, &ds.Stats); err != nil {
		return Dataset{}, eris.Wrapf(err, "model: decode %s %s", page.Name, FieldStats)
	}
	if page.RowsField != "" {
		if err := decodeSection(raw, page.RowsField, &ds.Rows); err != nil {
			return Dataset{}, eris.Wrapf(err, "model: decode %s %s", page.Name, page.RowsField)
		}
	}

	normalize(&ds)
	return ds, nil
}

func decodeSection(raw map[string]json.RawMessage, field string, dst any) error {
	msg, ok := raw[field]
	if !ok || len(msg) == 0 || string(msg) == "null" {
		return nil
	}
	return json.Unmarshal(msg, dst)
}

func normalize(ds *Dataset) {
	if ds.Series == nil {
		ds.Series = []MetricPoint{}
	}
	if ds.Performance == nil {
		ds.Performance = []Record{}
	}
	if ds.Slices == nil {
		ds.Slices = []CategorySlice{}
	}
	if ds.Stats == nil {
		ds.Stats = Record{}
	}
	if ds.Rows == nil {
		ds.Rows = []Record{}
	}
	for i, r := range ds.Performance {
		if r == nil {
			ds.Performance[i] = Record{}
		}
	}
	for i, r := range ds.Rows {
		if r == nil {
			ds.Rows[i] = Record{}
		}
	}
}

// EncodePayload renders d back into the page's wire shape. It is the inverse
// of DecodePayload up to field ordering.
func EncodePayload(page PageDef, d Dataset) ([]byte, error) {
	labelField := page.LabelField
	if labelField == "" {
		labelField = "period"
	}
	activity := make([]map[string]any, 0, len(d.Series))
	for _, p := range d.Series {
		m := make(map[string]any, len(p.Values)+1)
		m[labelField] = p.Label
		for k, v := range p.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			m[k] = v
		}
		activity = append(activity, m)
	}
	out := map[string]any{
		FieldActivity:    activity,
		FieldPerformance: nonNilRecords(d.Performance),
		FieldPie:         nonNilSlices(d.Slices),
		FieldStats:       nonNilRecord(d.Stats),
	}
	if page.RowsField != "" {
		out[page.RowsField] = nonNilRecords(d.Rows)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, eris.Wrapf(err, "model: encode %s payload", page.Name)
	}
	return b, nil
}

func nonNilRecords(r []Record) []Record {
	if r == nil {
		return []Record{}
	}
	return r
}

func nonNilSlices(s []CategorySlice) []CategorySlice {
	if s == nil {
		return []CategorySlice{}
	}
	return s
}

func nonNilRecord(r Record) Record {
	if r == nil {
		return Record{}
	}
	return r
}
