package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentsPayload = `{
	"activityData": [
		{"period": "08h", "controles": 12, "infractions": 3, "agents": 4},
		{"period": "10h", "controles": 20, "infractions": "5", "agents": 6}
	],
	"performanceData": [{"commissariat": "Plateau", "taux": 87, "agents": 12}],
	"pieData": [
		{"name": "En service", "value": 5, "color": "#22c55e"},
		{"name": "Hors service", "value": -1, "color": "#ef4444"}
	],
	"stats": {"totalAgents": 6, "enService": 5, "tempsMoyen": "2h15"},
	"agents": [
		{"id": 1, "nom": "Diallo", "infractions": 7},
		{"id": 2, "nom": "Koné", "infractions": 9}
	]
}`

func TestDecodePayload_Agents(t *testing.T) {
	page, ok := LookupPage("agents")
	require.True(t, ok)

	ds, err := DecodePayload(page, []byte(agentsPayload))
	require.NoError(t, err)

	require.Len(t, ds.Series, 2)
	assert.Equal(t, "08h", ds.Series[0].Label)
	assert.InDelta(t, 12, ds.Series[0].Value("controles"), 0)
	assert.NotContains(t, ds.Series[0].Values, "period")
	// Numeric strings are series values like numbers.
	assert.InDelta(t, 5, ds.Series[1].Value("infractions"), 0)

	require.Len(t, ds.Performance, 1)
	assert.Equal(t, "Plateau", ds.Performance[0].Text("commissariat"))

	require.Len(t, ds.Slices, 2)
	assert.InDelta(t, 0, ds.Slices[1].Value, 0, "negative slice values clamp to zero")

	assert.InDelta(t, 5, ds.Stats.Number("enService"), 0)
	assert.Equal(t, "2h15", ds.Stats.Text("tempsMoyen"))

	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "Koné", ds.Rows[1].Text("nom"))
}

func TestDecodePayload_EmptySectionsAreNotNil(t *testing.T) {
	page, _ := LookupPage("infractions")
	ds, err := DecodePayload(page, []byte(`{"activityData": [], "stats": {"totalInfractions": 0}}`))
	require.NoError(t, err)

	assert.NotNil(t, ds.Series)
	assert.Empty(t, ds.Series)
	assert.NotNil(t, ds.Slices)
	assert.NotNil(t, ds.Rows)
	assert.NotNil(t, ds.Performance)
	assert.True(t, ds.Stats.Has("totalInfractions"))
	assert.InDelta(t, 0, ds.Stats.Number("totalInfractions"), 0)
}

func TestDecodePayload_Invalid(t *testing.T) {
	page, _ := LookupPage("amendes")

	_, err := DecodePayload(page, []byte(`null`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an object")

	_, err = DecodePayload(page, []byte(`[1,2]`))
	require.Error(t, err)

	_, err = DecodePayload(page, []byte(`{"pieData": "oops"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pieData")
}

func TestEncodePayload_RoundTrip(t *testing.T) {
	page, _ := LookupPage("agents")
	ds, err := DecodePayload(page, []byte(agentsPayload))
	require.NoError(t, err)

	b, err := EncodePayload(page, ds)
	require.NoError(t, err)

	again, err := DecodePayload(page, b)
	require.NoError(t, err)
	assert.Equal(t, ds, again)
}

func TestDataset_CloneIsDeep(t *testing.T) {
	page, _ := LookupPage("agents")
	ds, err := DecodePayload(page, []byte(agentsPayload))
	require.NoError(t, err)

	c := ds.Clone()
	c.Series[0].Values["controles"] = 999
	c.Rows[0]["nom"] = "changed"
	c.Stats["enService"] = 0.0
	c.Slices[0].Value = 42

	assert.InDelta(t, 12, ds.Series[0].Value("controles"), 0)
	assert.Equal(t, "Diallo", ds.Rows[0].Text("nom"))
	assert.InDelta(t, 5, ds.Stats.Number("enService"), 0)
	assert.InDelta(t, 5, ds.Slices[0].Value, 0)
}

func TestDataset_Totals(t *testing.T) {
	page, _ := LookupPage("agents")
	ds, err := DecodePayload(page, []byte(agentsPayload))
	require.NoError(t, err)

	assert.InDelta(t, 5, ds.SliceTotal(), 0)
	assert.InDelta(t, 32, ds.SeriesTotal("controles"), 0)
	assert.InDelta(t, 0, Empty().SliceTotal(), 0)
}

func TestDecodePayload_SeriesParsesNumericStrings(t *testing.T) {
	page, _ := LookupPage("controles")
	payload := `{
		"activityData": [{"period": "08h", "controles": "12", "infractions": 3, "zone": "Nord", "montant": "1 500,5"}],
		"stats": {"totalControles": "6"}
	}`
	ds, err := DecodePayload(page, []byte(payload))
	require.NoError(t, err)

	require.Len(t, ds.Series, 1)
	assert.InDelta(t, 12, ds.Series[0].Value("controles"), 0)
	assert.InDelta(t, 3, ds.Series[0].Value("infractions"), 0)
	assert.InDelta(t, 1500.5, ds.Series[0].Value("montant"), 1e-9)
	assert.NotContains(t, ds.Series[0].Values, "zone", "non-numeric text is not a series value")
	assert.InDelta(t, 12, ds.SeriesTotal("controles"), 0)
	assert.InDelta(t, 6, ds.Stats.Number("totalControles"), 0)
}

func TestDecodePayload_SeriesSkipsNonNumericValues(t *testing.T) {
	page, _ := LookupPage("controles")
	payload := `{"activityData": [{"period": "09h", "controles": 4, "agents": null, "actif": true, "detail": {"n": 1}}]}`
	ds, err := DecodePayload(page, []byte(payload))
	require.NoError(t, err)

	require.Len(t, ds.Series, 1)
	assert.Equal(t, map[string]float64{"controles": 4}, ds.Series[0].Values)
}
