package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/period"
)

type staticSource []RawEntry

func (s staticSource) Name() string { return "static" }

func (s staticSource) Entries(context.Context) ([]RawEntry, error) { return s, nil }

func TestEmbedded_LoadsEveryPageAndPeriod(t *testing.T) {
	c, err := Load(context.Background(), Embedded())
	require.NoError(t, err)

	assert.Equal(t, "embedded", c.Source())
	assert.Equal(t, model.PageNames(), c.Pages())
	assert.Equal(t, len(model.PageNames())*len(period.Keys), c.Len())
	for _, page := range c.Pages() {
		assert.Equal(t, period.Keys, c.Keys(page), page)
	}
}

func TestEmbedded_IsConsistent(t *testing.T) {
	c, err := Load(context.Background(), Embedded())
	require.NoError(t, err)

	assert.Empty(t, Validate(c))
}

func TestEmbedded_AgentsDay(t *testing.T) {
	c, err := Load(context.Background(), Embedded())
	require.NoError(t, err)

	ds, ok := c.Entry("agents", period.Day)
	require.True(t, ok)
	assert.Equal(t, 48.0, ds.Stats.Number("totalAgents"))
	assert.Equal(t, 37.0, ds.Stats.Number("enService"))
	assert.Len(t, ds.Series, 6)
	assert.Equal(t, "00h", ds.Series[0].Label)
	assert.Len(t, ds.Rows, 6)
	assert.Len(t, ds.Slices, 3)
}

func TestEmbedded_AllTimeLabelsAreText(t *testing.T) {
	c, err := Load(context.Background(), Embedded())
	require.NoError(t, err)

	ds, ok := c.Entry("controles", period.AllTime)
	require.True(t, ok)
	assert.Equal(t, "2020", ds.Series[0].Label)
}

func TestEntry_ReturnsCopy(t *testing.T) {
	c, err := Load(context.Background(), Embedded())
	require.NoError(t, err)

	ds, _ := c.Entry("amendes", period.Month)
	ds.Stats["totalAmendes"] = -1.0
	ds.Rows[0]["montant"] = -1.0

	again, _ := c.Entry("amendes", period.Month)
	assert.NotEqual(t, -1.0, again.Stats.Number("totalAmendes"))
	assert.NotEqual(t, -1.0, again.Rows[0].Number("montant"))
}

func TestEntry_Missing(t *testing.T) {
	c := New(nil)
	_, ok := c.Entry("agents", period.Day)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys("agents"))
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []RawEntry
		msg     string
	}{
		{"unknown page", []RawEntry{{Page: "radars", Key: period.Day, Payload: []byte(`{}`)}}, "unknown page"},
		{"unknown period", []RawEntry{{Page: "agents", Key: "trimestre", Payload: []byte(`{}`)}}, "unknown period"},
		{"duplicate", []RawEntry{
			{Page: "agents", Key: period.Day, Payload: []byte(`{}`)},
			{Page: "agents", Key: period.Day, Payload: []byte(`{}`)},
		}, "duplicate"},
		{"bad payload", []RawEntry{{Page: "agents", Key: period.Day, Payload: []byte(`[1,2]`)}}, "agents/jour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), staticSource(tt.entries))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDir_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	doc := `page: infractions
entries:
  jour:
    activityData:
      - {period: 08h, infractions: 4}
    pieData:
      - {name: Vitesse, value: 3, color: "#10B981"}
      - {name: Documents, value: 1, color: "#F59E0B"}
    stats: {totalInfractions: 4, resolues: 2, enCours: 2, montantGenere: 100000}
  Année:
    stats: {totalInfractions: 0}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "infractions.yaml"), []byte(doc), 0o644))

	c, err := Load(context.Background(), Dir(dir))
	require.NoError(t, err)

	assert.Equal(t, []period.Key{period.Day, period.Year}, c.Keys("infractions"))
	ds, ok := c.Entry("infractions", period.Day)
	require.True(t, ok)
	assert.Equal(t, 4.0, ds.Series[0].Value("infractions"))
	assert.Equal(t, 4.0, ds.SliceTotal())

	problems := Validate(c)
	assert.NotEmpty(t, problems)
	var missing int
	for _, p := range problems {
		if p.Message == "missing entry" && p.Page == "infractions" {
			missing++
		}
	}
	assert.Equal(t, 4, missing)
}

func TestDir_Empty(t *testing.T) {
	_, err := Load(context.Background(), Dir(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no *.yaml files")
}

func TestParseFile_Errors(t *testing.T) {
	_, err := ParseFile([]byte("entries: {}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing page")

	_, err = ParseFile([]byte("page: agents\nentries:\n  trimestre: {}\n"))
	require.Error(t, err)

	_, err = ParseFile([]byte("page: [unterminated"))
	require.Error(t, err)
}

func TestValidate_SliceMismatch(t *testing.T) {
	ds := model.Empty()
	ds.Stats = model.Record{"totalControles": 10.0, "conformes": 12.0}
	ds.Slices = []model.CategorySlice{{Name: "Conformes", Value: 7}}

	c := New(map[string]map[period.Key]model.Dataset{"controles": {period.Day: ds}})
	problems := Validate(c)

	var msgs []string
	for _, p := range problems {
		if p.Page == "controles" && p.Key == period.Day {
			msgs = append(msgs, p.String())
		}
	}
	assert.Contains(t, msgs, "controles/jour: slices sum to 7, totalControles is 10")
	assert.Contains(t, msgs, "controles/jour: conformes exceeds totalControles")
}

func TestValidate_MissingTotal(t *testing.T) {
	c := New(map[string]map[period.Key]model.Dataset{"agents": {period.Day: model.Empty()}})
	var found bool
	for _, p := range Validate(c) {
		if p.Page == "agents" && p.Key == period.Day {
			assert.Equal(t, "stats missing totalAgents", p.Message)
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, "amendes: no entries", Problem{Page: "amendes", Message: "no entries"}.String())
}

func TestRawEntries_RoundTrip(t *testing.T) {
	c, err := Load(context.Background(), Embedded())
	require.NoError(t, err)

	raws, err := c.RawEntries()
	require.NoError(t, err)
	require.Len(t, raws, c.Len())
	assert.Equal(t, "agents", raws[0].Page)
	assert.Equal(t, period.Day, raws[0].Key)

	again, err := Load(context.Background(), staticSource(raws))
	require.NoError(t, err)
	for _, page := range c.Pages() {
		for _, k := range c.Keys(page) {
			want, _ := c.Entry(page, k)
			got, ok := again.Entry(page, k)
			require.True(t, ok, "%s/%s", page, k)
			assert.Equal(t, want, got, "%s/%s", page, k)
		}
	}
}

func TestRawEntries_UnknownPage(t *testing.T) {
	c := New(map[string]map[period.Key]model.Dataset{"radars": {period.Day: model.Empty()}})
	_, err := c.RawEntries()
	assert.Error(t, err)
}
