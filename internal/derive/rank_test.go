package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dashboard-engine/internal/model"
)

func TestTopN_Empty(t *testing.T) {
	for _, n := range []int{0, 1, 3, 100} {
		assert.Empty(t, TopN(nil, "violations", n))
		assert.Empty(t, TopN([]model.Record{}, "anything", n))
		assert.NotNil(t, TopN(nil, "violations", n))
	}
}

func TestTopN_StableTies(t *testing.T) {
	rows := []model.Record{
		{"nom": "A", "violations": 4.0},
		{"nom": "B", "violations": 9.0},
		{"nom": "C", "violations": 4.0},
		{"nom": "D", "violations": 7.0},
		{"nom": "E", "violations": 1.0},
	}

	got := TopN(rows, "violations", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "B", got[0].Text("nom"))
	assert.Equal(t, "D", got[1].Text("nom"))
	assert.Equal(t, "A", got[2].Text("nom"), "first of the tied rows keeps its place")

	all := TopN(rows, "violations", 10)
	require.Len(t, all, 5)
	assert.Equal(t, []string{"B", "D", "A", "C", "E"}, names(all))
}

func TestTopN_DoesNotMutateInput(t *testing.T) {
	rows := []model.Record{
		{"nom": "A", "taux": 10.0},
		{"nom": "B", "taux": 90.0},
	}
	got := TopN(rows, "taux", 2)
	got[0]["nom"] = "changed"

	assert.Equal(t, []string{"A", "B"}, names(rows))
	assert.Equal(t, "B", rows[1].Text("nom"))
}

func TestTopN_MissingFieldSortsAsZero(t *testing.T) {
	rows := []model.Record{
		{"nom": "A"},
		{"nom": "B", "taux": "n/a"},
		{"nom": "C", "taux": 2.0},
	}
	assert.Equal(t, []string{"C", "A", "B"}, names(TopN(rows, "taux", 3)))
}

func TestTopN_NegativeN(t *testing.T) {
	rows := []model.Record{{"v": 1.0}}
	assert.Empty(t, TopN(rows, "v", -1))
}

func TestShares(t *testing.T) {
	slices := []model.CategorySlice{
		{Name: "Payées", Value: 30, Color: "#22c55e"},
		{Name: "En attente", Value: 10, Color: "#f59e0b"},
	}
	got := Shares(slices, 40)
	require.Len(t, got, 2)
	assert.InDelta(t, 75, got[0].Percent, 1e-9)
	assert.InDelta(t, 25, got[1].Percent, 1e-9)
	assert.Equal(t, "#f59e0b", got[1].Color)

	// Missing total falls back to the slice sum.
	fallback := Shares(slices, 0)
	assert.InDelta(t, 75, fallback[0].Percent, 1e-9)

	assert.Empty(t, Shares(nil, 0))
	zero := Shares([]model.CategorySlice{{Name: "x", Value: 0}}, 0)
	assert.InDelta(t, 0, zero[0].Percent, 0)
}

func names(rows []model.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text("nom")
	}
	return out
}
