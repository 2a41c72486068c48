package engine_test

import (
	"testing"

	"github.com/tabulo/tabulo/pkg"

	. "github.com/tabulo/tabulo/internal/engine"
	"gotest.tools/assert"
)

func TestBuildDrilldownFilters(t *testing.T) {
	t.Run("maps row path and column", func(t *testing.T) {
		filters := BuildDrilldownFilters(
			[]string{"Region", "City"}, []string{"North", "Paris"},
			"Year", "2025", nil, "batch-1")

		assert.Equal(t, filters.Get("Region"), "North")
		assert.Equal(t, filters.Get("City"), "Paris")
		assert.Equal(t, filters.Get("Year"), "2025")
		assert.Equal(t, filters.Get(BatchField), "batch-1")
	})

	t.Run("subtotal path constrains covered levels only", func(t *testing.T) {
		filters := BuildDrilldownFilters(
			[]string{"Region", "City"}, []string{"North"}, "", "", nil, "")

		assert.Equal(t, filters.Get("Region"), "North")
		assert.Assert(t, !filters.Has("City"))
		assert.Assert(t, !filters.Has(BatchField))
	})

	t.Run("placeholders reverse to empty string", func(t *testing.T) {
		filters := BuildDrilldownFilters(
			[]string{"Region"}, []string{PlaceholderPivot}, "Year", PlaceholderTemporal, nil, "")

		assert.Equal(t, filters.Get("Region"), "")
		assert.Equal(t, filters.Get("Year"), "")
	})

	t.Run("existing filters carried over, not mutated", func(t *testing.T) {
		existing := pkg.Map[string, string]{"Country": "France"}
		filters := BuildDrilldownFilters(
			[]string{"Region"}, []string{"North"}, "", "", existing, "")

		assert.Equal(t, filters.Get("Country"), "France")
		assert.Equal(t, filters.Get("Region"), "North")
		assert.Equal(t, len(existing), 1)
	})
}

func TestDrilldownKey(t *testing.T) {
	key := DrilldownKey([]string{"North", "Paris"}, "2025")
	assert.Equal(t, key, "North"+LabelSep+"Paris"+LabelSep+"2025")
}

func TestDrilldownRoundTrip(t *testing.T) {
	rows := []Row{
		{"Region": "North", "City": "Paris", "Sales": "100"},
		{"Region": "North", "City": "Lille", "Sales": "150"},
		{"Region": "", "City": "Lyon", "Sales": "75"},
	}

	t.Run("cell filters select the cell's rows", func(t *testing.T) {
		filters := BuildDrilldownFilters(
			[]string{"Region", "City"}, []string{"North", "Paris"}, "", "", nil, "b1")
		res := ApplyFilters(rows, DrilldownRules(filters))

		assert.Equal(t, len(res), 1)
		assert.Equal(t, res[0].Get("Sales"), "100")
	})

	t.Run("placeholder group recovers its rows", func(t *testing.T) {
		filters := BuildDrilldownFilters(
			[]string{"Region"}, []string{PlaceholderPivot}, "", "", nil, "")
		res := ApplyFilters(rows, DrilldownRules(filters))

		assert.Equal(t, len(res), 1)
		assert.Equal(t, res[0].Get("City"), "Lyon")
	})

	t.Run("batch key never becomes a row filter", func(t *testing.T) {
		filters := pkg.Map[string, string]{BatchField: "b1", "Region": "North"}
		rules := DrilldownRules(filters)

		assert.Equal(t, len(rules), 1)
		assert.Equal(t, rules[0].Field, "Region")
	})
}
