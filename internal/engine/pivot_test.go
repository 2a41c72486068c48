package engine_test

import (
	"testing"

	. "github.com/tabulo/tabulo/internal/engine"
	"gotest.tools/assert"
)

func pivotRows() []Row {
	return []Row{
		{"Region": "North", "City": "Paris", "Sales": "100"},
		{"Region": "South", "City": "Lyon", "Sales": "200"},
		{"Region": "North", "City": "Lille", "Sales": "150"},
	}
}

func sumSales() []Metric {
	return []Metric{{Field: "Sales", Agg: AggSum, Label: "Total ventes"}}
}

func TestComputePivot(t *testing.T) {
	e := New()

	t.Run("empty row fields yields nil", func(t *testing.T) {
		res := e.ComputePivot(pivotRows(), PivotConfig{Metrics: sumSales()})
		assert.Assert(t, res == nil)
	})

	t.Run("single level sum", func(t *testing.T) {
		res := e.ComputePivot(pivotRows(), PivotConfig{
			RowFields: []string{"Region"},
			Metrics:   sumSales(),
			SortBy:    "label",
		})

		assert.Assert(t, res != nil)
		// two data rows + grand total
		assert.Equal(t, len(res.DisplayRows), 3)

		north := res.DisplayRows[0]
		assert.Equal(t, north.Type, PivotRowData)
		assert.Equal(t, north.Keys[0], "North")
		assert.Equal(t, north.Metrics.Get("Total ventes"), 250.)

		south := res.DisplayRows[1]
		assert.Equal(t, south.Keys[0], "South")
		assert.Equal(t, south.Metrics.Get("Total ventes"), 200.)

		assert.Equal(t, res.DisplayRows[2].Type, PivotRowGrandTotal)
		assert.Equal(t, res.GrandTotal, 450.)
	})

	t.Run("search recomputes aggregates", func(t *testing.T) {
		res := e.ComputePivot(pivotRows(), PivotConfig{
			RowFields: []string{"Region"},
			Metrics:   sumSales(),
			Search:    "north",
		})

		// only the grand total row plus North, with fresh totals
		assert.Equal(t, len(res.DisplayRows), 2)
		assert.Equal(t, res.DisplayRows[0].Keys[0], "North")
		assert.Equal(t, res.DisplayRows[0].Metrics.Get("Total ventes"), 250.)
		assert.Equal(t, res.GrandTotal, 250.)
	})

	t.Run("sort by value desc", func(t *testing.T) {
		res := e.ComputePivot(pivotRows(), PivotConfig{
			RowFields: []string{"Region"},
			Metrics:   sumSales(),
			SortBy:    "value",
			SortOrder: "desc",
		})

		assert.Equal(t, res.DisplayRows[0].Keys[0], "North")
		assert.Equal(t, res.DisplayRows[1].Keys[0], "South")
	})

	t.Run("column cross tab", func(t *testing.T) {
		rows := []Row{
			{"Region": "North", "Year": "2024", "Sales": "10"},
			{"Region": "North", "Year": "2025", "Sales": "20"},
			{"Region": "South", "Year": "2024", "Sales": "5"},
		}
		res := e.ComputePivot(rows, PivotConfig{
			RowFields: []string{"Region"},
			ColField:  "Year",
			Metrics:   sumSales(),
			SortBy:    "label",
		})

		assert.DeepEqual(t, res.ColHeaders, []string{"2024", "2025"})

		north := res.DisplayRows[0]
		assert.Equal(t, north.Metrics.Get("2024"), 10.)
		assert.Equal(t, north.Metrics.Get("2025"), 20.)
		assert.Equal(t, north.RowTotal, 30.)

		south := res.DisplayRows[1]
		assert.Equal(t, south.Metrics.Get("2024"), 5.)
		// group absent from a column still carries a zero cell
		assert.Equal(t, south.Metrics.Get("2025"), 0.)

		assert.Equal(t, res.ColTotals.Get("2024"), 15.)
		assert.Equal(t, res.ColTotals.Get("2025"), 20.)
	})

	t.Run("missing column value renders placeholder", func(t *testing.T) {
		rows := []Row{
			{"Region": "North", "Sales": "10"},
			{"Region": "North", "Year": "2024", "Sales": "20"},
		}
		res := e.ComputePivot(rows, PivotConfig{
			RowFields: []string{"Region"},
			ColField:  "Year",
			Metrics:   sumSales(),
		})

		assert.Equal(t, len(res.ColHeaders), 2)
		assert.Equal(t, res.DisplayRows[0].Metrics.Get("(Vide)"), 10.)
	})
}

func TestComputePivotSubtotals(t *testing.T) {
	e := New()

	res := e.ComputePivot(pivotRows(), PivotConfig{
		RowFields:     []string{"Region", "City"},
		Metrics:       sumSales(),
		SortBy:        "label",
		ShowSubtotals: true,
	})

	// North: Lille, Paris, subtotal; South: Lyon, subtotal; grand total
	assert.Equal(t, len(res.DisplayRows), 6)

	types := []PivotRowType{}
	for _, row := range res.DisplayRows {
		types = append(types, row.Type)
	}
	assert.DeepEqual(t, types, []PivotRowType{
		PivotRowData, PivotRowData, PivotRowSubtotal,
		PivotRowData, PivotRowSubtotal,
		PivotRowGrandTotal,
	})

	// children precede the subtotal that closes their group
	assert.DeepEqual(t, res.DisplayRows[0].Keys, []string{"North", "Lille"})
	assert.DeepEqual(t, res.DisplayRows[1].Keys, []string{"North", "Paris"})
	subtotal := res.DisplayRows[2]
	assert.DeepEqual(t, subtotal.Keys, []string{"North"})
	assert.Equal(t, subtotal.Level, 0)
	assert.Equal(t, subtotal.Metrics.Get("Total ventes"), 250.)

	// key-path invariants
	for _, row := range res.DisplayRows {
		switch row.Type {
		case PivotRowData:
			assert.Equal(t, len(row.Keys), 2)
			assert.Equal(t, row.Level, 1)
		case PivotRowSubtotal:
			assert.Equal(t, len(row.Keys), row.Level+1)
		}
	}
}

func TestComputePivotListMetric(t *testing.T) {
	e := New()
	rows := []Row{
		{"Region": "North", "Product": "A"},
		{"Region": "North", "Product": "B"},
		{"Region": "South", "Product": ""},
	}

	res := e.ComputePivot(rows, PivotConfig{
		RowFields: []string{"Region"},
		Metrics:   []Metric{{Field: "Product", Agg: AggList, Label: "Produits"}},
		SortBy:    "label",
	})

	assert.Equal(t, res.DisplayRows[0].Metrics.Get("Produits"), "A, B")
	assert.Equal(t, res.DisplayRows[1].Metrics.Get("Produits"), "-")
}
