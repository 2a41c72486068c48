package engine_test

import (
	"testing"

	. "github.com/tabulo/tabulo/internal/engine"
	"gotest.tools/assert"
)

func TestFormatNumber(t *testing.T) {
	// the no-break space between groups is part of the output contract
	assert.Equal(t, FormatNumber(1234.56, 2), "1 234,56")
	assert.Equal(t, FormatNumber(1234567.891, 2), "1 234 567,89")
	assert.Equal(t, FormatNumber(999, 0), "999")
	assert.Equal(t, FormatNumber(1000, 0), "1 000")
	assert.Equal(t, FormatNumber(-1234.5, 2), "-1 234,50")
	assert.Equal(t, FormatNumber(0, 2), "0,00")
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, FormatCurrency(1234.56), "1 234,56")
	assert.Equal(t, FormatCurrency(0.5), "0,50")
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, FormatPercentage(12.5), "12,5 %")
	assert.Equal(t, FormatPercentage(12), "12 %")
	assert.Equal(t, FormatPercentage(-3.26), "-3,3 %")
	assert.Equal(t, FormatPercentage(0), "0 %")
}

func TestFormatValue(t *testing.T) {
	lookup := func(field string) *FieldConfig {
		if field == "Sales" {
			return &FieldConfig{Name: "Sales", Type: FieldTypeNumber, Unit: "€"}
		}
		return nil
	}

	t.Run("counts render without decimals", func(t *testing.T) {
		got := FormatValue(42., Metric{Field: "Sales", Agg: AggCount}, lookup)
		assert.Equal(t, got, "42")
	})

	t.Run("unit appended from field config", func(t *testing.T) {
		got := FormatValue(1234.5, Metric{Field: "Sales", Agg: AggSum}, lookup)
		assert.Equal(t, got, "1 234,50 €")
	})

	t.Run("unknown field falls back to plain number", func(t *testing.T) {
		got := FormatValue(10., Metric{Field: "Other", Agg: AggSum}, lookup)
		assert.Equal(t, got, "10,00")
	})

	t.Run("list strings pass through", func(t *testing.T) {
		got := FormatValue("a, b (+2)", Metric{Field: "Product", Agg: AggList}, lookup)
		assert.Equal(t, got, "a, b (+2)")
	})
}

func TestStyleFor(t *testing.T) {
	fc := &FieldConfig{
		Name: "Sales",
		Type: FieldTypeNumber,
		Unit: "€",
		Formatting: []FormatRule{
			{Condition: FilterOpGt, Value: 1000, Style: "bold-green"},
			{Condition: FilterOpLt, Value: 0, Style: "red"},
		},
	}

	assert.Equal(t, fc.StyleFor(1500.), "bold-green")
	assert.Equal(t, fc.StyleFor(-5.), "red")
	assert.Equal(t, fc.StyleFor(500.), "")
	// unit-suffixed strings coerce before the comparison
	assert.Equal(t, fc.StyleFor("2 500,00 €"), "bold-green")

	var missing *FieldConfig
	assert.Equal(t, missing.StyleFor(1500.), "")
}

func TestFormatPivot(t *testing.T) {
	e := New()
	lookup := func(field string) *FieldConfig {
		return &FieldConfig{Name: field, Type: FieldTypeNumber, Unit: "€",
			Formatting: []FormatRule{{Condition: FilterOpGt, Value: 200, Style: "hot"}}}
	}

	res := e.ComputePivot(pivotRows(), PivotConfig{
		RowFields: []string{"Region"},
		Metrics:   sumSales(),
		SortBy:    "label",
	})
	out := FormatPivot(res, PivotConfig{RowFields: []string{"Region"}, Metrics: sumSales()}, lookup)

	assert.Assert(t, out != nil)
	assert.Equal(t, len(out.Rows), 3)
	assert.Equal(t, out.Rows[0].Cells.Get("Total ventes"), "250,00 €")
	assert.Equal(t, out.Rows[0].Styles.Get("Total ventes"), "hot")
	assert.Equal(t, out.Rows[1].Cells.Get("Total ventes"), "200,00 €")
	assert.Assert(t, !out.Rows[1].Styles.Has("Total ventes"))
	assert.Equal(t, out.GrandTotal, "450,00 €")

	assert.Assert(t, FormatPivot(nil, PivotConfig{}, lookup) == nil)
}

func TestFormatPivotTotalCol(t *testing.T) {
	e := New()
	rows := []Row{
		{"Region": "North", "Year": "2024", "Sales": "10"},
		{"Region": "North", "Year": "2025", "Sales": "20"},
	}
	cfg := PivotConfig{
		RowFields:    []string{"Region"},
		ColField:     "Year",
		Metrics:      sumSales(),
		ShowTotalCol: true,
	}

	res := e.ComputePivot(rows, cfg)
	assert.Equal(t, res.DisplayRows[0].RowTotal, 30.)

	out := FormatPivot(res, cfg, nil)
	assert.Equal(t, out.Rows[0].RowTotal, "30,00")

	// hiding the total column is a display concern, raw results keep it
	cfg.ShowTotalCol = false
	out = FormatPivot(res, cfg, nil)
	assert.Equal(t, out.Rows[0].RowTotal, "")
	assert.Equal(t, res.DisplayRows[0].RowTotal, 30.)
}
