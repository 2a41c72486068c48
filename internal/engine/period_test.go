package engine_test

import (
	"testing"
	"time"

	. "github.com/tabulo/tabulo/internal/engine"
	"gotest.tools/assert"
)

func datedRows() []Row {
	return []Row{
		{"name": "Jan", "date": "15/01/2025"},
		{"name": "Jun", "date": "2025-06-10"},
		{"name": "Dec", "date": "01/12/2025"},
		{"name": "Null", "date": nil},
		{"name": "Invalid", "date": "not a date"},
	}
}

func TestFilterByPeriod(t *testing.T) {
	e := New()

	t.Run("full year keeps every row including invalid dates", func(t *testing.T) {
		res := e.FilterByPeriod(datedRows(), "date", PeriodWindow{1, 12})
		assert.Equal(t, len(res), 5)
	})

	t.Run("partial window drops invalid dates", func(t *testing.T) {
		res := e.FilterByPeriod(datedRows(), "date", PeriodWindow{1, 6})
		assert.Equal(t, len(res), 2)
		assert.Equal(t, res[0].Get("name"), "Jan")
		assert.Equal(t, res[1].Get("name"), "Jun")
	})

	t.Run("wraparound window", func(t *testing.T) {
		res := e.FilterByPeriod(datedRows(), "date", PeriodWindow{11, 2})
		assert.Equal(t, len(res), 2)
		assert.Equal(t, res[0].Get("name"), "Jan")
		assert.Equal(t, res[1].Get("name"), "Dec")
	})

	t.Run("single month", func(t *testing.T) {
		res := e.FilterByPeriod(datedRows(), "date", PeriodWindow{6, 6})
		assert.Equal(t, len(res), 1)
		assert.Equal(t, res[0].Get("name"), "Jun")
	})
}

func TestPeriodPreset(t *testing.T) {
	now := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	w, ok := PeriodPreset("ytd", now)
	assert.Assert(t, ok)
	assert.Equal(t, w, PeriodWindow{1, 4})

	w, ok = PeriodPreset("mtd", now)
	assert.Assert(t, ok)
	assert.Equal(t, w, PeriodWindow{4, 4})

	w, ok = PeriodPreset("full_year", now)
	assert.Assert(t, ok)
	assert.Assert(t, w.FullYear())

	_, ok = PeriodPreset("nope", now)
	assert.Assert(t, !ok)
}

func TestFilterRules(t *testing.T) {
	rows := []Row{
		{"fruit": "Apple", "qty": 10.},
		{"fruit": "Banana", "qty": 25.},
		{"fruit": "apricot", "qty": 3.},
	}

	t.Run("eq", func(t *testing.T) {
		res := ApplyFilters(rows, []FilterRule{{Field: "fruit", Op: FilterOpEq, Value: "Apple"}})
		assert.Equal(t, len(res), 1)
	})

	t.Run("in", func(t *testing.T) {
		res := ApplyFilters(rows, []FilterRule{{Field: "fruit", Op: FilterOpIn, Values: []string{"Apple", "Banana"}}})
		assert.Equal(t, len(res), 2)
	})

	t.Run("contains is case-insensitive", func(t *testing.T) {
		res := ApplyFilters(rows, []FilterRule{{Field: "fruit", Op: FilterOpContains, Value: "AP"}})
		assert.Equal(t, len(res), 2)
	})

	t.Run("starts_with", func(t *testing.T) {
		res := ApplyFilters(rows, []FilterRule{{Field: "fruit", Op: FilterOpStartsWith, Value: "ap"}})
		assert.Equal(t, len(res), 2)
	})

	t.Run("gt and lt coerce", func(t *testing.T) {
		res := ApplyFilters(rows, []FilterRule{{Field: "qty", Op: FilterOpGt, Value: 5}})
		assert.Equal(t, len(res), 2)
		res = ApplyFilters(rows, []FilterRule{{Field: "qty", Op: FilterOpLt, Value: "5"}})
		assert.Equal(t, len(res), 1)
	})

	t.Run("placeholder equality matches missing values", func(t *testing.T) {
		with_gap := append(rows, Row{"qty": 1.})
		res := ApplyFilters(with_gap, []FilterRule{{Field: "fruit", Op: FilterOpEq, Value: "(Vide)"}})
		assert.Equal(t, len(res), 1)
		res = ApplyFilters(with_gap, []FilterRule{{Field: "fruit", Op: FilterOpEq, Value: ""}})
		assert.Equal(t, len(res), 1)
	})
}

func TestSearchRows(t *testing.T) {
	rows := []Row{
		{"Region": "North", "Sales": "100"},
		{"Region": "South", "Sales": "200"},
		{"Region": "North", "Sales": "150"},
	}

	res := SearchRows(rows, "north")
	assert.Equal(t, len(res), 2)

	res = SearchRows(rows, "200")
	assert.Equal(t, len(res), 1)

	assert.Equal(t, len(SearchRows(rows, "")), 3)
}
