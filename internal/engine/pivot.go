package engine

import (
	"sort"
	"strings"

	"github.com/tabulo/tabulo/pkg"
)

type PivotConfig struct {
	// RowFields is the ordered grouping hierarchy, outermost first.
	RowFields []string `json:"rowFields"`
	// ColField optionally cross-tabulates a column dimension.
	ColField string       `json:"colField,omitempty"`
	Metrics  []Metric     `json:"metrics"`
	Filters  []FilterRule `json:"filters,omitempty"`
	// Search restricts rows to those containing the term in any field.
	Search        string `json:"search,omitempty"`
	SortBy        string `json:"sortBy,omitempty"`    // "label" or "value"
	SortOrder     string `json:"sortOrder,omitempty"` // "asc" or "desc"
	ShowSubtotals bool   `json:"showSubtotals"`
	// ShowTotalCol includes the per-row total column in formatted output.
	// Raw results always carry RowTotal.
	ShowTotalCol bool `json:"showTotalCol"`
}

type PivotRowType string

const (
	PivotRowData       PivotRowType = "data"
	PivotRowSubtotal   PivotRowType = "subtotal"
	PivotRowGrandTotal PivotRowType = "grandTotal"
)

// PivotRow is one output line. Data rows carry the full key path
// (len == len(RowFields), Level == len-1); subtotal rows close the group at
// their level (len(Keys) == Level+1). Cells are float64, or string for list
// aggregations.
type PivotRow struct {
	Type    PivotRowType         `json:"type"`
	Keys    []string             `json:"keys"`
	Level   int                  `json:"level"`
	Metrics pkg.Map[string, any] `json:"metrics"`
	// RowTotal is the aggregate over the whole group, computed from its
	// rows rather than by folding the cells.
	RowTotal any `json:"rowTotal"`
}

type PivotResult struct {
	ColHeaders  []string             `json:"colHeaders"`
	DisplayRows []PivotRow           `json:"displayRows"`
	ColTotals   pkg.Map[string, any] `json:"colTotals"`
	GrandTotal  any                  `json:"grandTotal"`
}

// ComputePivot runs the full pivot pipeline: filter, cross-tab column
// discovery, recursive grouping with children-before-subtotal emission, and
// independently computed grand totals. Returns nil when no row fields are
// configured; the caller renders an empty state.
func (e *Engine) ComputePivot(rows []Row, cfg PivotConfig) *PivotResult {
	if len(cfg.RowFields) == 0 || len(cfg.Metrics) == 0 {
		return nil
	}

	rows = ApplyFilters(rows, cfg.Filters)
	if cfg.Search != "" {
		rows = SearchRows(rows, cfg.Search)
	}

	var col_values []string
	if cfg.ColField != "" {
		col_values = e.distinctColumnValues(rows, cfg.ColField)
	}

	res := &PivotResult{
		ColHeaders: pivotHeaders(cfg, col_values),
		ColTotals:  pkg.Map[string, any]{},
	}
	e.emitPivotLevel(res, rows, cfg, col_values, 0, nil)

	// grand totals come from the fully filtered row set, never from summing
	// displayed rows: avoids float drift and subtotal-visibility coupling
	cells, total := e.pivotCells(rows, cfg, col_values)
	res.ColTotals = cells
	res.GrandTotal = total
	res.DisplayRows = append(res.DisplayRows, PivotRow{
		Type:     PivotRowGrandTotal,
		Keys:     []string{},
		Level:    0,
		Metrics:  cells,
		RowTotal: total,
	})

	return res
}

func (e *Engine) distinctColumnValues(rows []Row, field string) []string {
	seen := pkg.Map[string, bool]{}
	values := []string{}
	for _, row := range rows {
		v := groupValue(row, field, PlaceholderPivot)
		if !seen.Has(v) {
			seen.Set(v, true)
			values = append(values, v)
		}
	}
	sort.Slice(values, func(i, j int) bool {
		return e.CompareLabels(values[i], values[j]) < 0
	})
	return values
}

// pivotHeaders lists the cell keys in display order. With a column
// dimension, one column per distinct value, aggregating the first metric;
// otherwise one column per metric, keyed by its label.
func pivotHeaders(cfg PivotConfig, col_values []string) []string {
	if cfg.ColField != "" {
		return col_values
	}
	headers := make([]string, len(cfg.Metrics))
	for i, m := range cfg.Metrics {
		headers[i] = m.DisplayLabel()
	}
	return headers
}

// pivotCells computes every cell and the row total for one group's rows.
func (e *Engine) pivotCells(rows []Row, cfg PivotConfig, col_values []string) (pkg.Map[string, any], any) {
	cells := pkg.Map[string, any]{}
	primary := cfg.Metrics[0]

	if cfg.ColField != "" {
		buckets, _ := PartitionRows(rows, []string{cfg.ColField}, PlaceholderPivot)
		for _, col := range col_values {
			if buckets.Has(col) {
				cells.Set(col, AggregateCell(buckets.Get(col), primary))
			} else if primary.Agg == AggList {
				cells.Set(col, "-")
			} else {
				cells.Set(col, 0.)
			}
		}
	} else {
		for _, m := range cfg.Metrics {
			cells.Set(m.DisplayLabel(), AggregateCell(rows, m))
		}
	}

	return cells, AggregateCell(rows, primary)
}

// emitPivotLevel recursively partitions rows on the level's field, sorts the
// partitions, and emits output rows depth-first. Children are emitted before
// the subtotal that closes their group.
func (e *Engine) emitPivotLevel(res *PivotResult, rows []Row, cfg PivotConfig, col_values []string, level int, path []string) {
	field := cfg.RowFields[level]
	buckets, _ := PartitionRows(rows, []string{field}, PlaceholderPivot)
	keys := e.sortPivotKeys(buckets, cfg)

	last_level := level == len(cfg.RowFields)-1
	for _, key := range keys {
		group_rows := buckets.Get(key)
		key_path := append(append([]string{}, path...), key)

		if last_level {
			cells, total := e.pivotCells(group_rows, cfg, col_values)
			res.DisplayRows = append(res.DisplayRows, PivotRow{
				Type:     PivotRowData,
				Keys:     key_path,
				Level:    level,
				Metrics:  cells,
				RowTotal: total,
			})
			continue
		}

		e.emitPivotLevel(res, group_rows, cfg, col_values, level+1, key_path)

		if cfg.ShowSubtotals {
			cells, total := e.pivotCells(group_rows, cfg, col_values)
			res.DisplayRows = append(res.DisplayRows, PivotRow{
				Type:     PivotRowSubtotal,
				Keys:     key_path,
				Level:    level,
				Metrics:  cells,
				RowTotal: total,
			})
		}
	}
}

// sortPivotKeys orders one level's partition keys. Label sort uses locale
// collation; value sort compares each group's aggregate total of the first
// metric. Sorting by value over a list aggregation compares 0s and keeps
// input order.
func (e *Engine) sortPivotKeys(buckets *pkg.InsertSortMap[string, []Row], cfg PivotConfig) []string {
	keys := append([]string{}, buckets.Sorted...)
	desc := strings.EqualFold(cfg.SortOrder, "desc")

	if cfg.SortBy == "value" {
		primary := cfg.Metrics[0]
		totals := pkg.Map[string, float64]{}
		for _, key := range keys {
			totals.Set(key, AggregateValue(buckets.Get(key), primary.Field, primary.Agg))
		}
		sort.SliceStable(keys, func(i, j int) bool {
			if desc {
				return totals.Get(keys[i]) > totals.Get(keys[j])
			}
			return totals.Get(keys[i]) < totals.Get(keys[j])
		})
		return keys
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if desc {
			return e.CompareLabels(keys[i], keys[j]) > 0
		}
		return e.CompareLabels(keys[i], keys[j]) < 0
	})
	return keys
}
