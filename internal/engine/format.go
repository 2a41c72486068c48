package engine

import (
	"fmt"
	"strings"

	"github.com/tabulo/tabulo/internal/coerce"
	"github.com/tabulo/tabulo/pkg"
)

type FieldType string

const (
	FieldTypeNumber FieldType = "number"
	FieldTypeText   FieldType = "text"
	FieldTypeDate   FieldType = "date"
)

// FormatRule is one conditional-formatting rule: when the cell matches the
// condition, the renderer applies Style (an opaque token for the UI layer).
type FormatRule struct {
	Condition FilterOp `json:"condition"` // gt, lt, eq, contains
	Value     any      `json:"value"`
	Style     string   `json:"style"`
}

// FieldConfig describes one dataset field: its declared type, an optional
// display unit, and conditional formatting rules evaluated per cell.
type FieldConfig struct {
	Name       string       `json:"name"`
	Type       FieldType    `json:"type"`
	Unit       string       `json:"unit,omitempty"`
	Formatting []FormatRule `json:"conditionalFormatting,omitempty"`
}

// StyleFor evaluates the field's formatting rules against a cell value.
// First matching rule wins; empty string means no styling.
func (fc *FieldConfig) StyleFor(value any) string {
	if fc == nil {
		return ""
	}
	for _, rule := range fc.Formatting {
		if rule.matches(value, fc.Unit) {
			return rule.Style
		}
	}
	return ""
}

func (r FormatRule) matches(value any, unit string) bool {
	switch r.Condition {
	case FilterOpGt:
		return coerce.Number(value, unit) > coerce.Number(r.Value, "")
	case FilterOpLt:
		return coerce.Number(value, unit) < coerce.Number(r.Value, "")
	case FilterOpContains:
		return strings.Contains(
			strings.ToLower(cellString(value)), strings.ToLower(cellString(r.Value)))
	case FilterOpEq:
		return cellString(value) == cellString(r.Value)
	}
	return false
}

// French locale separators: no-break space between thousands groups, comma
// before decimals. These are an output contract, so they are fixed here
// rather than resolved through a CLDR table that may change underneath us.
const (
	group_sep   = " "
	decimal_sep = ","
)

// FormatNumber renders a float with French grouping and a fixed number of
// decimals: FormatNumber(1234.56, 2) == "1 234,56".
func FormatNumber(value float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, value)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	int_part, dec_part := s, ""
	if i := strings.Index(s, "."); i >= 0 {
		int_part, dec_part = s[:i], s[i+1:]
	}

	var groups []string
	for len(int_part) > 3 {
		groups = append([]string{int_part[len(int_part)-3:]}, groups...)
		int_part = int_part[:len(int_part)-3]
	}
	groups = append([]string{int_part}, groups...)

	out := strings.Join(groups, group_sep)
	if dec_part != "" {
		out += decimal_sep + dec_part
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatCurrency renders a monetary value with two decimals: "1 234,56".
func FormatCurrency(value float64) string {
	return FormatNumber(value, 2)
}

// FormatPercentage renders "12,5 %"; a trailing ",0" is dropped ("12 %").
func FormatPercentage(value float64) string {
	s := FormatNumber(value, 1)
	s = strings.TrimSuffix(s, decimal_sep+"0")
	return s + " %"
}

// FieldLookup resolves a field's config; the store composes one that checks
// the primary dataset first and falls back to joined secondary datasets.
type FieldLookup func(field string) *FieldConfig

// FormatValue renders a raw aggregate for display, applying the field's
// unit. Counts and other unitless aggregates format with no decimals.
func FormatValue(value any, m Metric, lookup FieldLookup) string {
	if s, ok := value.(string); ok {
		return s
	}
	v := coerce.Number(value, "")

	if m.Agg == AggCount || m.Agg == AggDistinct {
		return FormatNumber(v, 0)
	}

	var fc *FieldConfig
	if lookup != nil {
		fc = lookup(m.Field)
	}
	if fc == nil {
		return FormatNumber(v, 2)
	}
	out := FormatNumber(v, 2)
	if fc.Unit != "" {
		out += " " + fc.Unit
	}
	return out
}

// FormattedPivotRow mirrors PivotRow with render-ready strings and the
// style token of each cell's first matching formatting rule.
type FormattedPivotRow struct {
	Type     PivotRowType            `json:"type"`
	Keys     []string                `json:"keys"`
	Level    int                     `json:"level"`
	Cells    pkg.Map[string, string] `json:"cells"`
	Styles   pkg.Map[string, string] `json:"styles,omitempty"`
	RowTotal string                  `json:"rowTotal"`
}

type FormattedPivot struct {
	ColHeaders []string                `json:"colHeaders"`
	Rows       []FormattedPivotRow     `json:"rows"`
	ColTotals  pkg.Map[string, string] `json:"colTotals"`
	GrandTotal string                  `json:"grandTotal"`
}

// FormatPivot is the deferred output pass over a computed pivot: raw
// aggregates become display strings using the metric field's FieldConfig.
func FormatPivot(res *PivotResult, cfg PivotConfig, lookup FieldLookup) *FormattedPivot {
	if res == nil {
		return nil
	}
	primary := cfg.Metrics[0]

	var fc *FieldConfig
	if lookup != nil {
		fc = lookup(primary.Field)
	}

	out := &FormattedPivot{
		ColHeaders: res.ColHeaders,
		ColTotals:  pkg.Map[string, string]{},
		GrandTotal: FormatValue(res.GrandTotal, primary, lookup),
	}
	for key, v := range res.ColTotals {
		out.ColTotals.Set(key, FormatValue(v, metricForHeader(cfg, key), lookup))
	}

	for _, row := range res.DisplayRows {
		f := FormattedPivotRow{
			Type:   row.Type,
			Keys:   row.Keys,
			Level:  row.Level,
			Cells:  pkg.Map[string, string]{},
			Styles: pkg.Map[string, string]{},
		}
		if cfg.ShowTotalCol {
			f.RowTotal = FormatValue(row.RowTotal, primary, lookup)
		}
		for key, v := range row.Metrics {
			m := metricForHeader(cfg, key)
			f.Cells.Set(key, FormatValue(v, m, lookup))
			if style := fc.StyleFor(v); style != "" {
				f.Styles.Set(key, style)
			}
		}
		out.Rows = append(out.Rows, f)
	}
	return out
}

// metricForHeader maps a cell key back to its metric: with a column
// dimension every cell belongs to the first metric, otherwise the key is a
// metric label.
func metricForHeader(cfg PivotConfig, header string) Metric {
	if cfg.ColField != "" {
		return cfg.Metrics[0]
	}
	for _, m := range cfg.Metrics {
		if m.DisplayLabel() == header {
			return m
		}
	}
	return cfg.Metrics[0]
}
