package engine

import (
	"sort"
	"strings"

	"github.com/tabulo/tabulo/pkg"
)

// TemporalSource is one dated snapshot participating in a comparison.
type TemporalSource struct {
	Id         string `json:"id"`
	DatasetId  string `json:"datasetId"`
	BatchId    string `json:"batchId"`
	Label      string `json:"label"`
	ImportDate string `json:"importDate"`
	Year       int    `json:"year,omitempty"`
}

type TemporalConfig struct {
	Sources []TemporalSource `json:"sources"`
	// ReferenceSourceId designates the baseline all deltas compare against.
	ReferenceSourceId string       `json:"referenceSourceId"`
	Period            PeriodWindow `json:"periodFilter"`
	GroupByFields     []string     `json:"groupByFields"`
	Metrics           []Metric     `json:"metrics"`
}

type Delta struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// ComparisonRow is one group across every source. Values maps
// sourceId -> metricLabel -> aggregate; Deltas maps sourceId -> delta of the
// first metric against the reference source.
type ComparisonRow struct {
	GroupKey   string                                   `json:"groupKey"`
	GroupLabel string                                   `json:"groupLabel"`
	Values     pkg.Map[string, pkg.Map[string, float64]] `json:"values"`
	Deltas     pkg.Map[string, Delta]                    `json:"deltas"`

	IsSubtotal    bool `json:"isSubtotal,omitempty"`
	SubtotalLevel int  `json:"subtotalLevel,omitempty"`
}

type ComparisonResult struct {
	Results []ComparisonRow `json:"results"`

	// DeltaTotals is the sum of per-group deltas per source and metric.
	// For non-additive aggregations this is intentionally NOT equal to
	// ColTotals[source] - ColTotals[reference]; both are correct and answer
	// different questions.
	DeltaTotals pkg.Map[string, pkg.Map[string, float64]] `json:"deltaTotals"`
	// ColTotals aggregates each source's entire filtered row set, never a
	// sum of its per-group values (matters for min/max/distinct).
	ColTotals   pkg.Map[string, pkg.Map[string, float64]] `json:"colTotals"`
}

// CalculateComparison runs the temporal comparison: each source is period-
// filtered and aggregated independently, group keys are unioned across
// sources (a group absent from a source shows 0 there), deltas are computed
// against the reference source, and hierarchical subtotals are interleaved
// on request. Results sort by group label with locale collation.
func (e *Engine) CalculateComparison(source_data pkg.Map[string, []Row], cfg TemporalConfig, date_column string, show_subtotals bool) *ComparisonResult {
	res := &ComparisonResult{
		Results:     []ComparisonRow{},
		DeltaTotals: pkg.Map[string, pkg.Map[string, float64]]{},
		ColTotals:   pkg.Map[string, pkg.Map[string, float64]]{},
	}

	// group union across sources; a source absent from source_data simply
	// contributes nothing
	per_source := pkg.Map[string, *pkg.InsertSortMap[string, []Row]]{}
	union := pkg.NewInsertSortMap[string, string]()

	for _, src := range cfg.Sources {
		rows := e.FilterByPeriod(source_data.Get(src.Id), date_column, cfg.Period)
		buckets, labels := PartitionRows(rows, cfg.GroupByFields, PlaceholderTemporal)
		per_source.Set(src.Id, buckets)
		for _, key := range buckets.Sorted {
			if !union.Has(key) {
				union.Push(key, labels.Get(key))
			}
		}

		col := pkg.Map[string, float64]{}
		for _, m := range cfg.Metrics {
			col.Set(m.DisplayLabel(), AggregateValue(rows, m.Field, m.Agg))
		}
		res.ColTotals.Set(src.Id, col)

		totals := pkg.Map[string, float64]{}
		for _, m := range cfg.Metrics {
			totals.Set(m.DisplayLabel(), 0)
		}
		res.DeltaTotals.Set(src.Id, totals)
	}

	keys := append([]string{}, union.Sorted...)
	sort.SliceStable(keys, func(i, j int) bool {
		return e.CompareLabels(union.Get(keys[i]), union.Get(keys[j])) < 0
	})

	for _, key := range keys {
		row := ComparisonRow{
			GroupKey:   key,
			GroupLabel: union.Get(key),
			Values:     pkg.Map[string, pkg.Map[string, float64]]{},
			Deltas:     pkg.Map[string, Delta]{},
		}

		for _, src := range cfg.Sources {
			vals := pkg.Map[string, float64]{}
			buckets := per_source.Get(src.Id)
			for _, m := range cfg.Metrics {
				if buckets != nil && buckets.Has(key) {
					vals.Set(m.DisplayLabel(), AggregateValue(buckets.Get(key), m.Field, m.Agg))
				} else {
					vals.Set(m.DisplayLabel(), 0)
				}
			}
			row.Values.Set(src.Id, vals)
		}

		e.fillDeltas(&row, cfg, res.DeltaTotals)
		res.Results = append(res.Results, row)
	}

	if show_subtotals && len(cfg.GroupByFields) > 1 {
		res.Results = e.interleaveSubtotals(res.Results, cfg)
	}

	return res
}

// fillDeltas sets each source's delta against the reference (always {0,0}
// for the reference itself) and accumulates the per-metric footer totals.
func (e *Engine) fillDeltas(row *ComparisonRow, cfg TemporalConfig, delta_totals pkg.Map[string, pkg.Map[string, float64]]) {
	ref_vals := row.Values.Get(cfg.ReferenceSourceId)

	for _, src := range cfg.Sources {
		if src.Id == cfg.ReferenceSourceId || len(cfg.Metrics) == 0 {
			row.Deltas.Set(src.Id, Delta{})
			continue
		}

		vals := row.Values.Get(src.Id)
		first := cfg.Metrics[0].DisplayLabel()
		row.Deltas.Set(src.Id, computeDelta(vals.Get(first), refValue(ref_vals, first)))

		totals := delta_totals.Get(src.Id)
		for _, m := range cfg.Metrics {
			label := m.DisplayLabel()
			totals.Set(label, totals.Get(label)+vals.Get(label)-refValue(ref_vals, label))
		}
	}
}

func refValue(ref_vals pkg.Map[string, float64], label string) float64 {
	if ref_vals == nil {
		return 0
	}
	return ref_vals.Get(label)
}

func computeDelta(value, reference float64) Delta {
	d := Delta{Value: value - reference}
	switch {
	case reference != 0:
		d.Percentage = d.Value / reference * 100
	case value != 0:
		d.Percentage = 100
	}
	return d
}

// interleaveSubtotals inserts one subtotal row per unique group prefix,
// immediately before the first descendant that introduces the prefix.
// Subtotal values are sums of the matching descendants' per-group values,
// computed once per prefix.
func (e *Engine) interleaveSubtotals(results []ComparisonRow, cfg TemporalConfig) []ComparisonRow {
	out := make([]ComparisonRow, 0, len(results))
	emitted := pkg.Map[string, bool]{}

	for _, row := range results {
		key_parts := strings.Split(row.GroupKey, GroupKeySep)
		label_parts := strings.Split(row.GroupLabel, LabelSep)

		for depth := 1; depth < len(key_parts); depth++ {
			prefix_key := strings.Join(key_parts[:depth], GroupKeySep)
			if emitted.Has(prefix_key) {
				continue
			}
			emitted.Set(prefix_key, true)
			out = append(out, e.buildSubtotal(results, cfg, prefix_key,
				strings.Join(label_parts[:depth], LabelSep), depth))
		}

		out = append(out, row)
	}

	return out
}

func (e *Engine) buildSubtotal(results []ComparisonRow, cfg TemporalConfig, prefix_key, prefix_label string, depth int) ComparisonRow {
	sub := ComparisonRow{
		GroupKey:      prefix_key,
		GroupLabel:    prefix_label,
		Values:        pkg.Map[string, pkg.Map[string, float64]]{},
		Deltas:        pkg.Map[string, Delta]{},
		IsSubtotal:    true,
		SubtotalLevel: depth - 1,
	}

	for _, src := range cfg.Sources {
		vals := pkg.Map[string, float64]{}
		for _, m := range cfg.Metrics {
			vals.Set(m.DisplayLabel(), 0)
		}
		sub.Values.Set(src.Id, vals)
	}

	descendant_prefix := prefix_key + GroupKeySep
	for _, row := range results {
		if !strings.HasPrefix(row.GroupKey, descendant_prefix) {
			continue
		}
		for _, src := range cfg.Sources {
			vals := sub.Values.Get(src.Id)
			row_vals := row.Values.Get(src.Id)
			for _, m := range cfg.Metrics {
				label := m.DisplayLabel()
				vals.Set(label, vals.Get(label)+row_vals.Get(label))
			}
		}
	}

	ref_vals := sub.Values.Get(cfg.ReferenceSourceId)
	for _, src := range cfg.Sources {
		if src.Id == cfg.ReferenceSourceId || len(cfg.Metrics) == 0 {
			sub.Deltas.Set(src.Id, Delta{})
			continue
		}
		first := cfg.Metrics[0].DisplayLabel()
		sub.Deltas.Set(src.Id, computeDelta(sub.Values.Get(src.Id).Get(first), refValue(ref_vals, first)))
	}

	return sub
}
