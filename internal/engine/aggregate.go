package engine

import (
	"fmt"
	"strings"

	"github.com/tabulo/tabulo/internal/coerce"
	"github.com/tabulo/tabulo/pkg"
)

// GroupResult is one group's aggregate. Rows are retained so composed passes
// (cross-tabs, nested levels, per-metric reaggregation) don't regroup.
type GroupResult struct {
	Label string
	Value float64
	Count int
	// List is only set for AggList
	List string
	Rows []Row
}

// AggregateByGroup groups rows by the ordered field list and aggregates
// value_field into each group. Keys join with GroupKeySep, labels with
// LabelSep. Missing values render as the given placeholder. Group order is
// first-seen row order; callers sort afterwards.
func AggregateByGroup(rows []Row, group_by []string, value_field string, agg AggType, placeholder string) *pkg.InsertSortMap[string, *GroupResult] {
	buckets, labels := PartitionRows(rows, group_by, placeholder)

	res := pkg.NewInsertSortMap[string, *GroupResult]()
	for _, key := range buckets.Sorted {
		group_rows := buckets.Get(key)
		r := &GroupResult{
			Label: labels.Get(key),
			Count: len(group_rows),
			Value: AggregateValue(group_rows, value_field, agg),
			Rows:  group_rows,
		}
		if agg == AggList {
			r.List = AggregateList(group_rows, value_field)
		}
		res.Push(key, r)
	}
	return res
}

// PartitionRows buckets rows by the joined group-by key, preserving
// first-seen order. The second return maps each key to its display label
// (same fields joined with LabelSep instead of GroupKeySep).
func PartitionRows(rows []Row, group_by []string, placeholder string) (*pkg.InsertSortMap[string, []Row], pkg.Map[string, string]) {
	buckets := pkg.NewInsertSortMap[string, []Row]()
	labels := pkg.Map[string, string]{}
	parts := make([]string, len(group_by))
	for _, row := range rows {
		for i, field := range group_by {
			parts[i] = groupValue(row, field, placeholder)
		}
		key := strings.Join(parts, GroupKeySep)
		if !buckets.Has(key) {
			labels.Set(key, strings.Join(parts, LabelSep))
		}
		buckets.Push(key, append(buckets.Get(key), row))
	}
	return buckets, labels
}

// AggregateValue reduces rows to a single number. min/max seed from the
// first coerced value rather than +-Inf, so single-element groups are
// well-defined. AggList has no numeric order and yields 0.
func AggregateValue(rows []Row, field string, agg AggType) float64 {
	switch agg {
	case AggCount:
		return float64(len(rows))
	case AggSum:
		var total float64
		for _, row := range rows {
			total += coerce.Number(row.Get(field), "")
		}
		return total
	case AggAvg:
		if len(rows) == 0 {
			return 0
		}
		return AggregateValue(rows, field, AggSum) / float64(len(rows))
	case AggMin:
		var min float64
		for i, row := range rows {
			v := coerce.Number(row.Get(field), "")
			if i == 0 || v < min {
				min = v
			}
		}
		return min
	case AggMax:
		var max float64
		for i, row := range rows {
			v := coerce.Number(row.Get(field), "")
			if i == 0 || v > max {
				max = v
			}
		}
		return max
	case AggDistinct:
		seen := pkg.Map[string, bool]{}
		for _, row := range rows {
			seen.Set(cellString(row.Get(field)), true)
		}
		return float64(len(seen))
	case AggList:
		return 0
	}
	return AggregateValue(rows, field, AggSum)
}

const list_agg_max = 3

// AggregateList joins up to 3 distinct non-empty values with ", ",
// suffixed with "(+N)" when more exist. Empty result renders "-".
func AggregateList(rows []Row, field string) string {
	seen := pkg.Map[string, bool]{}
	values := []string{}
	for _, row := range rows {
		s := strings.TrimSpace(cellString(row.Get(field)))
		if s == "" || seen.Has(s) {
			continue
		}
		seen.Set(s, true)
		values = append(values, s)
	}

	if len(values) == 0 {
		return "-"
	}
	if len(values) > list_agg_max {
		return fmt.Sprintf("%s (+%d)",
			strings.Join(values[:list_agg_max], ", "), len(values)-list_agg_max)
	}
	return strings.Join(values, ", ")
}

// AggregateCell is the value a pivot/comparison cell carries: the list
// string for AggList, the numeric aggregate otherwise.
func AggregateCell(rows []Row, m Metric) any {
	if m.Agg == AggList {
		return AggregateList(rows, m.Field)
	}
	return AggregateValue(rows, m.Field, m.Agg)
}
