package engine

import (
	"strings"

	"github.com/tabulo/tabulo/pkg"
)

// BatchField is the reserved filter key that pins drill-down to the batch a
// cell was computed from, so drill-down never leaks cross-batch rows.
const BatchField = ReservedFieldPrefix + "batch__"

// BuildDrilldownFilters reconstructs the equality-filter set selecting the
// rows behind a clicked cell. Pure function of its inputs: the UI layer
// calls it per click without recomputing the pivot. Placeholders (either
// spelling) map back to the empty string so missing-value groups round-trip.
func BuildDrilldownFilters(row_fields, row_keys []string, col_field, col_key string, existing pkg.Map[string, string], batch_id string) pkg.Map[string, string] {
	filters := pkg.Map[string, string]{}
	for field, value := range existing {
		filters.Set(field, value)
	}

	for i, field := range row_fields {
		if i >= len(row_keys) {
			// subtotal cells carry a truncated key path; only the
			// covered levels constrain the drill-down
			break
		}
		filters.Set(field, reversePlaceholder(row_keys[i]))
	}

	if col_field != "" && col_key != "" {
		filters.Set(col_field, reversePlaceholder(col_key))
	}

	if batch_id != "" {
		filters.Set(BatchField, batch_id)
	}

	return filters
}

// DrilldownKey serializes a row path + column label into a stable address
// for a cell, suitable as a map key or route fragment.
func DrilldownKey(row_keys []string, col_key string) string {
	parts := append(append([]string{}, row_keys...), col_key)
	return strings.Join(parts, LabelSep)
}

// DrilldownRules converts a drill-down filter map into engine filter rules,
// dropping the reserved batch key (resolved by the caller to a row source).
func DrilldownRules(filters pkg.Map[string, string]) []FilterRule {
	rules := []FilterRule{}
	for field, value := range filters {
		if field == BatchField {
			continue
		}
		rules = append(rules, FilterRule{Field: field, Op: FilterOpEq, Value: value})
	}
	return rules
}

func reversePlaceholder(v string) string {
	if isPlaceholder(v) {
		return ""
	}
	return v
}
