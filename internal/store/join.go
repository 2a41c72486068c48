package store

import (
	"fmt"
	"strings"

	"github.com/tabulo/tabulo/internal/engine"
	"github.com/tabulo/tabulo/pkg"
)

func joinKey(raw any) string {
	if raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(raw)
}

// JoinRows enriches primary rows with the columns of the matching secondary
// row. A left lookup: primaries without a match pass through untouched, and
// when several secondary rows share a key the last one wins. Primary columns
// are never overwritten, internal fields never cross over.
func JoinRows(primary, secondary []engine.Row, spec *JoinSpec) []engine.Row {
	if spec == nil || spec.PrimaryKey == "" || spec.SecondaryKey == "" {
		return primary
	}

	index := pkg.Map[string, engine.Row]{}
	for _, row := range secondary {
		key := joinKey(row.Get(spec.SecondaryKey))
		if key == "" {
			continue
		}
		index.Set(key, row)
	}

	out := make([]engine.Row, 0, len(primary))
	for _, row := range primary {
		match, ok := index[joinKey(row.Get(spec.PrimaryKey))]
		if !ok {
			out = append(out, row)
			continue
		}

		merged := engine.Row{}
		for field, value := range row {
			merged.Set(field, value)
		}
		for field, value := range match {
			if strings.HasPrefix(field, engine.ReservedFieldPrefix) || merged.Has(field) {
				continue
			}
			merged.Set(field, value)
		}
		out = append(out, merged)
	}
	return out
}
