package engine

import (
	"strings"

	"github.com/tabulo/tabulo/internal/coerce"
	"github.com/tabulo/tabulo/pkg"
)

type FilterOp string

const (
	FilterOpEq         FilterOp = "eq"
	FilterOpIn         FilterOp = "in"
	FilterOpContains   FilterOp = "contains"
	FilterOpStartsWith FilterOp = "starts_with"
	FilterOpGt         FilterOp = "gt"
	FilterOpLt         FilterOp = "lt"
)

// FilterRule restricts rows before aggregation. Values for "in" go in
// Values; everything else compares against Value.
type FilterRule struct {
	Field  string   `json:"field"`
	Op     FilterOp `json:"op"`
	Value  any      `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

func (r FilterRule) Match(row Row) bool {
	raw := row.Get(r.Field)
	cell := strings.TrimSpace(cellString(raw))

	switch r.Op {
	case FilterOpIn:
		for _, want := range r.Values {
			if cell == want {
				return true
			}
		}
		return false
	case FilterOpContains:
		return strings.Contains(strings.ToLower(cell), strings.ToLower(cellString(r.Value)))
	case FilterOpStartsWith:
		return strings.HasPrefix(strings.ToLower(cell), strings.ToLower(cellString(r.Value)))
	case FilterOpGt:
		return coerce.Number(raw, "") > coerce.Number(r.Value, "")
	case FilterOpLt:
		return coerce.Number(raw, "") < coerce.Number(r.Value, "")
	}

	// equality: drill-down substitutes placeholders back to "", which
	// matches missing/empty cells here
	want := strings.TrimSpace(cellString(r.Value))
	if isPlaceholder(want) {
		want = ""
	}
	return cell == want
}

// ApplyFilters keeps rows matching every rule.
func ApplyFilters(rows []Row, rules []FilterRule) []Row {
	for _, rule := range rules {
		rows = pkg.Filter(rows, rule.Match)
	}
	return rows
}

// SearchRows keeps rows where any field contains the term, case-insensitive.
func SearchRows(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	return pkg.Filter(rows, func(row Row) bool {
		for field, raw := range row {
			if strings.HasPrefix(field, ReservedFieldPrefix) {
				continue
			}
			if strings.Contains(strings.ToLower(cellString(raw)), term) {
				return true
			}
		}
		return false
	})
}
