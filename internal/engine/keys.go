package engine

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// GroupKeySep joins group fields into internal map keys. Never shown to users.
	GroupKeySep = "|"

	// LabelSep joins group fields into display labels. The Unit Separator
	// control character cannot occur in user data, unlike "|" or ",",
	// so multi-field labels can be split back apart without collisions.
	LabelSep = "\x1F"

	// PlaceholderPivot and PlaceholderTemporal render missing field values.
	// The two spellings come from two historically independent call sites;
	// drill-down reverses either back to the empty string.
	PlaceholderPivot    = "(Vide)"
	PlaceholderTemporal = "(vide)"

	// ReservedFieldPrefix marks internal row fields (row ids, batch pins)
	// that must never surface in search or display.
	ReservedFieldPrefix = "__tabulo_"

	// RowIdField holds a row's stable id within its batch.
	RowIdField = ReservedFieldPrefix + "row__"
)

// cellString renders a raw cell value for grouping and comparison.
func cellString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(raw)
}

// groupValue renders a field for use in a group key or label, substituting
// the placeholder for missing/empty values.
func groupValue(row Row, field, placeholder string) string {
	s := strings.TrimSpace(cellString(row.Get(field)))
	if s == "" {
		return placeholder
	}
	return s
}

func isPlaceholder(v string) bool {
	return v == PlaceholderPivot || v == PlaceholderTemporal
}
