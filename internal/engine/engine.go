package engine

import (
	"fmt"

	"github.com/tabulo/tabulo/internal/coerce"
	"github.com/tabulo/tabulo/pkg"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Row is one imported record: field name -> scalar value. Fields are
// user-defined at runtime, so rows carry no static schema and two rows of
// the same batch may have different key sets.
type Row = pkg.Map[string, any]

// Engine computes pivots and temporal comparisons. It is a pure function of
// its inputs and safe to call repeatedly; the only mutable state it owns is
// the date-parse memo cache, which never changes observable results.
type Engine struct {
	Dates *coerce.DateParser

	coll *collate.Collator
}

func New() *Engine {
	return &Engine{
		Dates: coerce.NewDateParser(),
		coll:  collate.New(language.French),
	}
}

// CompareLabels orders display strings with French collation.
func (e *Engine) CompareLabels(a, b string) int { return e.coll.CompareString(a, b) }

type AggType string

const (
	AggCount    AggType = "count"
	AggSum      AggType = "sum"
	AggAvg      AggType = "avg"
	AggMin      AggType = "min"
	AggMax      AggType = "max"
	AggDistinct AggType = "distinct"
	AggList     AggType = "list"
)

// Metric pairs a value field with its aggregation.
type Metric struct {
	Field string  `json:"field"`
	Agg   AggType `json:"aggType"`
	Label string  `json:"label,omitempty"`
}

func (m Metric) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return fmt.Sprintf("%s(%s)", m.Agg, m.Field)
}
