package engine

import (
	"time"

	"github.com/tabulo/tabulo/pkg"
)

// PeriodWindow is an inclusive month window. Start > End wraps around the
// year boundary (11..2 = November through February).
type PeriodWindow struct {
	StartMonth int `json:"startMonth"`
	EndMonth   int `json:"endMonth"`
}

// FullYear reports whether the window selects the whole year, which by
// contract means "no temporal restriction" at all.
func (w PeriodWindow) FullYear() bool { return w.StartMonth == 1 && w.EndMonth == 12 }

func (w PeriodWindow) Contains(month int) bool {
	if w.StartMonth <= w.EndMonth {
		return month >= w.StartMonth && month <= w.EndMonth
	}
	return month >= w.StartMonth || month <= w.EndMonth
}

// FilterByPeriod keeps rows whose date field falls inside the month window.
// Rows with unparseable dates are excluded, except under the full-year
// window where every row passes regardless of date validity: full year
// means no temporal restriction at all.
func (e *Engine) FilterByPeriod(rows []Row, date_field string, window PeriodWindow) []Row {
	if window.FullYear() {
		return rows
	}
	return pkg.Filter(rows, func(row Row) bool {
		month := e.Dates.Month(row.Get(date_field))
		if month == 0 {
			return false
		}
		return window.Contains(month)
	})
}

// PeriodPreset resolves the named presets layered over the generic window.
func PeriodPreset(name string, now time.Time) (PeriodWindow, bool) {
	switch name {
	case "full_year", "year":
		return PeriodWindow{1, 12}, true
	case "ytd":
		return PeriodWindow{1, int(now.Month())}, true
	case "mtd":
		m := int(now.Month())
		return PeriodWindow{m, m}, true
	}
	return PeriodWindow{}, false
}
