package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/tabulo/tabulo/pkg"
)

// DateParser is a lenient, memoizing date parser. It is called once per row
// per comparison pass, so string inputs are cached: repeated calls with an
// identical string return the identical *time.Time, which lets callers use
// pointer equality as a cache-hit signal. Failed parses are cached as nil.
//
// The cache is owned by the parser instance, not a package global, so
// independent engines (and tests) never share state. It grows unbounded
// within a session; at this data scale no eviction is needed.
type DateParser struct {
	cache pkg.Map[string, *time.Time]
}

func NewDateParser() *DateParser {
	return &DateParser{cache: pkg.Map[string, *time.Time]{}}
}

// Parse accepts ISO strings, DD/MM/YYYY (with MM/DD/YYYY fallback when the
// first part cannot be a month), epoch milliseconds, and time.Time values.
// Ambiguous slash dates where both parts are <= 12 default to DD/MM/YYYY;
// there is no way to recover the alternate reading from the data itself.
// Returns nil on anything unparseable.
func (p *DateParser) Parse(raw any) *time.Time {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		t := v
		return &t
	case *time.Time:
		return v
	case float64:
		t := time.UnixMilli(int64(v)).UTC()
		return &t
	case int:
		t := time.UnixMilli(int64(v)).UTC()
		return &t
	case int64:
		t := time.UnixMilli(v).UTC()
		return &t
	case string:
		if v == "" {
			return nil
		}
		if p.cache.Has(v) {
			return p.cache.Get(v)
		}
		t := parseDateString(v)
		p.cache.Set(v, t)
		return t
	}
	return nil
}

// Month returns the 1-based month of the parsed value, or 0 when parsing fails.
func (p *DateParser) Month(raw any) int {
	t := p.Parse(raw)
	if t == nil {
		return 0
	}
	return int(t.Month())
}

// CacheSize reports how many distinct string inputs have been memoized.
func (p *DateParser) CacheSize() int { return len(p.cache) }

func parseDateString(s string) *time.Time {
	s = strings.TrimSpace(s)

	if strings.Contains(s, "/") {
		return parseSlashDate(s)
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseSlashDate(s string) *time.Time {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return nil
	}

	a, err_a := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, err_b := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err_y := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err_a != nil || err_b != nil || err_y != nil {
		return nil
	}

	if year < 100 {
		year += 2000
	}

	// DD/MM/YYYY unless the first part cannot be a day's month position.
	// Both <= 12 is genuinely ambiguous; the French reading wins.
	day, month := a, b
	if a <= 12 && b > 12 {
		day, month = b, a
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		// time.Date normalizes overflow (32/01 -> 01/02); treat it as invalid
		return nil
	}
	return &t
}
