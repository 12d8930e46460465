package history

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/sadopc/flowtime/internal/store"
)

type Filter string

const (
	FilterToday Filter = "today"
	FilterWeek  Filter = "week"
	FilterAll   Filter = "all"
)

var Filters = []Filter{FilterToday, FilterWeek, FilterAll}

// ParseFilter falls back to FilterToday, the default view.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterWeek:
		return FilterWeek
	case FilterAll:
		return FilterAll
	}
	return FilterToday
}

// Range returns the half-open [from, to) window a filter covers around now.
// FilterAll has no window and reports ok=false.
func Range(f Filter, now time.Time, weekStart time.Weekday) (from, to time.Time, ok bool) {
	switch f {
	case FilterToday:
		from = StartOfDay(now)
		return from, from.AddDate(0, 0, 1), true
	case FilterWeek:
		return StartOfWeek(now, weekStart), EndOfWeek(now, weekStart), true
	}
	return time.Time{}, time.Time{}, false
}

// Apply keeps the entries completed inside the filter's window. Order is
// preserved.
func Apply(entries []store.Entry, f Filter, now time.Time, weekStart time.Weekday) []store.Entry {
	from, to, ok := Range(f, now, weekStart)
	out := make([]store.Entry, 0, len(entries))
	for _, e := range entries {
		if ok && (e.CompletedAtMs < from.UnixMilli() || e.CompletedAtMs >= to.UnixMilli()) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func TotalTracked(entries []store.Entry) int64 {
	var total int64
	for _, e := range entries {
		if e.TrackedMs > 0 {
			total += e.TrackedMs
		}
	}
	return total
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	diff := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return StartOfDay(t).AddDate(0, 0, -diff)
}

func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	return StartOfWeek(t, weekStart).AddDate(0, 0, 7)
}

// Regions whose calendars start the week on a day other than Monday (CLDR
// weekData).
var (
	sundayFirst = map[string]bool{
		"AG": true, "AS": true, "BD": true, "BR": true, "BS": true, "BT": true,
		"BW": true, "BZ": true, "CA": true, "CN": true, "CO": true, "DM": true,
		"DO": true, "ET": true, "GT": true, "GU": true, "HK": true, "HN": true,
		"ID": true, "IL": true, "IN": true, "JM": true, "JP": true, "KE": true,
		"KH": true, "KR": true, "LA": true, "MH": true, "MM": true, "MO": true,
		"MT": true, "MX": true, "MZ": true, "NI": true, "NP": true, "PA": true,
		"PE": true, "PH": true, "PK": true, "PR": true, "PT": true, "PY": true,
		"SA": true, "SG": true, "SV": true, "TH": true, "TT": true, "TW": true,
		"UM": true, "US": true, "VE": true, "VI": true, "WS": true, "YE": true,
		"ZA": true, "ZW": true,
	}
	saturdayFirst = map[string]bool{
		"AE": true, "AF": true, "BH": true, "DJ": true, "DZ": true, "EG": true,
		"IQ": true, "IR": true, "JO": true, "KW": true, "LY": true, "OM": true,
		"QA": true, "SD": true, "SY": true,
	}
)

// WeekStart resolves the first day of the week for a BCP 47 locale. The
// region is inferred when the tag has none ("de" → DE, "en" → US). Tags that
// do not parse fall back to Monday for German and Sunday otherwise.
func WeekStart(locale string) time.Weekday {
	if locale == "" {
		locale = "en-US"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fallbackWeekStart(locale)
	}
	region, conf := tag.Region()
	if conf == language.No {
		return fallbackWeekStart(locale)
	}
	code := region.String()
	switch {
	case sundayFirst[code]:
		return time.Sunday
	case saturdayFirst[code]:
		return time.Saturday
	case code == "MV":
		return time.Friday
	}
	return time.Monday
}

func fallbackWeekStart(locale string) time.Weekday {
	if strings.HasPrefix(strings.ToLower(locale), "de") {
		return time.Monday
	}
	return time.Sunday
}
