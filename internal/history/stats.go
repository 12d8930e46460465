package history

import (
	"time"

	"github.com/sadopc/flowtime/internal/store"
)

type DayTotal struct {
	Day       time.Time `json:"day"`
	TrackedMs int64     `json:"trackedMs"`
	Sessions  int       `json:"sessions"`
}

// DailyTotals buckets entries by local calendar day (in loc) for every day
// from the day of from through the day of to, inclusive. Days without
// entries are present with zero totals.
func DailyTotals(entries []store.Entry, from, to time.Time, loc *time.Location) []DayTotal {
	if loc == nil {
		loc = time.Local
	}
	first := StartOfDay(from.In(loc))
	last := StartOfDay(to.In(loc))
	if last.Before(first) {
		return nil
	}

	var days []DayTotal
	index := make(map[string]int)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		index[d.Format(time.DateOnly)] = len(days)
		days = append(days, DayTotal{Day: d})
	}

	for _, e := range entries {
		key := time.UnixMilli(e.CompletedAtMs).In(loc).Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			continue
		}
		days[i].Sessions++
		if e.TrackedMs > 0 {
			days[i].TrackedMs += e.TrackedMs
		}
	}
	return days
}
