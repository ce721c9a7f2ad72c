package budget

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - one calendar month of the reference window
// =============================================================================

// Period is one calendar month of the twelve-month reference window.
// Start is the first day of the month, End the last, both UTC midnight.
type Period struct {
	Label string // "Mai/2025"
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside [Start, End], comparing at day
// granularity.
func (p Period) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(p.Start) && !d.After(p.End)
}

// ProjectedLabel is the matching month one year ahead, the column the
// projection engine writes this period's projected value into.
func (p Period) ProjectedLabel() string {
	return MonthLabel(p.Start.AddDate(1, 0, 0))
}

// ReferenceWindow is the number of trailing months a projection covers.
const ReferenceWindow = 12

var monthAbbr = [...]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// MonthLabel formats a date as "<pt-BR month abbreviation>/<year>".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s/%d", monthAbbr[t.Month()-1], t.Year())
}

// GeneratePeriods produces the twelve trailing calendar months ending at
// the month containing closing, ordered oldest to newest. Pure: safe to
// call from tests without any I/O.
func GeneratePeriods(closing time.Time) []Period {
	periods := make([]Period, 0, ReferenceWindow)
	for i := ReferenceWindow - 1; i >= 0; i-- {
		start := time.Date(closing.Year(), closing.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		periods = append(periods, Period{
			Label: MonthLabel(start),
			Start: start,
			End:   end,
		})
	}
	return periods
}
