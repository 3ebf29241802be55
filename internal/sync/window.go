package sync

import (
	"time"

	"github.com/peteski22/campaignsync/internal/mailjet"
)

const (
	// lookbackDays is how far back Mailjet keeps daily counters.
	lookbackDays = 100

	// timestampLayout is the FromTS and ToTS filter format.
	timestampLayout = "2006-01-02T15:04:05"

	// dateLayout is the format of the campaign sheet's date column.
	dateLayout = "2006-01-02"
)

// Window is the range of daily counters to request.
type Window struct {
	From time.Time
	To   time.Time
}

// Empty reports whether the window holds no time at all.
func (w Window) Empty() bool {
	return !w.From.Before(w.To)
}

// FromTS returns the start formatted for the statcounters filter.
func (w Window) FromTS() string {
	return w.From.Format(timestampLayout)
}

// ToTS returns the end formatted for the statcounters filter.
func (w Window) ToTS() string {
	return w.To.Format(timestampLayout)
}

// computeWindow returns the counters window ending at midnight yesterday.
// It starts 100 days earlier, or the day after lastDate when that is later.
// Both ends are midnights in now's location, so the window does not depend on the time of day.
func computeWindow(lastDate *time.Time, now time.Time) Window {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	to := today.AddDate(0, 0, -1)
	from := to.AddDate(0, 0, -lookbackDays)

	if lastDate != nil {
		y, m, d := lastDate.AddDate(0, 0, 1).Date()
		next := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		if next.After(from) {
			from = next
		}
	}

	return Window{From: from, To: to}
}

// inferPeriod picks the campaign listing period from the last synced date.
// A date in the current month narrows the listing: Day when it is today, Month otherwise.
// Week is never selected.
func inferPeriod(lastDate *time.Time, now time.Time) mailjet.Period {
	if lastDate == nil {
		return mailjet.PeriodYear
	}

	today := civilDate(now)
	last := civilDate(*lastDate)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	if last.Before(monthStart) {
		return mailjet.PeriodYear
	}

	if gapDays := int(today.Sub(last).Hours() / 24); gapDays < 1 {
		return mailjet.PeriodDay
	}

	return mailjet.PeriodMonth
}

// civilDate returns midnight UTC of t's calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDate parses a date cell of the campaign sheet.
func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
