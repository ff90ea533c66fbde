// Package calendar renders the month grid used to pick an entry date.
package calendar

import (
	"time"
)

// Cell is one day square in the month grid.
type Cell struct {
	Day        int
	Date       time.Time
	IsToday    bool
	IsSelected bool
	IsFuture   bool
	HasEntry   bool
}

// Month is a fully laid out month view. LeadingBlanks is the number of
// empty squares before day 1; weeks start on Sunday.
type Month struct {
	Label         string
	LeadingBlanks int
	Cells         []Cell
}

// Picker holds the visible month, the selected day, and the set of days
// that already carry an entry.
type Picker struct {
	now      func() time.Time
	visible  time.Time // first day of the visible month
	selected time.Time
	hasDay   bool
	marked   map[string]bool
}

// New starts on the current month with nothing selected.
func New(now func() time.Time) *Picker {
	if now == nil {
		now = time.Now
	}
	today := dateOnly(now())
	return &Picker{
		now:     now,
		visible: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()),
		marked:  make(map[string]bool),
	}
}

// SetMarkedDates replaces the set of days shown as already written. Dates
// are slugs in 2006-01-02 form; malformed ones are ignored.
func (p *Picker) SetMarkedDates(dates []string) {
	marked := make(map[string]bool, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			marked[d] = true
		}
	}
	p.marked = marked
}

// MarkDate adds one written day without replacing the rest of the set.
func (p *Picker) MarkDate(date string) {
	if _, err := time.Parse("2006-01-02", date); err == nil {
		p.marked[date] = true
	}
}

// Month lays out the visible month.
func (p *Picker) Month() Month {
	today := dateOnly(p.now())
	first := p.visible
	daysInMonth := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, first.Location()).Day()

	cells := make([]Cell, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, first.Location())
		cells = append(cells, Cell{
			Day:        day,
			Date:       date,
			IsToday:    date.Equal(today),
			IsSelected: p.hasDay && date.Equal(p.selected),
			IsFuture:   date.After(today),
			HasEntry:   p.marked[date.Format("2006-01-02")],
		})
	}

	return Month{
		Label:         first.Format("January 2006"),
		LeadingBlanks: int(first.Weekday()),
		Cells:         cells,
	}
}

// SelectDay picks a day in the visible month. Future days are not
// selectable; the call is a no-op and reports false.
func (p *Picker) SelectDay(day int) (time.Time, bool) {
	first := p.visible
	daysInMonth := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, first.Location()).Day()
	if day < 1 || day > daysInMonth {
		return time.Time{}, false
	}

	date := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, first.Location())
	if date.After(dateOnly(p.now())) {
		return time.Time{}, false
	}

	p.selected = date
	p.hasDay = true
	return date, true
}

// Selected returns the chosen day, if any.
func (p *Picker) Selected() (time.Time, bool) {
	return p.selected, p.hasDay
}

// ChangeMonth moves the visible month by delta months. The selection is
// kept; it simply stops being visible until its month is shown again.
func (p *Picker) ChangeMonth(delta int) {
	p.visible = p.visible.AddDate(0, delta, 0)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
