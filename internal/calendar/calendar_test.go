package calendar

import (
	"testing"
	"time"
)

// fixedNow pins the clock to Friday, March 14 2025.
func fixedNow() time.Time {
	return time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)
}

func TestMonth_Layout(t *testing.T) {
	p := New(fixedNow)
	month := p.Month()

	if month.Label != "March 2025" {
		t.Errorf("expected label March 2025, got %q", month.Label)
	}
	// March 1 2025 is a Saturday.
	if month.LeadingBlanks != 6 {
		t.Errorf("expected 6 leading blanks, got %d", month.LeadingBlanks)
	}
	if len(month.Cells) != 31 {
		t.Errorf("expected 31 cells, got %d", len(month.Cells))
	}
}

func TestMonth_TodayAndFuture(t *testing.T) {
	p := New(fixedNow)
	month := p.Month()

	for _, cell := range month.Cells {
		wantToday := cell.Day == 14
		if cell.IsToday != wantToday {
			t.Errorf("day %d: IsToday = %v, want %v", cell.Day, cell.IsToday, wantToday)
		}
		wantFuture := cell.Day > 14
		if cell.IsFuture != wantFuture {
			t.Errorf("day %d: IsFuture = %v, want %v", cell.Day, cell.IsFuture, wantFuture)
		}
	}
}

func TestSelectDay(t *testing.T) {
	p := New(fixedNow)

	date, ok := p.SelectDay(10)
	if !ok {
		t.Fatal("expected day 10 to be selectable")
	}
	if date.Format("2006-01-02") != "2025-03-10" {
		t.Errorf("unexpected selected date %v", date)
	}

	month := p.Month()
	for _, cell := range month.Cells {
		if (cell.Day == 10) != cell.IsSelected {
			t.Errorf("day %d: IsSelected = %v", cell.Day, cell.IsSelected)
		}
	}
}

func TestSelectDay_FutureIsNoOp(t *testing.T) {
	p := New(fixedNow)

	if _, ok := p.SelectDay(15); ok {
		t.Error("future day must not be selectable")
	}
	if _, ok := p.Selected(); ok {
		t.Error("failed selection must not stick")
	}

	// Today itself is selectable.
	if _, ok := p.SelectDay(14); !ok {
		t.Error("today must be selectable")
	}
}

func TestSelectDay_OutOfRange(t *testing.T) {
	p := New(fixedNow)

	if _, ok := p.SelectDay(0); ok {
		t.Error("day 0 must not be selectable")
	}
	if _, ok := p.SelectDay(32); ok {
		t.Error("day 32 must not be selectable")
	}
}

func TestMarkedDates(t *testing.T) {
	p := New(fixedNow)
	p.SetMarkedDates([]string{"2025-03-10", "2025-03-12", "not-a-date"})

	month := p.Month()
	for _, cell := range month.Cells {
		wantEntry := cell.Day == 10 || cell.Day == 12
		if cell.HasEntry != wantEntry {
			t.Errorf("day %d: HasEntry = %v, want %v", cell.Day, cell.HasEntry, wantEntry)
		}
	}
}

func TestChangeMonth(t *testing.T) {
	p := New(fixedNow)

	p.ChangeMonth(-1)
	if label := p.Month().Label; label != "February 2025" {
		t.Errorf("expected February 2025, got %q", label)
	}
	// February 2025 has 28 days and starts on a Saturday.
	month := p.Month()
	if len(month.Cells) != 28 {
		t.Errorf("expected 28 cells, got %d", len(month.Cells))
	}
	if month.LeadingBlanks != 6 {
		t.Errorf("expected 6 leading blanks, got %d", month.LeadingBlanks)
	}

	p.ChangeMonth(2)
	if label := p.Month().Label; label != "April 2025" {
		t.Errorf("expected April 2025, got %q", label)
	}

	// Every day in a future month is unselectable.
	if _, ok := p.SelectDay(1); ok {
		t.Error("days in a future month must not be selectable")
	}
}

func TestChangeMonth_KeepsSelection(t *testing.T) {
	p := New(fixedNow)
	if _, ok := p.SelectDay(10); !ok {
		t.Fatal("expected day 10 to be selectable")
	}

	p.ChangeMonth(1)
	p.ChangeMonth(-1)

	selected, ok := p.Selected()
	if !ok || selected.Format("2006-01-02") != "2025-03-10" {
		t.Errorf("selection must survive month navigation, got %v ok=%v", selected, ok)
	}
}
