package domain

import "time"

// DateRange закрытый интервал дат [Start, End]
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps проверяет пересечение двух закрытых интервалов
// Совпадение граничного дня считается пересечением
func (r DateRange) Overlaps(other DateRange) bool {
	return !dateOnly(r.Start).After(dateOnly(other.End)) &&
		!dateOnly(r.End).Before(dateOnly(other.Start))
}

func (r DateRange) String() string {
	return r.Start.Format(DateFormat) + ".." + r.End.Format(DateFormat)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
