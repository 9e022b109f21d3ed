package services

import "time"

// Period is one calendar month
type Period struct {
	Month int
	Year  int
}

// NewPeriod validates month (1-12) and year
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, NewValidationError("month", "month must be between 1 and 12")
	}
	if year < 1900 || year > 9999 {
		return Period{}, NewValidationError("year", "year must be a four-digit year")
	}
	return Period{Month: month, Year: year}, nil
}

// PeriodOf returns the month containing t, in UTC
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Start is the first instant of the month
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is 23:59:59 on the last day of the month. time.Date normalizes month 13
// into January of the following year.
func (p Period) End() time.Time {
	return time.Date(p.Year, time.Month(p.Month)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Second)
}

// Previous is the month before p; January wraps to December of the prior year
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}
