package contracts

import (
	"fmt"
	"time"
)

// FiscalYearLabel returns the "YY/YY" label of the fiscal year containing
// the given date. Fiscal years start on October 1, so October 2024 falls in
// "24/25" while September 2024 falls in "23/24".
func FiscalYearLabel(date time.Time) string {
	year := date.Year() % 100
	if date.Month() >= time.October {
		return fmt.Sprintf("%02d/%02d", year, year+1)
	}
	return fmt.Sprintf("%02d/%02d", year-1, year)
}

// PreviousMonth returns the first day of the month before the given date's
// month.
func PreviousMonth(date time.Time) time.Time {
	firstOfMonth := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return firstOfMonth.AddDate(0, -1, 0)
}

// LastDayOfMonth returns the final day of the given date's month.
func LastDayOfMonth(date time.Time) time.Time {
	firstOfNext := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
