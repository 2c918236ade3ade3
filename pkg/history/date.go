package history

import "github.com/Sternrassler/chronos/pkg/apperr"

// daysInMonth is indexed by month. February is fixed at 29 so leap-day
// feeds are always reachable.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the maximum day accepted for month, or 0 when month
// is out of range.
func DaysInMonth(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month]
}

// ValidateDate checks month/day against the calendar table.
func ValidateDate(month, day int) error {
	if month < 1 || month > 12 {
		return apperr.Validation("Month must be between 1 and 12")
	}
	if day < 1 || day > 31 {
		return apperr.Validation("Day must be between 1 and 31")
	}
	if day > daysInMonth[month] {
		return apperr.Validation("Invalid day for the given month")
	}
	return nil
}
