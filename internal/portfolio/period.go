package portfolio

import (
	"fmt"
	"time"
)

// Period is a market-summary time-range token.
type Period string

const (
	Period1W  Period = "1W"
	Period1M  Period = "1M"
	Period6M  Period = "6M"
	PeriodYTD Period = "YTD"
	Period1Y  Period = "1Y"
	Period2Y  Period = "2Y"
	Period5Y  Period = "5Y"

	// DefaultPeriod is used when the caller selects nothing.
	DefaultPeriod = PeriodYTD
)

// halfYear approximates six months as 182.5 days.
const halfYear = time.Duration(0.5*365*24) * time.Hour

// PeriodStart maps a period token to the start date of its range, relative
// to now. Year-based periods subtract whole 365-day blocks; YTD snaps to
// January 1 of the current year.
func PeriodStart(period Period, now time.Time) (time.Time, error) {
	switch period {
	case Period1W:
		return now.AddDate(0, 0, -7), nil
	case Period1M:
		return now.AddDate(0, 0, -28), nil
	case Period6M:
		return now.Add(-halfYear), nil
	case PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case Period1Y:
		return now.AddDate(0, 0, -365), nil
	case Period2Y:
		return now.AddDate(0, 0, -2*365), nil
	case Period5Y:
		return now.AddDate(0, 0, -5*365), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}
