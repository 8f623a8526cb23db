package backtest

import (
	"fmt"
	"strings"
	"time"
)

// Frequency selects how often the strategy rebalances.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// ParseFrequency validates a frequency string. An unknown value is a
// configuration error caught before the simulation starts.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyQuarterly:
		return FrequencyQuarterly, nil
	default:
		return "", fmt.Errorf("invalid rebalance frequency %q: must be weekly, monthly or quarterly", s)
	}
}

// RebalanceDates selects the rebalance days from an ascending trading
// calendar. Weekly picks every Monday. Monthly and quarterly pick the
// first trading day of each period, including the period the calendar
// starts in.
func RebalanceDates(calendar []time.Time, freq Frequency) []time.Time {
	var dates []time.Time

	for i, date := range calendar {
		switch freq {
		case FrequencyWeekly:
			if date.Weekday() == time.Monday {
				dates = append(dates, date)
			}
		case FrequencyMonthly:
			if i == 0 || monthKey(date) != monthKey(calendar[i-1]) {
				dates = append(dates, date)
			}
		case FrequencyQuarterly:
			if i == 0 || quarterKey(date) != quarterKey(calendar[i-1]) {
				dates = append(dates, date)
			}
		}
	}

	return dates
}

func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func quarterKey(t time.Time) int {
	return t.Year()*4 + (int(t.Month())-1)/3
}
