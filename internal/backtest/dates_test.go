package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{"weekly", FrequencyWeekly, false},
		{"Monthly", FrequencyMonthly, false},
		{" quarterly ", FrequencyQuarterly, false},
		{"daily", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRebalanceDatesWeekly(t *testing.T) {
	// Mon Mar 4 .. Fri Mar 15, weekdays only.
	var calendar []time.Time
	for d := 4; d <= 15; d++ {
		date := day(2024, time.March, d)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		calendar = append(calendar, date)
	}

	dates := RebalanceDates(calendar, FrequencyWeekly)

	require.Len(t, dates, 2)
	assert.Equal(t, day(2024, time.March, 4), dates[0])
	assert.Equal(t, day(2024, time.March, 11), dates[1])
}

func TestRebalanceDatesMonthly(t *testing.T) {
	calendar := []time.Time{
		day(2024, time.January, 30),
		day(2024, time.January, 31),
		day(2024, time.February, 1),
		day(2024, time.February, 2),
		day(2024, time.March, 1),
	}

	dates := RebalanceDates(calendar, FrequencyMonthly)

	// The calendar's own first day counts as a period start.
	require.Len(t, dates, 3)
	assert.Equal(t, day(2024, time.January, 30), dates[0])
	assert.Equal(t, day(2024, time.February, 1), dates[1])
	assert.Equal(t, day(2024, time.March, 1), dates[2])
}

func TestRebalanceDatesMonthlySkipsHoliday(t *testing.T) {
	// Month starts on a holiday: the first trading day is the 3rd.
	calendar := []time.Time{
		day(2024, time.April, 30),
		day(2024, time.May, 3),
		day(2024, time.May, 6),
	}

	dates := RebalanceDates(calendar, FrequencyMonthly)

	require.Len(t, dates, 2)
	assert.Equal(t, day(2024, time.May, 3), dates[1])
}

func TestRebalanceDatesQuarterly(t *testing.T) {
	calendar := []time.Time{
		day(2024, time.February, 15),
		day(2024, time.March, 29),
		day(2024, time.April, 1), // Q1 -> Q2
		day(2024, time.May, 2),
		day(2024, time.June, 28),
		day(2024, time.July, 1), // Q2 -> Q3
	}

	dates := RebalanceDates(calendar, FrequencyQuarterly)

	require.Len(t, dates, 3)
	assert.Equal(t, day(2024, time.February, 15), dates[0])
	assert.Equal(t, day(2024, time.April, 1), dates[1])
	assert.Equal(t, day(2024, time.July, 1), dates[2])
}

func TestRebalanceDatesYearBoundary(t *testing.T) {
	calendar := []time.Time{
		day(2023, time.December, 29),
		day(2024, time.January, 2),
	}

	monthly := RebalanceDates(calendar, FrequencyMonthly)
	require.Len(t, monthly, 2)
	assert.Equal(t, day(2024, time.January, 2), monthly[1])

	quarterly := RebalanceDates(calendar, FrequencyQuarterly)
	require.Len(t, quarterly, 2)
}
