package marketdata

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(n int, close float64) []PricePoint {
	out := make([]PricePoint, n)
	for i := range out {
		out[i] = PricePoint{Date: d(1).AddDate(0, 0, i), Close: close}
	}
	return out
}

func TestValidateUniverse(t *testing.T) {
	series := map[string][]PricePoint{
		"GOOD": points(100, 10),
		"SHRT": points(10, 10),
	}

	// GAPS: 15% of values missing.
	gaps := points(100, 10)
	for i := 0; i < 15; i++ {
		gaps[i].Close = math.NaN()
	}
	series["GAPS"] = gaps

	// NEGS: 10% of prices non-positive.
	negs := points(100, 10)
	for i := 0; i < 10; i++ {
		negs[i].Close = -1
	}
	series["NEGS"] = negs

	tickers := []string{"GOOD", "SHRT", "GAPS", "NEGS", "NONE"}
	report := ValidateUniverse(series, tickers, 60)

	assert.Equal(t, []string{"GOOD"}, report.Valid)
	assert.Contains(t, report.Excluded, "SHRT")
	assert.Contains(t, report.Excluded, "GAPS")
	assert.Contains(t, report.Excluded, "NEGS")
	assert.Equal(t, "no data", report.Excluded["NONE"])
}

func TestValidateUniverseBoundaries(t *testing.T) {
	// Exactly 10% missing passes, 95% positive passes.
	borderline := points(100, 10)
	for i := 0; i < 10; i++ {
		borderline[i].Close = math.NaN()
	}

	report := ValidateUniverse(map[string][]PricePoint{"EDGE": borderline}, []string{"EDGE"}, 60)
	assert.Equal(t, []string{"EDGE"}, report.Valid)
}

func TestCheckUniverse(t *testing.T) {
	small := UniverseReport{Valid: []string{"A", "B"}}
	require.Error(t, CheckUniverse(small))

	valid := make([]string, MinUniverseSize)
	for i := range valid {
		valid[i] = fmt.Sprintf("TIC%d", i)
	}
	assert.NoError(t, CheckUniverse(UniverseReport{Valid: valid}))
}
