package indicator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/dnldd/trendbracket/shared"
	"github.com/peterldowns/testy/assert"
)

// hl is a high/low pair used to make bar fixtures.
type hl struct {
	high float64
	low  float64
}

// makeSeries creates a bar series from the provided high/low pairs, with opens
// and closes at the bar midpoint.
func makeSeries(t *testing.T, ranges []hl) *shared.BarSeries {
	t.Helper()

	start := time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]shared.Bar, len(ranges))
	for idx := range ranges {
		mid := (ranges[idx].high + ranges[idx].low) / 2
		bars[idx] = shared.Bar{
			Open:  mid,
			High:  ranges[idx].high,
			Low:   ranges[idx].low,
			Close: mid,
			Date:  start.Add(time.Duration(idx) * time.Hour),
		}
	}

	series, err := shared.NewBarSeries("BTC-USD", shared.OneHour, bars)
	assert.NoError(t, err)

	return series
}

// randomSeries creates a random walk bar series from the provided seed.
func randomSeries(t *testing.T, seed int64, n int) *shared.BarSeries {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]shared.Bar, n)

	price := 100.0
	for idx := range bars {
		open := price
		price = math.Max(1, price+rng.NormFloat64()*2)
		closePrice := price
		high := math.Max(open, closePrice) + rng.Float64()*1.5
		low := math.Max(0.5, math.Min(open, closePrice)-rng.Float64()*1.5)

		bars[idx] = shared.Bar{
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: rng.Float64() * 1000,
			Date:   start.Add(time.Duration(idx) * time.Minute * 15),
		}
	}

	series, err := shared.NewBarSeries("BTC-USD", shared.FifteenMinute, bars)
	assert.NoError(t, err)

	return series
}

// approxEqual asserts the provided values are equal within a small tolerance.
func approxEqual(t *testing.T, got float64, want float64) {
	t.Helper()

	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
