package shared

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

func TestParseBars(t *testing.T) {
	market := "^GSPC"
	timeframe := FiveMinute
	data := `[
		{"open":12,"close":13,"high":14,"low":11,"volume":7,"date":"2025-02-04 15:10:00"},
		{"open":10,"close":12,"high":15,"low":8,"volume":5,"date":"2025-02-04 15:05:00"}
	]`

	// Ensure bars can be parsed and are sorted chronologically.
	bars, err := ParseBars(gjson.Parse(data).Array(), market, timeframe, nil)
	assert.NoError(t, err)
	assert.Equal(t, len(bars), 2)
	assert.Equal(t, bars[0].Open, float64(10))
	assert.Equal(t, bars[0].Close, float64(12))
	assert.Equal(t, bars[0].High, float64(15))
	assert.Equal(t, bars[0].Low, float64(8))
	assert.Equal(t, bars[0].Volume, float64(5))
	assert.Equal(t, bars[0].Market, market)
	assert.Equal(t, bars[0].Timeframe, timeframe)
	assert.Equal(t, bars[0].Date.Minute(), 5)
	assert.Equal(t, bars[1].Date.Minute(), 10)
	assert.Equal(t, bars[0].Date.Location().String(), "UTC")

	// Ensure dates are parsed in the provided location.
	_, loc, err := NewYorkTime()
	assert.NoError(t, err)
	bars, err = ParseBars(gjson.Parse(data).Array(), market, timeframe, loc)
	assert.NoError(t, err)
	assert.Equal(t, bars[0].Date.Location().String(), NewYorkLocation)

	// Ensure malformed dates error.
	malformed := `[{"open":10,"close":12,"high":15,"low":8,"volume":5,"date":"yesterday"}]`
	_, err = ParseBars(gjson.Parse(malformed).Array(), market, timeframe, nil)
	assert.Error(t, err)
}
