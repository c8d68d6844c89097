package shared

import (
	"fmt"
	"slices"
	"time"

	"github.com/tidwall/gjson"
)

// ParseBars parses bars from the provided json data and sorts them chronologically.
//
// Dates are parsed in the provided location, data providers commonly return the
// most recent bar first.
func ParseBars(data []gjson.Result, market string, timeframe Timeframe, loc *time.Location) ([]Bar, error) {
	if loc == nil {
		loc = time.UTC
	}

	bars := make([]Bar, 0, len(data))
	for idx := range data {
		var bar Bar

		bar.Open = data[idx].Get("open").Float()
		bar.Low = data[idx].Get("low").Float()
		bar.High = data[idx].Get("high").Float()
		bar.Close = data[idx].Get("close").Float()
		bar.Volume = data[idx].Get("volume").Float()

		bar.Market = market
		bar.Timeframe = timeframe

		dt, err := time.ParseInLocation(DateLayout, data[idx].Get("date").String(), loc)
		if err != nil {
			return nil, fmt.Errorf("parsing bar date at index %d: %w", idx, err)
		}

		bar.Date = dt
		bars = append(bars, bar)
	}

	slices.SortStableFunc(bars, func(a, b Bar) int {
		return a.Date.Compare(b.Date)
	})

	return bars, nil
}
