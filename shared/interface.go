package shared

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
)

// BarFetcher defines the requirements for fetching historical market bars.
type BarFetcher interface {
	// FetchHistoricalBars fetches historical bar data for the provided market and timeframe.
	FetchHistoricalBars(ctx context.Context, market string, timeframe Timeframe, start time.Time, end time.Time) ([]gjson.Result, error)
}
