package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for parsing dates.
	DateLayout = "2006-01-02 15:04:05"
	// NewYorkLocation is the new york timezone location name.
	NewYorkLocation = "America/New_York"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneMinute Timeframe = iota
	FiveMinute
	FifteenMinute
	ThirtyMinute
	OneHour
	FourHour
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case FifteenMinute:
		return "15m"
	case ThirtyMinute:
		return "30m"
	case OneHour:
		return "1H"
	case FourHour:
		return "4H"
	default:
		return "unknown"
	}
}

// Duration returns the time span covered by a single bar of the timeframe.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case OneMinute:
		return time.Minute
	case FiveMinute:
		return time.Minute * 5
	case FifteenMinute:
		return time.Minute * 15
	case ThirtyMinute:
		return time.Minute * 30
	case OneHour:
		return time.Hour
	case FourHour:
		return time.Hour * 4
	default:
		return 0
	}
}

// ParseTimeframe parses the provided timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	switch s {
	case "1m":
		return OneMinute, nil
	case "5m":
		return FiveMinute, nil
	case "15m":
		return FifteenMinute, nil
	case "30m":
		return ThirtyMinute, nil
	case "1H", "1h":
		return OneHour, nil
	case "4H", "4h":
		return FourHour, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %s", s)
	}
}

// NewYorkTime returns the current time in new york (EST/EDT adjusted automatically).
func NewYorkTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}
