package shared

import (
	"errors"
	"fmt"
)

// ErrEmptySeries is returned when a bar series is created without bars.
var ErrEmptySeries = errors.New("bar series cannot be empty")

// ValidationError describes a malformed bar rejected at ingestion.
type ValidationError struct {
	Index  int
	Reason string
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bar at index %d: %s", e.Index, e.Reason)
}

// BarSeries represents an ordered, validated and immutable sequence of bars
// for a single market.
type BarSeries struct {
	market    string
	timeframe Timeframe
	bars      []Bar
}

// NewBarSeries validates the provided bars and initializes a bar series from a copy of them.
//
// Bars must be in chronological order with strictly increasing dates.
func NewBarSeries(market string, timeframe Timeframe, bars []Bar) (*BarSeries, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	set := make([]Bar, len(bars))
	copy(set, bars)

	for idx := range set {
		err := set[idx].Validate()
		if err != nil {
			return nil, &ValidationError{Index: idx, Reason: err.Error()}
		}

		if idx > 0 && !set[idx].Date.After(set[idx-1].Date) {
			return nil, &ValidationError{
				Index: idx,
				Reason: fmt.Sprintf("date %s does not follow previous bar date %s",
					set[idx].Date.Format(DateLayout), set[idx-1].Date.Format(DateLayout)),
			}
		}

		set[idx].Market = market
		set[idx].Timeframe = timeframe
	}

	return &BarSeries{
		market:    market,
		timeframe: timeframe,
		bars:      set,
	}, nil
}

// Market returns the market of the series.
func (s *BarSeries) Market() string {
	return s.market
}

// Timeframe returns the timeframe of the series.
func (s *BarSeries) Timeframe() Timeframe {
	return s.timeframe
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.bars)
}

// At returns the bar at the provided index.
func (s *BarSeries) At(idx int) Bar {
	return s.bars[idx]
}

// Bars returns a copy of the bars in the series.
func (s *BarSeries) Bars() []Bar {
	set := make([]Bar, len(s.bars))
	copy(set, s.bars)
	return set
}

// column extracts a single price column from the series.
func (s *BarSeries) column(fn func(b *Bar) float64) []float64 {
	set := make([]float64, len(s.bars))
	for idx := range s.bars {
		set[idx] = fn(&s.bars[idx])
	}

	return set
}

// Opens returns the open prices of the series.
func (s *BarSeries) Opens() []float64 {
	return s.column(func(b *Bar) float64 { return b.Open })
}

// Highs returns the high prices of the series.
func (s *BarSeries) Highs() []float64 {
	return s.column(func(b *Bar) float64 { return b.High })
}

// Lows returns the low prices of the series.
func (s *BarSeries) Lows() []float64 {
	return s.column(func(b *Bar) float64 { return b.Low })
}

// Closes returns the close prices of the series.
func (s *BarSeries) Closes() []float64 {
	return s.column(func(b *Bar) float64 { return b.Close })
}
