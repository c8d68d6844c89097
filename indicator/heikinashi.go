package indicator

import (
	"math"
	"time"

	"github.com/dnldd/trendbracket/shared"
)

const (
	// candlePrecision is the decimal precision smoothed candle opens and closes are rounded to.
	candlePrecision = 2
)

// Candle represents a unit Heikin-Ashi smoothed candle.
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Date  time.Time
}

// smoothedClose returns the rounded average price of the provided bar.
func smoothedClose(bar *shared.Bar) float64 {
	return shared.Round((bar.Open+bar.High+bar.Low+bar.Close)/4, candlePrecision)
}

// bounded completes the provided candle's high and low from its open, close and the raw bar range.
func bounded(candle Candle, bar *shared.Bar) Candle {
	candle.High = math.Max(math.Max(candle.Open, candle.Close), bar.High)
	candle.Low = math.Min(math.Min(candle.Open, candle.Close), bar.Low)
	return candle
}

// FirstCandle derives the smoothed candle of the first bar of a series. Its open
// is the midpoint of the raw open and the smoothed close.
func FirstCandle(bar shared.Bar) Candle {
	closePrice := smoothedClose(&bar)
	candle := Candle{
		Open:  shared.Round((bar.Open+closePrice)/2, candlePrecision),
		Close: closePrice,
		Date:  bar.Date,
	}

	return bounded(candle, &bar)
}

// NextCandle derives the smoothed candle of the provided bar from the previous smoothed candle.
//
// Opens follow the previous smoothed open and close, not the raw bar, so rounding
// compounds forward through the series.
func NextCandle(prev Candle, bar shared.Bar) Candle {
	candle := Candle{
		Open:  shared.Round((prev.Open+prev.Close)/2, candlePrecision),
		Close: smoothedClose(&bar),
		Date:  bar.Date,
	}

	return bounded(candle, &bar)
}

// HeikinAshi derives the smoothed candles of the provided bar series.
func HeikinAshi(series *shared.BarSeries) []Candle {
	candles := make([]Candle, series.Len())
	for idx := range candles {
		switch idx {
		case 0:
			candles[idx] = FirstCandle(series.At(idx))
		default:
			candles[idx] = NextCandle(candles[idx-1], series.At(idx))
		}
	}

	return candles
}

// HeikinAshiCloses returns the closes of the provided smoothed candles as a series.
func HeikinAshiCloses(candles []Candle) Series {
	s := make(Series, len(candles))
	for idx := range candles {
		s[idx] = candles[idx].Close
	}

	return s
}
