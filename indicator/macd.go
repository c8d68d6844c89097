package indicator

import "math"

// EMA computes the exponential moving average of the provided values with a
// smoothing constant of 2/(period+1).
//
// The average is seeded with the first available value rather than a windowed
// mean, unavailable leading values are skipped.
func EMA(values []float64, period int) Series {
	s := NewSeries(len(values))
	if period < 1 {
		return s
	}

	alpha := 2 / float64(period+1)

	var ema float64
	seeded := false
	for idx := range values {
		value := values[idx]
		if math.IsNaN(value) {
			continue
		}

		switch {
		case !seeded:
			ema = value
			seeded = true
		default:
			ema += alpha * (value - ema)
		}

		s[idx] = ema
	}

	return s
}

// MACD represents the moving average convergence divergence indicator.
type MACD struct {
	// Fast is the fast period exponential moving average.
	Fast Series
	// Slow is the slow period exponential moving average.
	Slow Series
	// Line is the difference between the fast and slow averages.
	Line Series
	// Signal is the exponential moving average of the line.
	Signal Series
	// Histogram is the difference between the line and its signal.
	Histogram Series
}

// NewMACD computes the moving average convergence divergence of the provided closes.
func NewMACD(closes []float64, fast int, slow int, signal int) *MACD {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line := NewSeries(len(closes))
	for idx := range line {
		f, fok := fastEMA.Value(idx)
		s, sok := slowEMA.Value(idx)
		if fok && sok {
			line[idx] = f - s
		}
	}

	signalLine := EMA(line, signal)

	histogram := NewSeries(len(closes))
	for idx := range histogram {
		l, lok := line.Value(idx)
		s, sok := signalLine.Value(idx)
		if lok && sok {
			histogram[idx] = l - s
		}
	}

	return &MACD{
		Fast:      fastEMA,
		Slow:      slowEMA,
		Line:      line,
		Signal:    signalLine,
		Histogram: histogram,
	}
}
