package indicator

import "fmt"

// wilderMean computes the adjusted exponentially weighted mean of the provided
// values with a smoothing constant of 1/period. Values are unavailable until
// period samples have accumulated.
func wilderMean(values []float64, period int) Series {
	s := NewSeries(len(values))
	if period < 1 {
		return s
	}

	decay := 1 - 1/float64(period)

	var weighted, weights float64
	for idx := range values {
		weighted = values[idx] + decay*weighted
		weights = 1 + decay*weights

		if idx+1 >= period {
			s[idx] = weighted / weights
		}
	}

	return s
}

// RSI computes the relative strength index of the provided closes using
// Wilder smoothing.
//
// The first close has no predecessor and contributes a zero gain and zero loss
// sample. An average loss of zero saturates the index at 100.
func RSI(closes []float64, period int) Series {
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for idx := 1; idx < len(closes); idx++ {
		diff := closes[idx] - closes[idx-1]
		switch {
		case diff > 0:
			gains[idx] = diff
		case diff < 0:
			losses[idx] = -diff
		}
	}

	avgGain := wilderMean(gains, period)
	avgLoss := wilderMean(losses, period)

	rsi := NewSeries(len(closes))
	for idx := range rsi {
		gain, ok := avgGain.Value(idx)
		if !ok {
			continue
		}
		loss, _ := avgLoss.Value(idx)

		if loss == 0 {
			rsi[idx] = 100
			continue
		}

		rsi[idx] = 100 - 100/(1+gain/loss)
	}

	return rsi
}

// rolling applies the provided window aggregate over the series.
func rolling(values Series, size int, fn func(w *Window) (float64, bool)) (Series, error) {
	window, err := NewWindow(int32(size))
	if err != nil {
		return nil, err
	}

	s := NewSeries(len(values))
	for idx := range values {
		window.Update(values[idx])
		if v, ok := fn(window); ok {
			s[idx] = v
		}
	}

	return s, nil
}

// StochasticRSI represents the stochastic oscillator applied to the relative strength index.
type StochasticRSI struct {
	// Value is the raw stochastic rsi.
	Value Series
	// K is the simple moving average of the raw stochastic rsi.
	K Series
	// D is the simple moving average of K.
	D Series
}

// NewStochasticRSI computes the stochastic rsi of the provided rsi series.
//
// A window with a flat rsi has no range to normalize against, the value there
// is left unavailable.
func NewStochasticRSI(rsi Series, length int, kPeriod int, dPeriod int) (*StochasticRSI, error) {
	window, err := NewWindow(int32(length))
	if err != nil {
		return nil, fmt.Errorf("creating stochastic window: %w", err)
	}

	value := NewSeries(len(rsi))
	for idx := range rsi {
		window.Update(rsi[idx])

		low, ok := window.Min()
		if !ok {
			continue
		}
		high, _ := window.Max()
		if high == low {
			continue
		}

		value[idx] = (rsi[idx] - low) / (high - low) * 100
	}

	k, err := rolling(value, kPeriod, (*Window).Mean)
	if err != nil {
		return nil, fmt.Errorf("smoothing %%K: %w", err)
	}

	d, err := rolling(k, dPeriod, (*Window).Mean)
	if err != nil {
		return nil, fmt.Errorf("smoothing %%D: %w", err)
	}

	return &StochasticRSI{
		Value: value,
		K:     k,
		D:     d,
	}, nil
}
