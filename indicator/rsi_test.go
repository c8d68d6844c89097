package indicator

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/peterldowns/testy/assert"
)

func TestRSI(t *testing.T) {
	closes := []float64{1, 2, 1, 3}
	rsi := RSI(closes, 2)

	// Ensure the index is unavailable until the period is filled.
	assert.False(t, rsi.Available(0))
	assert.Equal(t, rsi.FirstAvailable(), 1)

	// Ensure a zero average loss saturates the index.
	assert.Equal(t, rsi[1], float64(100))

	// Ensure later values follow the weighted averages of gains and losses.
	approxEqual(t, rsi[2], 100-100/1.5)
	approxEqual(t, rsi[3], 100-100/5.5)
}

func TestRSIWarmup(t *testing.T) {
	series := randomSeries(t, 7, 100)
	rsi := RSI(series.Closes(), 14)

	// Ensure the first value is available once the period has accumulated.
	assert.Equal(t, rsi.FirstAvailable(), 13)
	for idx := 13; idx < len(rsi); idx++ {
		assert.True(t, rsi.Available(idx))
	}
}

func TestRSIBounds(t *testing.T) {
	// Ensure the index stays within [0, 100].
	for seed := int64(1); seed <= 5; seed++ {
		series := randomSeries(t, seed, 400)
		rsi := RSI(series.Closes(), 14)

		for idx := range rsi {
			v, ok := rsi.Value(idx)
			if !ok {
				continue
			}
			if v < 0 || v > 100 {
				t.Fatalf("seed %d: rsi %v at %d out of bounds", seed, v, idx)
			}
		}
	}

	// Ensure strictly rising closes saturate the index.
	rising := make([]float64, 30)
	for idx := range rising {
		rising[idx] = float64(100 + idx)
	}

	rsi := RSI(rising, 14)
	for idx := 13; idx < len(rsi); idx++ {
		assert.Equal(t, rsi[idx], float64(100))
	}
}

func TestStochasticRSI(t *testing.T) {
	nan := math.NaN()

	// Ensure invalid window lengths are rejected.
	_, err := NewStochasticRSI(Series{1, 2, 3}, 0, 3, 3)
	assert.Error(t, err)
	_, err = NewStochasticRSI(Series{1, 2, 3}, 3, 0, 3)
	assert.Error(t, err)
	_, err = NewStochasticRSI(Series{1, 2, 3}, 3, 3, -1)
	assert.Error(t, err)

	rsi := Series{nan, 10, 20, 30, 20, 20, 20, 40}
	stoch, err := NewStochasticRSI(rsi, 3, 2, 2)
	assert.NoError(t, err)

	// Ensure windows with unavailable or flat rsi values are unavailable.
	wantValue := Series{nan, nan, nan, 100, 0, 0, nan, 100}
	wantK := Series{nan, nan, nan, nan, 50, 0, nan, nan}
	wantD := Series{nan, nan, nan, nan, nan, 25, nan, nan}

	opt := cmpopts.EquateNaNs()
	if diff := cmp.Diff(wantValue, stoch.Value, opt); diff != "" {
		t.Fatalf("stochastic rsi mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantK, stoch.K, opt); diff != "" {
		t.Fatalf("%%K mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantD, stoch.D, opt); diff != "" {
		t.Fatalf("%%D mismatch (-want +got):\n%s", diff)
	}
}

func TestStochasticRSIBounds(t *testing.T) {
	series := randomSeries(t, 11, 500)
	rsi := RSI(series.Closes(), 14)

	stoch, err := NewStochasticRSI(rsi, 14, 3, 3)
	assert.NoError(t, err)

	// Ensure the oscillator and its averages stay within [0, 100].
	for _, s := range []Series{stoch.Value, stoch.K, stoch.D} {
		assert.Equal(t, len(s), series.Len())
		for idx := range s {
			v, ok := s.Value(idx)
			if !ok {
				continue
			}
			if v < 0 || v > 100 {
				t.Fatalf("value %v at %d out of bounds", v, idx)
			}
		}
	}

	// Ensure %D becomes available after %K.
	assert.GreaterThan(t, stoch.D.FirstAvailable(), stoch.K.FirstAvailable())
}
