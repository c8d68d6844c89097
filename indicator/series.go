package indicator

import "math"

// Series represents an indicator series aligned by index to the bar series it
// was derived from. Entries that are not yet available hold NaN.
type Series []float64

// NewSeries initializes a series of the provided length with no available values.
func NewSeries(n int) Series {
	s := make(Series, n)
	for idx := range s {
		s[idx] = math.NaN()
	}

	return s
}

// Available returns whether the series holds a value at the provided index.
func (s Series) Available(idx int) bool {
	if idx < 0 || idx >= len(s) {
		return false
	}

	return !math.IsNaN(s[idx])
}

// Value returns the series value at the provided index and whether it is available.
func (s Series) Value(idx int) (float64, bool) {
	if !s.Available(idx) {
		return math.NaN(), false
	}

	return s[idx], true
}

// FirstAvailable returns the index of the first available value, or -1 if the
// series holds none.
func (s Series) FirstAvailable() int {
	for idx := range s {
		if !math.IsNaN(s[idx]) {
			return idx
		}
	}

	return -1
}
