package indicator

import (
	"errors"
	"math"

	"go.uber.org/atomic"
)

// Window represents a fixed size rolling window of indicator values.
type Window struct {
	data  []float64
	start atomic.Int32
	count atomic.Int32
	size  atomic.Int32
}

// NewWindow initializes a new rolling window.
func NewWindow(size int32) (*Window, error) {
	if size < 0 {
		return nil, errors.New("window size cannot be negative")
	}
	if size == 0 {
		return nil, errors.New("window size cannot be zero")
	}

	window := &Window{
		data: make([]float64, size),
	}
	window.size.Store(size)

	return window, nil
}

// Update adds the provided value to the window.
func (w *Window) Update(value float64) {
	start := w.start.Load()
	count := w.count.Load()
	size := w.size.Load()
	end := (start + count) % size
	w.data[end] = value

	if count == size {
		// Overwrite the oldest entry when the window is at capacity.
		w.start.Store((start + 1) % size)
	} else {
		w.count.Add(1)
	}
}

// Full returns whether the window is at capacity.
func (w *Window) Full() bool {
	return w.count.Load() == w.size.Load()
}

// Last returns the last added entry of the window.
func (w *Window) Last() (float64, bool) {
	start := w.start.Load()
	count := w.count.Load()
	size := w.size.Load()
	if count == 0 {
		return math.NaN(), false
	}

	end := (start + count - 1) % size
	return w.data[end], true
}

// Values returns the entries of the window in insertion order.
func (w *Window) Values() []float64 {
	start := w.start.Load()
	count := w.count.Load()
	size := w.size.Load()

	set := make([]float64, count)
	for i := range count {
		idx := (start + i) % size
		set[i] = w.data[idx]
	}

	return set
}

// complete returns the window entries if the window is at capacity and every
// entry is available.
func (w *Window) complete() ([]float64, bool) {
	if !w.Full() {
		return nil, false
	}

	set := w.Values()
	for idx := range set {
		if math.IsNaN(set[idx]) {
			return nil, false
		}
	}

	return set, true
}

// Min returns the minimum of a complete window.
func (w *Window) Min() (float64, bool) {
	set, ok := w.complete()
	if !ok {
		return math.NaN(), false
	}

	low := set[0]
	for idx := 1; idx < len(set); idx++ {
		low = math.Min(low, set[idx])
	}

	return low, true
}

// Max returns the maximum of a complete window.
func (w *Window) Max() (float64, bool) {
	set, ok := w.complete()
	if !ok {
		return math.NaN(), false
	}

	high := set[0]
	for idx := 1; idx < len(set); idx++ {
		high = math.Max(high, set[idx])
	}

	return high, true
}

// Mean returns the arithmetic mean of a complete window.
func (w *Window) Mean() (float64, bool) {
	set, ok := w.complete()
	if !ok {
		return math.NaN(), false
	}

	var sum float64
	for idx := range set {
		sum += set[idx]
	}

	return sum / float64(len(set)), true
}
