package shared

import "math"

const (
	// tieTolerance bounds the binary representation error tolerated when detecting
	// a decimal half tie.
	tieTolerance = 1e-9
)

// Round rounds the provided value to the given number of decimal digits, with
// halves rounded away from zero.
//
// Values like 100.125 are not exactly representable in binary and scale to
// 10012.499999999998, the tie is detected on the decimal value rather than its
// binary approximation.
func Round(value float64, digits int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}

	pow := math.Pow(10, float64(digits))
	scaled := value * pow
	abs := math.Abs(scaled)
	floor := math.Floor(abs)

	var rounded float64
	switch fraction := abs - floor; {
	case math.Abs(fraction-0.5) <= tieTolerance*math.Max(1, abs):
		rounded = floor + 1
	default:
		rounded = math.Round(abs)
	}

	return math.Copysign(rounded, scaled) / pow
}
