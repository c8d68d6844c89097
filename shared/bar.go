package shared

import (
	"fmt"
	"math"
	"time"
)

// Bar represents a unit OHLC price bar for a market.
type Bar struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// isFinite returns whether the provided value is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate asserts the bar holds sane price values.
func (b *Bar) Validate() error {
	switch {
	case !isFinite(b.Open), !isFinite(b.High), !isFinite(b.Low), !isFinite(b.Close):
		return fmt.Errorf("non-finite price value (o:%v h:%v l:%v c:%v)", b.Open, b.High, b.Low, b.Close)
	case !isFinite(b.Volume):
		return fmt.Errorf("non-finite volume %v", b.Volume)
	case b.High < b.Low:
		return fmt.Errorf("high %v is below low %v", b.High, b.Low)
	case b.Open > b.High || b.Open < b.Low:
		return fmt.Errorf("open %v is outside the bar range [%v, %v]", b.Open, b.Low, b.High)
	case b.Close > b.High || b.Close < b.Low:
		return fmt.Errorf("close %v is outside the bar range [%v, %v]", b.Close, b.Low, b.High)
	}

	return nil
}
