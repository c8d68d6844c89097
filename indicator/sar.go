package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/dnldd/trendbracket/shared"
)

const (
	// DefaultSARStep is the default acceleration factor step.
	DefaultSARStep = 0.02
	// DefaultSARMaxStep is the default acceleration factor cap.
	DefaultSARMaxStep = 0.2
)

// Trend represents the direction of a parabolic sar trend.
type Trend int

const (
	Uptrend Trend = iota
	Downtrend
)

// String stringifies the provided trend.
func (t Trend) String() string {
	switch t {
	case Uptrend:
		return "up"
	case Downtrend:
		return "down"
	default:
		return "unknown"
	}
}

// SARConfig represents the parabolic sar configuration.
type SARConfig struct {
	// Step is the initial acceleration factor and its increment.
	Step float64
	// MaxStep is the acceleration factor cap.
	MaxStep float64
}

// Validate asserts the config sane inputs.
func (cfg *SARConfig) Validate() error {
	var errs error

	if cfg.Step <= 0 {
		errs = errors.Join(errs, fmt.Errorf("sar step must be positive, got %v", cfg.Step))
	}
	if cfg.MaxStep < cfg.Step {
		errs = errors.Join(errs, fmt.Errorf("sar max step %v cannot be less than step %v", cfg.MaxStep, cfg.Step))
	}

	return errs
}

// TrendState represents the running state of the parabolic sar at a bar.
type TrendState struct {
	Direction          Trend
	ExtremePoint       float64
	AccelerationFactor float64
	SAR                float64
}

// SeedTrendState returns the state of one of the first two bars of a series,
// which precede the recurrence.
func SeedTrendState(bar shared.Bar, cfg SARConfig) TrendState {
	return TrendState{
		Direction:          Uptrend,
		ExtremePoint:       bar.High,
		AccelerationFactor: cfg.Step,
		SAR:                bar.Low,
	}
}

// NextTrendState advances the parabolic sar by one bar. The previous two bars
// bound how far the sar can move into their range.
//
// At most one reversal happens per bar.
func NextTrendState(prev TrendState, bar shared.Bar, prev1 shared.Bar, prev2 shared.Bar, cfg SARConfig) TrendState {
	next := TrendState{
		Direction:          prev.Direction,
		ExtremePoint:       prev.ExtremePoint,
		AccelerationFactor: prev.AccelerationFactor,
		SAR:                prev.SAR + prev.AccelerationFactor*(prev.ExtremePoint-prev.SAR),
	}

	switch prev.Direction {
	case Uptrend:
		if bar.Low > next.SAR {
			next.SAR = math.Min(next.SAR, math.Min(prev1.Low, prev2.Low))
		}

		if bar.High > prev.ExtremePoint {
			next.ExtremePoint = bar.High
			next.AccelerationFactor = math.Min(prev.AccelerationFactor+cfg.Step, cfg.MaxStep)
		}

		if next.SAR > bar.Low {
			next.Direction = Downtrend
			next.SAR = next.ExtremePoint
			next.ExtremePoint = bar.Low
			next.AccelerationFactor = cfg.Step
		}

	default:
		if bar.High < next.SAR {
			next.SAR = math.Max(next.SAR, math.Max(prev1.High, prev2.High))
		}

		if bar.Low < prev.ExtremePoint {
			next.ExtremePoint = bar.Low
			next.AccelerationFactor = math.Min(prev.AccelerationFactor+cfg.Step, cfg.MaxStep)
		}

		if next.SAR < bar.High {
			next.Direction = Uptrend
			next.SAR = next.ExtremePoint
			next.ExtremePoint = bar.High
			next.AccelerationFactor = cfg.Step
		}
	}

	return next
}

// ParabolicSAR represents the parabolic stop and reverse indicator of a bar series.
type ParabolicSAR struct {
	// States holds the trend state at every bar.
	States []TrendState
	// Values holds the sar at every bar.
	Values Series
}

// NewParabolicSAR computes the parabolic sar of the provided bar series.
func NewParabolicSAR(series *shared.BarSeries, cfg SARConfig) (*ParabolicSAR, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	n := series.Len()
	states := make([]TrendState, n)
	values := make(Series, n)

	for idx := range states {
		switch {
		case idx < 2:
			states[idx] = SeedTrendState(series.At(idx), cfg)
		default:
			states[idx] = NextTrendState(states[idx-1], series.At(idx),
				series.At(idx-1), series.At(idx-2), cfg)
		}

		values[idx] = states[idx].SAR
	}

	return &ParabolicSAR{
		States: states,
		Values: values,
	}, nil
}

// Reversed returns whether the trend reversed at the provided index.
func (p *ParabolicSAR) Reversed(idx int) bool {
	if idx < 1 || idx >= len(p.States) {
		return false
	}

	return p.States[idx].Direction != p.States[idx-1].Direction
}
