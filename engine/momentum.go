package engine

import (
	"errors"
	"fmt"
)

const (
	// DefaultOversold is the default stochastic oversold threshold.
	DefaultOversold = 20.0
	// DefaultOverbought is the default stochastic overbought threshold.
	DefaultOverbought = 80.0
)

// MomentumConfig represents the momentum signal configuration.
type MomentumConfig struct {
	// Oversold is the %K and %D level below which the signal arms.
	Oversold float64
	// Overbought is the %K level at which an armed signal disarms.
	Overbought float64
}

// Validate asserts the config sane inputs.
func (cfg *MomentumConfig) Validate() error {
	var errs error

	if cfg.Oversold <= 0 || cfg.Oversold >= 100 {
		errs = errors.Join(errs, fmt.Errorf("oversold threshold must be within (0, 100), got %v", cfg.Oversold))
	}
	if cfg.Overbought <= cfg.Oversold || cfg.Overbought >= 100 {
		errs = errors.Join(errs, fmt.Errorf("overbought threshold must be within (%v, 100), got %v",
			cfg.Oversold, cfg.Overbought))
	}

	return errs
}

// MomentumSignal represents the oversold stochastic rsi buy signal of a series.
type MomentumSignal struct {
	// Armed reports whether the signal is armed at every bar.
	Armed []bool
	// Triggers are the indices where %K crosses above the oversold threshold while armed.
	Triggers []int
}

// NewMomentumSignal evaluates the momentum signal from smoothed closes, the trend
// filter and the stochastic rsi averages.
//
// The signal arms when the close is above the trend with %K and %D oversold. It
// stays armed until %K reaches overbought or the close falls below the trend.
func NewMomentumSignal(closes []float64, trend []float64, k []float64, d []float64, cfg MomentumConfig) (*MomentumSignal, error) {
	n := len(closes)
	if len(trend) != n || len(k) != n || len(d) != n {
		return nil, fmt.Errorf("momentum inputs are misaligned: closes %d, trend %d, %%K %d, %%D %d",
			n, len(trend), len(k), len(d))
	}

	armed := make([]bool, n)
	triggers := make([]int, 0)
	for idx := range closes {
		// Comparisons against unavailable values are false, an armed signal
		// holds through them.
		switch {
		case idx > 0 && armed[idx-1]:
			armed[idx] = !(k[idx] >= cfg.Overbought || closes[idx] < trend[idx])
		default:
			armed[idx] = closes[idx] > trend[idx] && k[idx] < cfg.Oversold && d[idx] < cfg.Oversold
		}

		if idx > 0 && armed[idx] && k[idx-1] < cfg.Oversold && k[idx] >= cfg.Oversold {
			triggers = append(triggers, idx)
		}
	}

	return &MomentumSignal{
		Armed:    armed,
		Triggers: triggers,
	}, nil
}
