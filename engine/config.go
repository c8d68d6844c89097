package engine

import (
	"errors"
	"fmt"

	"github.com/dnldd/trendbracket/indicator"
	"github.com/dnldd/trendbracket/position"
	"github.com/rs/zerolog"
)

const (
	// DefaultRSIPeriod is the default relative strength index period.
	DefaultRSIPeriod = 14
	// DefaultStochasticLength is the default stochastic rsi lookback.
	DefaultStochasticLength = 14
	// DefaultStochasticK is the default %K smoothing period.
	DefaultStochasticK = 3
	// DefaultStochasticD is the default %D smoothing period.
	DefaultStochasticD = 3
	// DefaultMACDFast is the default macd fast period.
	DefaultMACDFast = 12
	// DefaultMACDSlow is the default macd slow period.
	DefaultMACDSlow = 26
	// DefaultMACDSignal is the default macd signal period.
	DefaultMACDSignal = 9
	// DefaultTrendPeriod is the default trend filter ema period.
	DefaultTrendPeriod = 200
)

// Config represents the engine configuration.
type Config struct {
	// RSIPeriod is the relative strength index period.
	RSIPeriod int
	// StochasticLength is the lookback of the stochastic rsi range.
	StochasticLength int
	// StochasticK is the %K smoothing period.
	StochasticK int
	// StochasticD is the %D smoothing period.
	StochasticD int
	// MACDFast, MACDSlow and MACDSignal are the macd ema periods.
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	// TrendPeriod is the trend filter ema period.
	TrendPeriod int
	// SAR is the parabolic sar configuration.
	SAR indicator.SARConfig
	// Position is the position state machine configuration.
	Position position.Config
	// Momentum is the momentum signal configuration.
	Momentum MomentumConfig
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns the engine configuration with every option at its default.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:        DefaultRSIPeriod,
		StochasticLength: DefaultStochasticLength,
		StochasticK:      DefaultStochasticK,
		StochasticD:      DefaultStochasticD,
		MACDFast:         DefaultMACDFast,
		MACDSlow:         DefaultMACDSlow,
		MACDSignal:       DefaultMACDSignal,
		TrendPeriod:      DefaultTrendPeriod,
		SAR: indicator.SARConfig{
			Step:    indicator.DefaultSARStep,
			MaxStep: indicator.DefaultSARMaxStep,
		},
		Position: position.Config{
			Mode:       position.LongOnly,
			RewardRisk: position.DefaultRewardRisk,
		},
		Momentum: MomentumConfig{
			Oversold:   DefaultOversold,
			Overbought: DefaultOverbought,
		},
	}
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	periods := []struct {
		name  string
		value int
	}{
		{"rsi period", cfg.RSIPeriod},
		{"stochastic length", cfg.StochasticLength},
		{"stochastic %K period", cfg.StochasticK},
		{"stochastic %D period", cfg.StochasticD},
		{"macd fast period", cfg.MACDFast},
		{"macd slow period", cfg.MACDSlow},
		{"macd signal period", cfg.MACDSignal},
		{"trend period", cfg.TrendPeriod},
	}

	for _, p := range periods {
		if p.value < 1 {
			errs = errors.Join(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}

	if cfg.MACDFast >= cfg.MACDSlow {
		errs = errors.Join(errs, fmt.Errorf("macd fast period %d must be less than slow period %d",
			cfg.MACDFast, cfg.MACDSlow))
	}

	errs = errors.Join(errs, cfg.SAR.Validate(), cfg.Position.Validate(), cfg.Momentum.Validate())

	return errs
}
