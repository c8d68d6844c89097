package engine

import (
	"fmt"
	"os"

	"github.com/dnldd/trendbracket/position"
	"gopkg.in/yaml.v3"
)

// paramsFile is the yaml layout of a strategy parameters file. Omitted fields keep
// their defaults.
type paramsFile struct {
	RSI struct {
		Period int `yaml:"period"`
	} `yaml:"rsi"`
	Stochastic struct {
		Length int `yaml:"length"`
		K      int `yaml:"k"`
		D      int `yaml:"d"`
	} `yaml:"stochastic"`
	MACD struct {
		Fast   int `yaml:"fast"`
		Slow   int `yaml:"slow"`
		Signal int `yaml:"signal"`
	} `yaml:"macd"`
	Trend struct {
		Period int `yaml:"period"`
	} `yaml:"trend"`
	SAR struct {
		Step    float64 `yaml:"step"`
		MaxStep float64 `yaml:"max_step"`
	} `yaml:"sar"`
	Position struct {
		Mode       string  `yaml:"mode"`
		RewardRisk float64 `yaml:"reward_risk"`
	} `yaml:"position"`
	Momentum struct {
		Oversold   float64 `yaml:"oversold"`
		Overbought float64 `yaml:"overbought"`
	} `yaml:"momentum"`
}

// newParamsFile returns the yaml layout of the provided config.
func newParamsFile(cfg *Config) *paramsFile {
	p := &paramsFile{}
	p.RSI.Period = cfg.RSIPeriod
	p.Stochastic.Length = cfg.StochasticLength
	p.Stochastic.K = cfg.StochasticK
	p.Stochastic.D = cfg.StochasticD
	p.MACD.Fast = cfg.MACDFast
	p.MACD.Slow = cfg.MACDSlow
	p.MACD.Signal = cfg.MACDSignal
	p.Trend.Period = cfg.TrendPeriod
	p.SAR.Step = cfg.SAR.Step
	p.SAR.MaxStep = cfg.SAR.MaxStep
	p.Position.Mode = cfg.Position.Mode.String()
	p.Position.RewardRisk = cfg.Position.RewardRisk
	p.Momentum.Oversold = cfg.Momentum.Oversold
	p.Momentum.Overbought = cfg.Momentum.Overbought

	return p
}

// apply sets the parameters onto the provided config.
func (p *paramsFile) apply(cfg *Config) error {
	mode, err := position.ParseMode(p.Position.Mode)
	if err != nil {
		return err
	}

	cfg.RSIPeriod = p.RSI.Period
	cfg.StochasticLength = p.Stochastic.Length
	cfg.StochasticK = p.Stochastic.K
	cfg.StochasticD = p.Stochastic.D
	cfg.MACDFast = p.MACD.Fast
	cfg.MACDSlow = p.MACD.Slow
	cfg.MACDSignal = p.MACD.Signal
	cfg.TrendPeriod = p.Trend.Period
	cfg.SAR.Step = p.SAR.Step
	cfg.SAR.MaxStep = p.SAR.MaxStep
	cfg.Position.Mode = mode
	cfg.Position.RewardRisk = p.Position.RewardRisk
	cfg.Momentum.Oversold = p.Momentum.Oversold
	cfg.Momentum.Overbought = p.Momentum.Overbought

	return nil
}

// ParseParams parses the provided yaml strategy parameters over the default config.
func ParseParams(data []byte) (Config, error) {
	cfg := DefaultConfig()

	p := newParamsFile(&cfg)
	err := yaml.Unmarshal(data, p)
	if err != nil {
		return Config{}, fmt.Errorf("parsing params: %w", err)
	}

	err = p.apply(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("applying params: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("validating params: %w", err)
	}

	return cfg, nil
}

// LoadParams reads the strategy parameters at the provided path over the default
// config. An empty path returns the default config.
func LoadParams(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading params file: %w", err)
	}

	return ParseParams(data)
}
