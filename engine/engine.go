package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dnldd/trendbracket/indicator"
	"github.com/dnldd/trendbracket/position"
	"github.com/dnldd/trendbracket/shared"
	"github.com/rs/zerolog"
)

const (
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 16
)

// Analysis represents the indicators and position activity derived from a bar series.
type Analysis struct {
	Market        string
	Timeframe     shared.Timeframe
	Bars          int
	Candles       []indicator.Candle
	RSI           indicator.Series
	StochasticRSI *indicator.StochasticRSI
	TrendEMA      indicator.Series
	MACD          *indicator.MACD
	SAR           *indicator.ParabolicSAR
	Momentum      *MomentumSignal
	Events        []position.Event
	State         position.State
	Positions     []*position.Position
	Summary       position.Summary
}

// Engine derives indicators and position events from bar series.
type Engine struct {
	cfg     *Config
	logger  zerolog.Logger
	workers chan struct{}
}

// NewEngine initializes a new engine.
func NewEngine(cfg *Config) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating engine config: %w", err)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "engine").Logger()
	}

	return &Engine{
		cfg:     cfg,
		logger:  logger,
		workers: make(chan struct{}, maxWorkers),
	}, nil
}

// Analyze derives the indicators, position events and positions of the provided
// series. It holds no state between calls, analyzing the same series twice
// yields identical results.
func (e *Engine) Analyze(series *shared.BarSeries) (*Analysis, error) {
	if series == nil {
		return nil, fmt.Errorf("bar series cannot be nil")
	}

	closes := series.Closes()

	candles := indicator.HeikinAshi(series)
	rsi := indicator.RSI(closes, e.cfg.RSIPeriod)
	stoch, err := indicator.NewStochasticRSI(rsi, e.cfg.StochasticLength, e.cfg.StochasticK, e.cfg.StochasticD)
	if err != nil {
		return nil, fmt.Errorf("computing stochastic rsi: %w", err)
	}

	trend := indicator.EMA(closes, e.cfg.TrendPeriod)
	macd := indicator.NewMACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	sar, err := indicator.NewParabolicSAR(series, e.cfg.SAR)
	if err != nil {
		return nil, fmt.Errorf("computing parabolic sar: %w", err)
	}

	momentum, err := NewMomentumSignal(indicator.HeikinAshiCloses(candles), trend, stoch.K, stoch.D, e.cfg.Momentum)
	if err != nil {
		return nil, fmt.Errorf("evaluating momentum signal: %w", err)
	}

	in := position.Inputs{
		TrendEMA: trend,
		MACD:     macd.Line,
		Signal:   macd.Signal,
		SAR:      sar.Values,
	}

	events, state, err := position.Run(series, in, e.cfg.Position)
	if err != nil {
		return nil, fmt.Errorf("running position state machine: %w", err)
	}

	positions, err := position.Ledger(series.Market(), series.Timeframe(), events)
	if err != nil {
		return nil, fmt.Errorf("building position ledger: %w", err)
	}

	// Mark a trailing open position to the last close.
	if len(positions) > 0 {
		last := positions[len(positions)-1]
		if last.Status == position.Active {
			_, err := last.UpdatePNLPercent(closes[len(closes)-1])
			if err != nil {
				return nil, err
			}
		}
	}

	summary := position.Summarize(positions)

	e.logger.Debug().
		Str("market", series.Market()).
		Str("timeframe", series.Timeframe().String()).
		Int("bars", series.Len()).
		Int("events", len(events)).
		Int("triggers", len(momentum.Triggers)).
		Int("positions", len(positions)).
		Float64("winPercent", summary.WinPercent).
		Msg("analyzed series")

	return &Analysis{
		Market:        series.Market(),
		Timeframe:     series.Timeframe(),
		Bars:          series.Len(),
		Candles:       candles,
		RSI:           rsi,
		StochasticRSI: stoch,
		TrendEMA:      trend,
		MACD:          macd,
		SAR:           sar,
		Momentum:      momentum,
		Events:        events,
		State:         state,
		Positions:     positions,
		Summary:       summary,
	}, nil
}

// AnalyzeAll analyzes the provided series concurrently. Results are ordered as
// the provided series, a series that failed analysis has a nil result and its
// error is joined into the returned error.
func (e *Engine) AnalyzeAll(ctx context.Context, set []*shared.BarSeries) ([]*Analysis, error) {
	results := make([]*Analysis, len(set))
	errs := make([]error, len(set))

	var wg sync.WaitGroup
	for idx := range set {
		if err := ctx.Err(); err != nil {
			errs[idx] = err
			continue
		}

		select {
		case <-ctx.Done():
			errs[idx] = ctx.Err()
			continue
		case e.workers <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int) {
			defer func() {
				<-e.workers
				wg.Done()
			}()

			analysis, err := e.Analyze(set[idx])
			if err != nil {
				e.logger.Error().Err(err).Int("index", idx).Msg("analyzing series")
				errs[idx] = fmt.Errorf("analyzing series %d: %w", idx, err)
				return
			}

			results[idx] = analysis
		}(idx)
	}

	wg.Wait()

	return results, errors.Join(errs...)
}
