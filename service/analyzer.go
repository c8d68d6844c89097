package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/trendbracket/database"
	"github.com/dnldd/trendbracket/engine"
	"github.com/dnldd/trendbracket/fetch"
	"github.com/dnldd/trendbracket/metrics"
	"github.com/dnldd/trendbracket/position"
	"github.com/dnldd/trendbracket/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// persistTimeout is the maximum duration of persisting a closed position.
	persistTimeout = time.Second * 10
)

// AnalyzerConfig represents the configuration struct for the analyzer service.
type AnalyzerConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// Timeframe is the timeframe of the tracked market bars.
	Timeframe shared.Timeframe
	// Params are the strategy parameters of the engine.
	Params engine.Config
	// Fetcher fetches the bars of tracked markets.
	Fetcher shared.BarFetcher
	// LookbackDays is the number of days of bars analyzed on every refresh.
	LookbackDays int
	// RefreshInterval is the interval between analyses of the tracked markets.
	RefreshInterval time.Duration
	// Backtest is the backtesting flag.
	Backtest bool
	// BacktestDataFilepath is the filepath to the backtest data.
	BacktestDataFilepath string
	// Storer persists closed positions, it is optional.
	Storer database.PositionStorer
	// Metrics records service metrics, it is optional.
	Metrics *metrics.Metrics
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *AnalyzerConfig) Validate() error {
	var errs error

	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	switch {
	case cfg.Backtest:
		if cfg.BacktestDataFilepath == "" {
			errs = errors.Join(errs, fmt.Errorf("backtest data filepath cannot be an empty string"))
		}
	default:
		if len(cfg.Markets) == 0 {
			errs = errors.Join(errs, fmt.Errorf("no markets provided for analyzer service"))
		}
		if cfg.Fetcher == nil {
			errs = errors.Join(errs, fmt.Errorf("bar fetcher cannot be nil"))
		}
		if cfg.LookbackDays <= 0 {
			errs = errors.Join(errs, fmt.Errorf("lookback days must be positive, got %d", cfg.LookbackDays))
		}
		if cfg.RefreshInterval <= 0 {
			errs = errors.Join(errs, fmt.Errorf("refresh interval must be positive, got %s", cfg.RefreshInterval))
		}
	}

	return errs
}

// Analyzer represents a market analysis service.
type Analyzer struct {
	cfg             *AnalyzerConfig
	engine          *engine.Engine
	positionManager *position.Manager
	jobScheduler    *gocron.Scheduler
	location        *time.Location
	lastSeen        map[string]time.Time
	lastSeenMtx     sync.Mutex
	logger          *zerolog.Logger
	wg              sync.WaitGroup
}

// NewAnalyzer initializes a new analyzer service.
func NewAnalyzer(cfg *AnalyzerConfig) (*Analyzer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating analyzer config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "analyzer").Logger()

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return nil, fmt.Errorf("fetching new york time: %w", err)
	}

	params := cfg.Params
	engineLogger := logger.With().Str("component", "engine").Logger()
	params.Logger = &engineLogger

	eng, err := engine.NewEngine(&params)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	service := &Analyzer{
		cfg:          cfg,
		engine:       eng,
		jobScheduler: gocron.NewScheduler(loc),
		location:     loc,
		lastSeen:     make(map[string]time.Time),
		logger:       &logger,
	}

	positionMgrLogger := logger.With().Str("component", "positionmanager").Logger()
	service.positionManager = position.NewPositionManager(&position.ManagerConfig{
		PersistClosedPosition: service.persistClosedPosition,
		Logger:                &positionMgrLogger,
	})

	return service, nil
}

// persistClosedPosition stores the provided closed position when a storer is configured.
func (a *Analyzer) persistClosedPosition(pos *position.Position) error {
	if a.cfg.Storer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		err := a.cfg.Storer.PersistClosedPosition(ctx, pos)
		if err != nil {
			return err
		}
	}

	if a.cfg.Metrics != nil {
		a.cfg.Metrics.ClosedPositions.WithLabelValues(pos.Market, pos.Status.String()).Inc()
	}

	return nil
}

// record relays the positions of the provided analyses to the position manager and
// records their metrics. It waits for the reports to be processed.
func (a *Analyzer) record(results []*engine.Analysis) {
	for _, result := range results {
		if result == nil {
			continue
		}

		done := make(chan struct{})
		queued := a.positionManager.SendReport(position.Report{
			Market:    result.Market,
			Positions: result.Positions,
			Done:      done,
		})

		if queued {
			select {
			case <-done:
			case <-time.After(persistTimeout):
				a.logger.Error().Msgf("timed out recording %s positions", result.Market)
			}
		}

		if a.cfg.Metrics != nil {
			a.cfg.Metrics.ActivePositions.WithLabelValues(result.Market).
				Set(float64(a.positionManager.ActivePositions(result.Market)))
		}
	}
}

// observe records the metrics of the provided analysis, counting only bars not
// seen by an earlier analysis.
func (a *Analyzer) observe(result *engine.Analysis) {
	if result.Bars == 0 {
		return
	}

	a.lastSeenMtx.Lock()
	from := a.lastSeen[result.Market]
	a.lastSeen[result.Market] = result.Candles[result.Bars-1].Date.Add(time.Nanosecond)
	a.lastSeenMtx.Unlock()

	if a.cfg.Metrics != nil {
		a.cfg.Metrics.ObserveAnalysis(result, from)
	}
}

// backtest analyzes the historic data and logs the performance of every market.
func (a *Analyzer) backtest(ctx context.Context) error {
	historicLogger := a.logger.With().Str("component", "historicdata").Logger()
	set, err := fetch.LoadHistoricData(&fetch.HistoricDataConfig{
		FilePath: a.cfg.BacktestDataFilepath,
		Location: a.location,
		Logger:   &historicLogger,
	})
	if err != nil {
		return fmt.Errorf("loading backtest data: %w", err)
	}

	start := time.Now()
	results, err := a.engine.AnalyzeAll(ctx, set)
	if a.cfg.Metrics != nil {
		a.cfg.Metrics.AnalysisDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("analyzing backtest data")
	}

	for _, result := range results {
		if result == nil {
			continue
		}

		a.observe(result)
		a.logger.Info().
			Str("market", result.Market).
			Str("timeframe", result.Timeframe.String()).
			Int("bars", result.Bars).
			Int("positions", result.Summary.Total).
			Int("wins", result.Summary.Wins).
			Int("losses", result.Summary.Losses).
			Float64("winPercent", result.Summary.WinPercent).
			Float64("cumulativePNL", result.Summary.CumulativePNL).
			Int("momentumTriggers", len(result.Momentum.Triggers)).
			Msg("backtest complete")
	}

	a.record(results)

	return nil
}

// refresh fetches and analyzes the bars of every tracked market.
func (a *Analyzer) refresh(ctx context.Context) {
	now := time.Now().In(a.location)
	start := now.AddDate(0, 0, -a.cfg.LookbackDays)

	set := make([]*shared.BarSeries, 0, len(a.cfg.Markets))
	for _, market := range a.cfg.Markets {
		fetchStart := time.Now()
		series, err := fetch.FetchSeries(ctx, a.cfg.Fetcher, market, a.cfg.Timeframe, start, time.Time{}, a.location)
		if a.cfg.Metrics != nil {
			a.cfg.Metrics.FetchDur.Observe(time.Since(fetchStart).Seconds())
		}
		if err != nil {
			a.logger.Error().Err(err).Msgf("fetching %s bars", market)
			if a.cfg.Metrics != nil {
				a.cfg.Metrics.AnalysisFailures.WithLabelValues(market).Inc()
			}
			continue
		}

		set = append(set, series)
	}

	analysisStart := time.Now()
	results, err := a.engine.AnalyzeAll(ctx, set)
	if a.cfg.Metrics != nil {
		a.cfg.Metrics.AnalysisDur.Observe(time.Since(analysisStart).Seconds())
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("analyzing tracked markets")
	}

	for idx, result := range results {
		if result == nil {
			if a.cfg.Metrics != nil {
				a.cfg.Metrics.AnalysisFailures.WithLabelValues(set[idx].Market()).Inc()
			}
			continue
		}

		a.observe(result)
		a.logger.Debug().Msgf("%s: %s with %d positions, win percent %.2f", result.Market,
			result.State, len(result.Positions), result.Summary.WinPercent)
	}

	a.record(results)
}

// Run handles the lifecycle processes of the analyzer service.
func (a *Analyzer) Run(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		a.positionManager.Run(ctx)
		a.wg.Done()
	}()

	switch {
	case a.cfg.Backtest:
		err := a.backtest(ctx)
		if err != nil {
			a.logger.Error().Err(err).Msg("running backtest")
		}

		a.logger.Info().Msgf("backtest of %s done", a.cfg.BacktestDataFilepath)
		a.cfg.Cancel()

	default:
		a.jobScheduler.SingletonModeAll()
		_, err := a.jobScheduler.Every(a.cfg.RefreshInterval).Do(a.refresh, ctx)
		if err != nil {
			a.logger.Error().Err(err).Msg("scheduling market refresh job")
			a.cfg.Cancel()
			break
		}

		a.jobScheduler.StartAsync()
		<-ctx.Done()
		a.jobScheduler.Stop()
	}

	a.wg.Wait()
}
