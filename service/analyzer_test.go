package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dnldd/trendbracket/engine"
	"github.com/dnldd/trendbracket/metrics"
	"github.com/dnldd/trendbracket/position"
	"github.com/dnldd/trendbracket/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tidwall/gjson"
)

type testStorer struct {
	mtx       sync.Mutex
	positions []*position.Position
}

func (s *testStorer) PersistClosedPosition(ctx context.Context, pos *position.Position) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.positions = append(s.positions, pos)
	return nil
}

type testFetcher struct {
	bars []gjson.Result
}

// newTestFetcher creates a fetcher serving a random walk of 15 minute bars
// ending at the provided time, most recent bar first.
func newTestFetcher(end time.Time, n int) *testFetcher {
	rng := rand.New(rand.NewSource(7))
	start := end.Add(-time.Duration(n) * shared.FifteenMinute.Duration()).Truncate(time.Minute)

	entries := make([]string, 0, n)
	price := 100.0
	for idx := 0; idx < n; idx++ {
		open := price
		closePrice := open + rng.NormFloat64()
		high := max(open, closePrice) + rng.Float64()
		low := min(open, closePrice) - rng.Float64()
		price = closePrice

		date := start.Add(time.Duration(idx) * shared.FifteenMinute.Duration())
		entries = append(entries, fmt.Sprintf(`{"date":%q,"open":%f,"high":%f,"low":%f,"close":%f,"volume":100}`,
			date.Format(shared.DateLayout), open, high, low, closePrice))
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return &testFetcher{
		bars: gjson.Parse("[" + strings.Join(entries, ",") + "]").Array(),
	}
}

func (f *testFetcher) FetchHistoricalBars(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]gjson.Result, error) {
	return f.bars, nil
}

func TestAnalyzerConfigValidate(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	tests := []struct {
		name    string
		cfg     AnalyzerConfig
		wantErr []string
	}{
		{
			name: "valid live config",
			cfg: AnalyzerConfig{
				Markets:         []string{"AAPL"},
				Fetcher:         &testFetcher{},
				LookbackDays:    5,
				RefreshInterval: time.Minute,
				Cancel:          cancel,
			},
		},
		{
			name: "invalid live config",
			cfg:  AnalyzerConfig{},
			wantErr: []string{
				"context cancellation function cannot be nil",
				"no markets provided for analyzer service",
				"bar fetcher cannot be nil",
				"lookback days must be positive",
				"refresh interval must be positive",
			},
		},
		{
			name: "valid backtest config",
			cfg: AnalyzerConfig{
				Backtest:             true,
				BacktestDataFilepath: "data.json",
				Cancel:               cancel,
			},
		},
		{
			name: "backtest config without filepath",
			cfg: AnalyzerConfig{
				Backtest: true,
				Cancel:   cancel,
			},
			wantErr: []string{"backtest data filepath cannot be an empty string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			for _, want := range tt.wantErr {
				assert.True(t, strings.Contains(err.Error(), want))
			}
		})
	}
}

func TestAnalyzerBacktest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	cfg := &AnalyzerConfig{
		Params:               engine.DefaultConfig(),
		Backtest:             true,
		BacktestDataFilepath: "../fetch/testdata/historicdata.json",
		Storer:               &testStorer{},
		Metrics:              m,
		Cancel:               cancel,
	}

	analyzer, err := NewAnalyzer(cfg)
	assert.NoError(t, err)

	done := make(chan struct{})
	go func() {
		analyzer.Run(ctx)
		close(done)
	}()

	// Ensure the analyzer cancels the context once the backtest completes.
	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("expected backtest to complete")
	}

	assert.Error(t, ctx.Err())

	// Ensure every backtested market was observed.
	assert.Equal(t, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("BTC-USD")), float64(1))
	assert.Equal(t, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("ETH-USD")), float64(1))
	assert.Equal(t, testutil.ToFloat64(m.BarsAnalyzed.WithLabelValues("BTC-USD")), float64(4))
	assert.Equal(t, testutil.ToFloat64(m.BarsAnalyzed.WithLabelValues("ETH-USD")), float64(3))
}

func TestAnalyzerBacktestMissingData(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer, err := NewAnalyzer(&AnalyzerConfig{
		Params:               engine.DefaultConfig(),
		Backtest:             true,
		BacktestDataFilepath: "testdata/missing.json",
		Cancel:               cancel,
	})
	assert.NoError(t, err)

	// Ensure a failed backtest still terminates the service.
	analyzer.Run(ctx)
	assert.Error(t, ctx.Err())
}

func TestAnalyzerRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	_, loc, err := shared.NewYorkTime()
	assert.NoError(t, err)

	end := time.Date(2025, time.February, 10, 12, 0, 0, 0, loc)

	storer := &testStorer{}
	cfg := &AnalyzerConfig{
		Markets:         []string{"BTC-USD"},
		Timeframe:       shared.FifteenMinute,
		Params:          engine.DefaultConfig(),
		Fetcher:         newTestFetcher(end, 400),
		LookbackDays:    5,
		RefreshInterval: time.Millisecond * 50,
		Storer:          storer,
		Metrics:         m,
		Cancel:          cancel,
	}

	analyzer, err := NewAnalyzer(cfg)
	assert.NoError(t, err)

	done := make(chan struct{})
	go func() {
		analyzer.Run(ctx)
		close(done)
	}()

	// Ensure the scheduled refresh analyzes the tracked markets repeatedly.
	deadline := time.After(time.Second * 5)
	for testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("BTC-USD")) < 2 {
		select {
		case <-deadline:
			t.Fatal("expected repeated market analyses")
		case <-time.After(time.Millisecond * 10):
		}
	}

	assert.Equal(t, testutil.ToFloat64(m.BarsAnalyzed.WithLabelValues("BTC-USD")), float64(400))

	// Ensure closed positions are persisted once across refreshes.
	storer.mtx.Lock()
	seen := make(map[string]bool)
	for _, pos := range storer.positions {
		assert.False(t, seen[pos.ID])
		assert.NotEqual(t, pos.Status, position.Active)
		seen[pos.ID] = true
	}
	storer.mtx.Unlock()

	// Ensure the analyzer shuts down gracefully.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("expected analyzer to shut down")
	}
}

func TestAnalyzerRecordDroppedReport(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer, err := NewAnalyzer(&AnalyzerConfig{
		Params:               engine.DefaultConfig(),
		Backtest:             true,
		BacktestDataFilepath: "../fetch/testdata/historicdata.json",
		Cancel:               cancel,
	})
	assert.NoError(t, err)

	// Fill the report channel of the idle position manager.
	for analyzer.positionManager.SendReport(position.Report{Market: "BTC-USD"}) {
	}

	// Ensure recording does not wait on a report that was dropped.
	start := time.Now()
	analyzer.record([]*engine.Analysis{{Market: "BTC-USD"}})
	assert.True(t, time.Since(start) < time.Second)
}
