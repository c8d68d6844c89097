package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dnldd/trendbracket/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds the prometheus metrics of the analysis service.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisFailures *prometheus.CounterVec
	AnalysisDur      prometheus.Histogram
	FetchDur         prometheus.Histogram
	BarsAnalyzed     *prometheus.GaugeVec
	EventsTotal      *prometheus.CounterVec
	ClosedPositions  *prometheus.CounterVec
	ActivePositions  *prometheus.GaugeVec
	WinPercent       *prometheus.GaugeVec
	CumulativePNL    *prometheus.GaugeVec
	MomentumTriggers *prometheus.CounterVec
}

// NewMetrics creates and registers the service metrics with the provided registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendbracket_analyses_total",
			Help: "Total series analyses completed (by market)",
		}, []string{"market"}),
		AnalysisFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendbracket_analysis_failures_total",
			Help: "Total series analyses that failed (by market)",
		}, []string{"market"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trendbracket_analysis_duration_seconds",
			Help:    "Latency of an analysis pass over all tracked markets",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trendbracket_fetch_duration_seconds",
			Help:    "Latency of fetching the bars of a market",
			Buckets: prometheus.DefBuckets,
		}),
		BarsAnalyzed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendbracket_bars_analyzed",
			Help: "Bars in the last analyzed series (by market)",
		}, []string{"market"}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendbracket_position_events_total",
			Help: "Position events emitted (by market and kind)",
		}, []string{"market", "kind"}),
		ClosedPositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendbracket_closed_positions_total",
			Help: "Positions closed and persisted (by market and status)",
		}, []string{"market", "status"}),
		ActivePositions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendbracket_active_positions",
			Help: "Open positions in the last analysis (by market)",
		}, []string{"market"}),
		WinPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendbracket_win_percent",
			Help: "Win percent of closed positions in the last analysis (by market)",
		}, []string{"market"}),
		CumulativePNL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendbracket_cumulative_pnl_percent",
			Help: "Cumulative pnl percent of closed positions in the last analysis (by market)",
		}, []string{"market"}),
		MomentumTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendbracket_momentum_triggers_total",
			Help: "Momentum signal triggers found (by market)",
		}, []string{"market"}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisFailures,
		m.AnalysisDur,
		m.FetchDur,
		m.BarsAnalyzed,
		m.EventsTotal,
		m.ClosedPositions,
		m.ActivePositions,
		m.WinPercent,
		m.CumulativePNL,
		m.MomentumTriggers,
	)

	return m
}

// ObserveAnalysis records the provided analysis. Only events and triggers dated
// at or after the provided time are counted, bars seen by an earlier analysis
// are not counted twice.
func (m *Metrics) ObserveAnalysis(analysis *engine.Analysis, from time.Time) {
	market := analysis.Market

	m.AnalysesTotal.WithLabelValues(market).Inc()
	m.BarsAnalyzed.WithLabelValues(market).Set(float64(analysis.Bars))
	m.WinPercent.WithLabelValues(market).Set(analysis.Summary.WinPercent)
	m.CumulativePNL.WithLabelValues(market).Set(analysis.Summary.CumulativePNL)

	for idx := range analysis.Events {
		event := &analysis.Events[idx]
		if event.Date.Before(from) {
			continue
		}

		m.EventsTotal.WithLabelValues(market, event.Kind.String()).Inc()
	}

	for _, idx := range analysis.Momentum.Triggers {
		if analysis.Candles[idx].Date.Before(from) {
			continue
		}

		m.MomentumTriggers.WithLabelValues(market).Inc()
	}
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr   string
	srv    *http.Server
	logger *zerolog.Logger
}

// NewServer creates a metrics server exposing the metrics of the provided gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, logger *zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: time.Second * 5,
		},
	}
}

// Handler returns the http handler of the server.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves metrics until the provided context is cancelled.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Msgf("metrics server listening on %s", s.addr)
	err := s.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("metrics server error")
	}
}
