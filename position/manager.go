package position

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
)

// Report is the set of positions produced by an analysis run of a market.
type Report struct {
	Market    string
	Positions []*Position
	// Done is closed once the report has been processed, it is optional.
	Done chan struct{}
}

// ManagerConfig represents the position manager configuration.
type ManagerConfig struct {
	// PersistClosedPosition persists the provided closed position to the database.
	PersistClosedPosition func(position *Position) error
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Manager tracks positions reported by analysis runs and persists them once closed.
type Manager struct {
	cfg        *ManagerConfig
	markets    map[string]*Market
	marketsMtx sync.RWMutex
	reports    chan Report
	workers    chan struct{}
}

// NewPositionManager initializes a new position manager.
func NewPositionManager(cfg *ManagerConfig) *Manager {
	return &Manager{
		cfg:     cfg,
		markets: make(map[string]*Market),
		reports: make(chan Report, bufferSize),
		workers: make(chan struct{}, maxWorkers),
	}
}

// SendReport relays the provided report for processing. It returns false when
// the report was dropped, its done channel is then never closed.
func (m *Manager) SendReport(report Report) bool {
	select {
	case m.reports <- report:
		return true
	default:
		m.cfg.Logger.Error().Msgf("report channel at capacity: %d/%d",
			len(m.reports), bufferSize)
		return false
	}
}

// fetchMarket returns the tracked market, creating it if it does not exist.
func (m *Manager) fetchMarket(market string) *Market {
	m.marketsMtx.RLock()
	mkt, ok := m.markets[market]
	m.marketsMtx.RUnlock()
	if ok {
		return mkt
	}

	m.marketsMtx.Lock()
	defer m.marketsMtx.Unlock()

	mkt, ok = m.markets[market]
	if !ok {
		mkt = NewMarket(market)
		m.markets[market] = mkt
	}

	return mkt
}

// ActivePositions returns the number of open positions of the provided market.
func (m *Manager) ActivePositions(market string) int {
	m.marketsMtx.RLock()
	defer m.marketsMtx.RUnlock()

	mkt, ok := m.markets[market]
	if !ok {
		return 0
	}

	return mkt.ActivePositions()
}

// handleReport processes the provided report.
func (m *Manager) handleReport(report Report) {
	defer func() {
		if report.Done != nil {
			close(report.Done)
		}
	}()

	mkt := m.fetchMarket(report.Market)
	closed, err := mkt.Update(report.Positions)
	if err != nil {
		m.cfg.Logger.Error().Msgf("updating %s positions: %v", report.Market, err)
		return
	}

	for _, pos := range closed {
		err := m.cfg.PersistClosedPosition(pos)
		if err != nil {
			m.cfg.Logger.Error().Msgf("persisting closed position %s: %v", pos.ID, err)
			mkt.release(pos.ID)
			continue
		}

		m.cfg.Logger.Info().Msgf("%s %s position (%s) for %s @ %f, pnl %.2f%%",
			pos.Status, pos.Direction, pos.ID, pos.Market, pos.ExitPrice, pos.PNLPercent)
	}
}

// Run manages the lifecycle processes of the position manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-m.reports:
			select {
			case <-ctx.Done():
				return
			case m.workers <- struct{}{}:
			}

			go func(report Report) {
				m.handleReport(report)
				<-m.workers
			}(report)
		}
	}
}
