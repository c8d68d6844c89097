package position

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Market tracks the positions of a market across analysis runs.
type Market struct {
	market    string
	closed    map[string]struct{}
	closedMtx sync.Mutex
	active    atomic.Uint32
}

// NewMarket initializes a new market.
func NewMarket(market string) *Market {
	return &Market{
		market: market,
		closed: make(map[string]struct{}),
	}
}

// Update reconciles the positions of an analysis run with the tracked positions
// and returns the positions that closed since they were last seen.
func (m *Market) Update(positions []*Position) ([]*Position, error) {
	for _, pos := range positions {
		if pos == nil {
			return nil, fmt.Errorf("position cannot be nil")
		}
		if pos.Market != m.market {
			return nil, fmt.Errorf("unexpected position market provided: %s", pos.Market)
		}
	}

	m.closedMtx.Lock()
	defer m.closedMtx.Unlock()

	var active uint32
	set := make([]*Position, 0)
	for _, pos := range positions {
		if pos.Status == Active {
			active++
			continue
		}

		// Position ids are derived from their opening event so a position
		// reported by consecutive runs is only closed once.
		if _, ok := m.closed[pos.ID]; ok {
			continue
		}

		m.closed[pos.ID] = struct{}{}
		set = append(set, pos)
	}

	m.active.Store(active)

	return set, nil
}

// ActivePositions returns the number of open positions in the last analysis run.
func (m *Market) ActivePositions() int {
	return int(m.active.Load())
}

// release stops tracking the provided closed position so the next update reports
// it again.
func (m *Market) release(id string) {
	m.closedMtx.Lock()
	delete(m.closed, id)
	m.closedMtx.Unlock()
}
