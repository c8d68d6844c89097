package position

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dnldd/trendbracket/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

func setupManager() (*Manager, chan *Position, *error) {
	persisted := make(chan *Position, 10)
	var persistClosedPositionErr error
	persistClosedPosition := func(pos *Position) error {
		if persistClosedPositionErr != nil {
			return persistClosedPositionErr
		}

		persisted <- pos
		return nil
	}

	cfg := &ManagerConfig{
		PersistClosedPosition: persistClosedPosition,
		Logger:                &log.Logger,
	}

	return NewPositionManager(cfg), persisted, &persistClosedPositionErr
}

// reportPositions returns a closed and an active position of the provided market.
func reportPositions(t *testing.T, market string) []*Position {
	t.Helper()

	entry := testEvent("a", 2, EnterLong, 100)
	entry.Market = market
	exit := testEvent("b", 4, ExitLongProfit, 102)
	exit.Market = market
	next := testEvent("c", 6, EnterLong, 101)
	next.Market = market

	positions, err := Ledger(market, shared.OneHour, []Event{entry, exit, next})
	assert.NoError(t, err)

	return positions
}

// sendReport sends the provided report and waits for it to be processed.
func sendReport(t *testing.T, mgr *Manager, market string, positions []*Position) {
	t.Helper()

	done := make(chan struct{})
	queued := mgr.SendReport(Report{Market: market, Positions: positions, Done: done})
	assert.True(t, queued)
	<-done
}

func TestManager(t *testing.T) {
	market := "AAPL"
	mgr, persisted, persistErr := setupManager()

	// Ensure the position manager can be started.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		mgr.Run(ctx)
		close(done)
	}()

	positions := reportPositions(t, market)

	// Ensure closed positions are persisted and active ones are tracked.
	sendReport(t, mgr, market, positions)
	assert.Equal(t, len(persisted), 1)
	pos := <-persisted
	assert.Equal(t, pos.ID, "a")
	assert.Equal(t, mgr.ActivePositions(market), 1)
	assert.Equal(t, mgr.ActivePositions("MSFT"), 0)

	// Ensure a closed position reported again is not persisted twice.
	sendReport(t, mgr, market, positions)
	assert.Equal(t, len(persisted), 0)

	// Ensure a position that failed to persist is retried on the next report.
	*persistErr = errors.New("unexpected error")
	closing := testEvent("d", 8, ExitLongLoss, 99)
	closing.Market = market
	_, err := positions[1].ClosePosition(&closing)
	assert.NoError(t, err)

	sendReport(t, mgr, market, positions)
	assert.Equal(t, len(persisted), 0)
	assert.Equal(t, mgr.ActivePositions(market), 0)

	*persistErr = nil
	sendReport(t, mgr, market, positions)
	assert.Equal(t, len(persisted), 1)
	pos = <-persisted
	assert.Equal(t, pos.ID, "c")
	assert.Equal(t, pos.Status, StoppedOut)

	// Ensure reports with positions of another market are rejected.
	sendReport(t, mgr, "MSFT", positions)
	assert.Equal(t, len(persisted), 0)

	// Ensure the position manager can be stopped.
	cancel()
	<-done
}

func TestManagerSendReportAtCapacity(t *testing.T) {
	mgr, _, _ := setupManager()

	// Ensure reports are queued until the channel is at capacity.
	for idx := 0; idx < bufferSize; idx++ {
		assert.True(t, mgr.SendReport(Report{Market: "AAPL"}))
	}

	// Ensure a report sent at capacity is reported as dropped.
	assert.False(t, mgr.SendReport(Report{Market: "AAPL", Done: make(chan struct{})}))
	assert.Equal(t, len(mgr.reports), bufferSize)
}

func TestManagerStopsWithBusyWorkers(t *testing.T) {
	mgr, _, _ := setupManager()

	// Occupy every worker slot.
	for idx := 0; idx < maxWorkers; idx++ {
		mgr.workers <- struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		mgr.Run(ctx)
		close(done)
	}()

	assert.True(t, mgr.SendReport(Report{Market: "AAPL"}))

	// Wait for the report to be received while the workers are busy.
	deadline := time.After(time.Second * 2)
	for len(mgr.reports) > 0 {
		select {
		case <-deadline:
			t.Fatal("expected report to be received")
		case <-time.After(time.Millisecond * 5):
		}
	}

	// Ensure the position manager stops while waiting on a worker slot.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second * 2):
		t.Fatal("expected position manager to stop")
	}
}

func TestMarketUpdate(t *testing.T) {
	mkt := NewMarket("AAPL")

	// Ensure nil positions are rejected.
	_, err := mkt.Update([]*Position{nil})
	assert.Error(t, err)

	positions := reportPositions(t, "AAPL")
	closed, err := mkt.Update(positions)
	assert.NoError(t, err)
	assert.Equal(t, len(closed), 1)
	assert.Equal(t, mkt.ActivePositions(), 1)

	closed, err = mkt.Update(positions)
	assert.NoError(t, err)
	assert.Equal(t, len(closed), 0)

	// Ensure released positions are reported again.
	mkt.release("a")
	closed, err = mkt.Update(positions)
	assert.NoError(t, err)
	assert.Equal(t, len(closed), 1)
}
