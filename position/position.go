package position

import (
	"fmt"

	"github.com/dnldd/trendbracket/shared"
)

// PositionStatus represents the status of a position.
type PositionStatus int

const (
	Active PositionStatus = iota
	StoppedOut
	Closed
	Reversed
)

// String stringifies the provided position status.
func (s PositionStatus) String() string {
	switch s {
	case Active:
		return "active"
	case StoppedOut:
		return "stopped out"
	case Closed:
		return "closed"
	case Reversed:
		return "reversed"
	default:
		return "unknown"
	}
}

// Position represents a market position opened by an entry or reversal event.
type Position struct {
	ID         string
	Market     string
	Timeframe  shared.Timeframe
	Direction  shared.Direction
	StopLoss   float64
	TakeProfit float64
	PNLPercent float64
	EntryPrice float64
	EntryIndex int
	ExitPrice  float64
	ExitIndex  int
	Status     PositionStatus
	CreatedOn  uint64
	ClosedOn   uint64
}

// NewPosition initializes a new position from the provided entry or reversal event.
func NewPosition(event *Event) (*Position, error) {
	if event == nil {
		return nil, fmt.Errorf("event cannot be nil")
	}
	if !event.Kind.IsEntry() && !event.Kind.IsReversal() {
		return nil, fmt.Errorf("%s event does not open a position", event.Kind)
	}

	pos := &Position{
		ID:         event.ID,
		Market:     event.Market,
		Timeframe:  event.Timeframe,
		Direction:  event.Kind.Direction(),
		StopLoss:   event.StopLoss,
		TakeProfit: event.TakeProfit,
		EntryPrice: event.Price,
		EntryIndex: event.Index,
		ExitIndex:  -1,
		Status:     Active,
		CreatedOn:  uint64(event.Date.Unix()),
	}

	return pos, nil
}

// ClosePosition closes the position using the provided exit or reversal event.
func (p *Position) ClosePosition(event *Event) (PositionStatus, error) {
	if p.Status != Active {
		return p.Status, fmt.Errorf("position %s is already %s", p.ID, p.Status)
	}

	switch {
	case event.Kind.IsReversal():
		if event.Kind.Direction() == p.Direction {
			return p.Status, fmt.Errorf("%s event cannot close a %s position", event.Kind, p.Direction)
		}
		p.Status = Reversed
	case event.Kind.IsExit():
		if event.Kind.Direction() != p.Direction {
			return p.Status, fmt.Errorf("%s event cannot close a %s position", event.Kind, p.Direction)
		}
		switch event.Kind {
		case ExitLongLoss, ExitShortLoss:
			p.Status = StoppedOut
		default:
			p.Status = Closed
		}
	default:
		return p.Status, fmt.Errorf("%s event does not close a position", event.Kind)
	}

	p.ExitPrice = event.Price
	p.ExitIndex = event.Index
	p.ClosedOn = uint64(event.Date.Unix())
	p.PNLPercent = profitPercent(p.Direction, p.EntryPrice, p.ExitPrice)

	return p.Status, nil
}

// UpdatePNLPercent updates the percentage change of the position given the current price.
func (p *Position) UpdatePNLPercent(currentPrice float64) (float64, error) {
	switch p.Direction {
	case shared.Long, shared.Short:
		p.PNLPercent = profitPercent(p.Direction, p.EntryPrice, currentPrice)
	default:
		return 0, fmt.Errorf("unknown direction for position: %s", p.Direction.String())
	}

	return p.PNLPercent, nil
}

// Ledger folds the provided ordered events of a market into positions. Reversals
// close the held position and open the opposite one, a trailing open position is
// reported as active.
func Ledger(market string, timeframe shared.Timeframe, events []Event) ([]*Position, error) {
	positions := make([]*Position, 0)
	var current *Position

	for idx := range events {
		event := &events[idx]
		if event.Market != market || event.Timeframe != timeframe {
			return nil, fmt.Errorf("unexpected %s %s event %s for %s %s ledger", event.Market,
				event.Timeframe, event.ID, market, timeframe)
		}

		switch {
		case event.Kind.IsEntry():
			if current != nil {
				return nil, fmt.Errorf("%s event at index %d while position %s is active",
					event.Kind, event.Index, current.ID)
			}

		case event.Kind.IsExit(), event.Kind.IsReversal():
			if current == nil {
				return nil, fmt.Errorf("%s event at index %d with no active position",
					event.Kind, event.Index)
			}

			_, err := current.ClosePosition(event)
			if err != nil {
				return nil, fmt.Errorf("closing position: %w", err)
			}
			current = nil

			if event.Kind.IsExit() {
				continue
			}

		default:
			return nil, fmt.Errorf("unknown event kind at index %d", event.Index)
		}

		pos, err := NewPosition(event)
		if err != nil {
			return nil, err
		}

		positions = append(positions, pos)
		current = pos
	}

	return positions, nil
}

// Summary represents the performance of a set of closed positions.
type Summary struct {
	Total         int
	Wins          int
	Losses        int
	WinPercent    float64
	CumulativePNL float64
}

// Summarize computes the performance summary of the provided positions. Active
// positions are not counted.
func Summarize(positions []*Position) Summary {
	var summary Summary
	for _, pos := range positions {
		if pos.Status == Active {
			continue
		}

		summary.Total++
		summary.CumulativePNL += pos.PNLPercent
		if pos.PNLPercent > 0 {
			summary.Wins++
		} else {
			summary.Losses++
		}
	}

	if summary.Total > 0 {
		summary.WinPercent = float64(summary.Wins) / float64(summary.Total) * 100
	}

	return summary
}
