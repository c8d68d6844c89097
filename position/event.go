package position

import (
	"fmt"
	"time"

	"github.com/dnldd/trendbracket/shared"
	"github.com/google/uuid"
)

// EventKind represents the kind of a position event.
type EventKind int

const (
	EnterLong EventKind = iota
	EnterShort
	ExitLongProfit
	ExitLongLoss
	ExitShortProfit
	ExitShortLoss
	ReverseToLong
	ReverseToShort
)

// String stringifies the provided event kind.
func (k EventKind) String() string {
	switch k {
	case EnterLong:
		return "enter-long"
	case EnterShort:
		return "enter-short"
	case ExitLongProfit:
		return "exit-long-profit"
	case ExitLongLoss:
		return "exit-long-loss"
	case ExitShortProfit:
		return "exit-short-profit"
	case ExitShortLoss:
		return "exit-short-loss"
	case ReverseToLong:
		return "reverse-to-long"
	case ReverseToShort:
		return "reverse-to-short"
	default:
		return "unknown"
	}
}

// IsEntry returns whether the event kind opens a position from flat.
func (k EventKind) IsEntry() bool {
	return k == EnterLong || k == EnterShort
}

// IsExit returns whether the event kind closes a position to flat.
func (k EventKind) IsExit() bool {
	switch k {
	case ExitLongProfit, ExitLongLoss, ExitShortProfit, ExitShortLoss:
		return true
	default:
		return false
	}
}

// IsReversal returns whether the event kind closes a position and opens the opposite one.
func (k EventKind) IsReversal() bool {
	return k == ReverseToLong || k == ReverseToShort
}

// Direction returns the direction of the position opened by the event kind, or for
// exits the direction of the position closed.
func (k EventKind) Direction() shared.Direction {
	switch k {
	case EnterShort, ExitShortProfit, ExitShortLoss, ReverseToShort:
		return shared.Short
	default:
		return shared.Long
	}
}

// Event represents a discrete position state change at a bar.
type Event struct {
	ID        string
	Market    string
	Timeframe shared.Timeframe
	Index     int
	Date      time.Time
	Kind      EventKind
	// Price is the execution price of the event.
	Price float64
	// EntryPrice is the entry price of the closed position, set on exits and reversals.
	EntryPrice float64
	// ProfitPercentage is the profit of the closed position, set on exits and reversals.
	ProfitPercentage float64
	// StopLoss and TakeProfit are the new bracket, set on entries and reversals.
	StopLoss   float64
	TakeProfit float64
}

// eventID derives a deterministic identifier for an event from its bar date, so
// repeated runs over overlapping windows of bars produce the same ids.
func eventID(market string, timeframe shared.Timeframe, date time.Time, kind EventKind) string {
	name := fmt.Sprintf("%s/%s/%d/%s", market, timeframe, date.UnixNano(), kind)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// newEvent initializes a new event of the provided kind at the snapshot bar.
func newEvent(kind EventKind, snap *Snapshot, price float64) *Event {
	return &Event{
		ID:        eventID(snap.Bar.Market, snap.Bar.Timeframe, snap.Bar.Date, kind),
		Market:    snap.Bar.Market,
		Timeframe: snap.Bar.Timeframe,
		Index:     snap.Index,
		Date:      snap.Bar.Date,
		Kind:      kind,
		Price:     price,
	}
}

// profitPercent returns the percentage change of a position in the provided
// direction between its entry and exit prices.
func profitPercent(direction shared.Direction, entry float64, exit float64) float64 {
	switch direction {
	case shared.Short:
		return ((entry - exit) / entry) * 100
	default:
		return ((exit - entry) / entry) * 100
	}
}
