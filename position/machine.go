package position

import (
	"fmt"
	"math"

	"github.com/dnldd/trendbracket/shared"
)

// Snapshot is the indicator context of a single bar evaluated by the state machine.
// Unavailable indicator values are NaN.
type Snapshot struct {
	Index      int
	Bar        shared.Bar
	TrendEMA   float64
	MACD       float64
	Signal     float64
	PrevMACD   float64
	PrevSignal float64
	SAR        float64
}

// available returns whether every indicator value of the snapshot is available.
func (s *Snapshot) available() bool {
	for _, v := range []float64{s.TrendEMA, s.MACD, s.Signal, s.PrevMACD, s.PrevSignal, s.SAR} {
		if math.IsNaN(v) {
			return false
		}
	}

	return true
}

// longSetup returns whether the snapshot satisfies the long entry conditions: price
// above the trend average, a bullish macd crossover and the sar below the bar.
func (s *Snapshot) longSetup() bool {
	return s.available() &&
		s.Bar.Close > s.TrendEMA &&
		s.MACD > s.Signal && s.PrevMACD <= s.PrevSignal &&
		s.SAR < s.Bar.Low
}

// shortSetup returns whether the snapshot satisfies the short entry conditions.
func (s *Snapshot) shortSetup() bool {
	return s.available() &&
		s.Bar.Close < s.TrendEMA &&
		s.MACD < s.Signal && s.PrevMACD >= s.PrevSignal &&
		s.SAR > s.Bar.High
}

// bracketFor sets a bracket at the snapshot close with the stop loss at the sar.
func bracketFor(direction shared.Direction, snap *Snapshot, cfg *Config) Bracket {
	entry := snap.Bar.Close
	risk := math.Abs(entry - snap.SAR)

	takeProfit := entry + cfg.RewardRisk*risk
	if direction == shared.Short {
		takeProfit = entry - cfg.RewardRisk*risk
	}

	return Bracket{
		EntryIndex: snap.Index,
		EntryPrice: entry,
		StopLoss:   snap.SAR,
		TakeProfit: takeProfit,
	}
}

// open returns the state and entry event of a position in the provided direction.
func open(direction shared.Direction, kind EventKind, snap *Snapshot, cfg *Config) (State, *Event) {
	bracket := bracketFor(direction, snap, cfg)

	event := newEvent(kind, snap, bracket.EntryPrice)
	event.StopLoss = bracket.StopLoss
	event.TakeProfit = bracket.TakeProfit

	if direction == shared.Short {
		return ShortState(bracket), event
	}

	return LongState(bracket), event
}

// exit returns the flat state and exit event of a position closed at the provided price.
func exit(kind EventKind, bracket Bracket, snap *Snapshot, price float64) (State, *Event) {
	event := newEvent(kind, snap, price)
	event.EntryPrice = bracket.EntryPrice
	event.ProfitPercentage = profitPercent(kind.Direction(), bracket.EntryPrice, price)

	return FlatState(), event
}

// reverse returns the state and reversal event of a position closed at the snapshot
// close and reopened in the opposite direction.
func reverse(kind EventKind, bracket Bracket, snap *Snapshot, cfg *Config) (State, *Event) {
	direction := kind.Direction()
	state, event := open(direction, kind, snap, cfg)
	event.EntryPrice = bracket.EntryPrice
	event.ProfitPercentage = profitPercent(direction.Opposite(), bracket.EntryPrice, snap.Bar.Close)

	return state, event
}

// Step advances the state machine by one bar. It returns the next state and the
// event emitted at the bar, if any.
//
// A held position is first checked against its bracket, take profit before stop
// loss. A bar that exits never opens a position. In long-short mode an opposite
// setup reverses a held position at the close.
func Step(state State, snap Snapshot, cfg Config) (State, *Event) {
	switch state.Kind() {
	case InLong:
		bracket := state.bracket
		switch {
		case snap.Bar.High >= bracket.TakeProfit:
			return exit(ExitLongProfit, bracket, &snap, bracket.TakeProfit)
		case snap.Bar.Low <= bracket.StopLoss:
			return exit(ExitLongLoss, bracket, &snap, bracket.StopLoss)
		case cfg.Mode == LongShort && snap.shortSetup():
			return reverse(ReverseToShort, bracket, &snap, &cfg)
		}

	case InShort:
		bracket := state.bracket
		switch {
		case snap.Bar.Low <= bracket.TakeProfit:
			return exit(ExitShortProfit, bracket, &snap, bracket.TakeProfit)
		case snap.Bar.High >= bracket.StopLoss:
			return exit(ExitShortLoss, bracket, &snap, bracket.StopLoss)
		case cfg.Mode == LongShort && snap.longSetup():
			return reverse(ReverseToLong, bracket, &snap, &cfg)
		}

	default:
		switch {
		case snap.longSetup():
			return open(shared.Long, EnterLong, &snap, &cfg)
		case cfg.Mode == LongShort && snap.shortSetup():
			return open(shared.Short, EnterShort, &snap, &cfg)
		}
	}

	return state, nil
}

// Inputs are the indicator series consumed by the state machine, aligned by index
// with the bar series.
type Inputs struct {
	TrendEMA []float64
	MACD     []float64
	Signal   []float64
	SAR      []float64
}

// validate asserts every input is aligned with a series of the provided length.
func (in *Inputs) validate(n int) error {
	set := []struct {
		name   string
		values []float64
	}{
		{"trend ema", in.TrendEMA},
		{"macd", in.MACD},
		{"signal", in.Signal},
		{"sar", in.SAR},
	}

	for _, s := range set {
		if len(s.values) != n {
			return fmt.Errorf("%s series length %d does not match bar series length %d", s.name, len(s.values), n)
		}
	}

	return nil
}

// Run folds the state machine over the provided bar series from the second bar
// onwards and returns the ordered events emitted and the final state.
func Run(series *shared.BarSeries, in Inputs, cfg Config) ([]Event, State, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, FlatState(), fmt.Errorf("validating position config: %w", err)
	}

	err = in.validate(series.Len())
	if err != nil {
		return nil, FlatState(), err
	}

	events := make([]Event, 0)
	state := FlatState()
	for idx := 1; idx < series.Len(); idx++ {
		snap := Snapshot{
			Index:      idx,
			Bar:        series.At(idx),
			TrendEMA:   in.TrendEMA[idx],
			MACD:       in.MACD[idx],
			Signal:     in.Signal[idx],
			PrevMACD:   in.MACD[idx-1],
			PrevSignal: in.Signal[idx-1],
			SAR:        in.SAR[idx],
		}

		var event *Event
		state, event = Step(state, snap, cfg)
		if event != nil {
			events = append(events, *event)
		}
	}

	return events, state, nil
}
