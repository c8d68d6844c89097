package position

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultRewardRisk is the default take profit to stop loss distance ratio.
	DefaultRewardRisk = 1.0
)

// Mode represents the trading directions the state machine is allowed to take.
type Mode int

const (
	LongOnly Mode = iota
	LongShort
)

// String stringifies the provided mode.
func (m Mode) String() string {
	switch m {
	case LongOnly:
		return "long-only"
	case LongShort:
		return "long-short"
	default:
		return "unknown"
	}
}

// ParseMode parses the provided mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "long-only":
		return LongOnly, nil
	case "long-short":
		return LongShort, nil
	default:
		return 0, fmt.Errorf("unknown mode provided: %s", s)
	}
}

// Config represents the position state machine configuration.
type Config struct {
	// Mode is the set of directions positions can be opened in.
	Mode Mode
	// RewardRisk is the ratio of the take profit distance to the stop loss distance.
	RewardRisk float64
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Mode != LongOnly && cfg.Mode != LongShort {
		errs = errors.Join(errs, fmt.Errorf("unknown position mode %d", cfg.Mode))
	}
	if !(cfg.RewardRisk > 0) || math.IsInf(cfg.RewardRisk, 0) {
		errs = errors.Join(errs, fmt.Errorf("reward to risk ratio must be positive and finite, got %v", cfg.RewardRisk))
	}

	return errs
}

// StateKind represents the kind of position currently held.
type StateKind int

const (
	Flat StateKind = iota
	InLong
	InShort
)

// String stringifies the provided state kind.
func (k StateKind) String() string {
	switch k {
	case Flat:
		return "flat"
	case InLong:
		return "long"
	case InShort:
		return "short"
	default:
		return "unknown"
	}
}

// Bracket is the fixed stop loss and take profit pair set on entry.
type Bracket struct {
	EntryIndex int
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
}

// State is the position state machine state. A bracket is only held when the
// state is not flat.
type State struct {
	kind    StateKind
	bracket Bracket
}

// FlatState returns a state holding no position.
func FlatState() State {
	return State{kind: Flat}
}

// LongState returns a state holding a long position under the provided bracket.
func LongState(bracket Bracket) State {
	return State{kind: InLong, bracket: bracket}
}

// ShortState returns a state holding a short position under the provided bracket.
func ShortState(bracket Bracket) State {
	return State{kind: InShort, bracket: bracket}
}

// Kind returns the kind of position held.
func (s State) Kind() StateKind {
	return s.kind
}

// Bracket returns the bracket of the held position, it is false when flat.
func (s State) Bracket() (Bracket, bool) {
	if s.kind == Flat {
		return Bracket{}, false
	}

	return s.bracket, true
}

// String stringifies the provided state.
func (s State) String() string {
	if s.kind == Flat {
		return s.kind.String()
	}

	return fmt.Sprintf("%s (entry %v, sl %v, tp %v)", s.kind, s.bracket.EntryPrice,
		s.bracket.StopLoss, s.bracket.TakeProfit)
}
