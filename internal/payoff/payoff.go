// Package payoff models per-leg and aggregate profit/loss of multi-leg
// option strategies at hypothetical underlying prices.
//
// All amounts are in currency units for a fixed contract multiplier of 100
// shares per contract. Functions here are pure; evaluating a full price
// grid is safe to fan out across goroutines.
package payoff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ContractSize is the number of shares per option contract.
const ContractSize = 100

// Action is the side of an option leg.
type Action int

const (
	Buy Action = iota
	Sell
)

// OptionType distinguishes calls from puts.
type OptionType int

const (
	CallOption OptionType = iota
	PutOption
)

// ParseAction converts the JSON/config spelling ("buy", "sell") into an
// Action. Matching is case-insensitive. Parsing is the only place an
// invalid side can be rejected; past this boundary the Action/OptionType
// pair is exhaustive and every leg contributes to the payoff sum.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("invalid action %q", s)
	}
}

// ParseOptionType converts "call"/"put" into an OptionType, defaulting to
// call on empty input like the strategy JSON does.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c", "":
		return CallOption, nil
	case "put", "p":
		return PutOption, nil
	default:
		return 0, fmt.Errorf("invalid option type %q", s)
	}
}

func (a Action) String() string {
	if a == Sell {
		return "sell"
	}
	return "buy"
}

func (o OptionType) String() string {
	if o == PutOption {
		return "put"
	}
	return "call"
}

// Leg is one fully resolved option position within a strategy. Immutable
// once constructed.
type Leg struct {
	Action  Action     `json:"action"`
	Type    OptionType `json:"option_type"`
	Strike  float64    `json:"strike"`
	Premium float64    `json:"premium"` // per share
	Qty     int        `json:"qty"`     // contracts, >= 1
	Expiry  time.Time  `json:"expiry,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error)     { return json.Marshal(a.String()) }
func (o OptionType) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (o *OptionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseOptionType(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// LegPayoff returns the signed P/L in currency of a single leg with the
// underlying at price s.
//
// The premium committed to the position is Premium·100·Qty. A long leg
// pays that premium and earns intrinsic value past the strike; a short leg
// keeps the premium and loses intrinsic value past the strike:
//
//	buy  call, s >= K:  (s-K)·100·qty − premium
//	sell call, s >= K:  premium − (s-K)·100·qty
//	buy  put,  s <= K:  (K-s)·100·qty − premium
//	sell put,  s <= K:  premium − (K-s)·100·qty
//
// Out of the money the leg is worth exactly the premium, signed by the
// side. The switch covers
// the full Action × OptionType space, so every constructible leg has a
// defined payoff.
func LegPayoff(leg Leg, s float64) float64 {
	premium := leg.Premium * ContractSize * float64(leg.Qty)
	intrinsic := 0.0

	switch leg.Type {
	case CallOption:
		if s >= leg.Strike {
			intrinsic = (s - leg.Strike) * ContractSize * float64(leg.Qty)
		}
	case PutOption:
		if s <= leg.Strike {
			intrinsic = (leg.Strike - s) * ContractSize * float64(leg.Qty)
		}
	}

	switch leg.Action {
	case Sell:
		return premium - intrinsic
	default: // Buy
		return intrinsic - premium
	}
}

// Payoff sums LegPayoff over all legs of a strategy at underlying price s.
// Leg order is irrelevant; contributions are commutative.
func Payoff(legs []Leg, s float64) float64 {
	total := 0.0
	for _, leg := range legs {
		total += LegPayoff(leg, s)
	}
	return total
}

// Point is one evaluation of a strategy payoff curve.
type Point struct {
	Underlying float64 `json:"underlying" csv:"underlying"`
	Value      float64 `json:"payoff" csv:"payoff"`
}

// Curve evaluates the aggregate payoff at each of the given underlying
// prices, in order. This is the entry point for payoff-diagram renderers.
func Curve(legs []Leg, prices []float64) []Point {
	out := make([]Point, 0, len(prices))
	for _, s := range prices {
		out = append(out, Point{Underlying: s, Value: Payoff(legs, s)})
	}
	return out
}

// PriceRange builds a default evaluation grid for a strategy: steps points
// spanning from 30% below the lowest reference price to 30% above the
// highest, where the reference prices are the spot and every leg strike.
func PriceRange(legs []Leg, spot float64, steps int) []float64 {
	if steps < 2 {
		steps = 2
	}

	lo, hi := spot, spot
	for _, leg := range legs {
		if leg.Strike < lo {
			lo = leg.Strike
		}
		if leg.Strike > hi {
			hi = leg.Strike
		}
	}
	lo *= 0.7
	hi *= 1.3

	out := make([]float64, 0, steps)
	step := (hi - lo) / float64(steps-1)
	for i := 0; i < steps; i++ {
		out = append(out, lo+step*float64(i))
	}
	return out
}

// Breakevens scans a payoff curve for underlying prices where the
// aggregate P/L crosses zero, interpolating linearly between adjacent
// points. The input grid is sorted before scanning.
func Breakevens(legs []Leg, prices []float64) []float64 {
	if len(prices) == 0 {
		return nil
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	var out []float64
	prev := Payoff(legs, sorted[0])
	if prev == 0 {
		out = append(out, sorted[0])
	}
	for i := 1; i < len(sorted); i++ {
		cur := Payoff(legs, sorted[i])
		switch {
		case cur == 0:
			out = append(out, sorted[i])
		case prev != 0 && (prev < 0) != (cur < 0):
			// linear interpolation between the bracketing points
			frac := prev / (prev - cur)
			out = append(out, sorted[i-1]+frac*(sorted[i]-sorted[i-1]))
		}
		prev = cur
	}
	return out
}
