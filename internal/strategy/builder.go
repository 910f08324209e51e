// Package strategy converts a high-level option strategy definition into
// fully-resolved payoff legs.
//
// Responsibilities:
//   - Resolve strikes using rules such as ATM, DELTA, or leg expressions
//   - Resolve premiums from explicit prices, data providers, or the
//     Black-Scholes model
//   - Produce deterministic legs ready for payoff and pricing analytics
//
// Design notes:
//   - This package is deterministic given inputs and provider behavior
//   - Logging is informational only and does not affect results
//   - Errors are typed where useful and wrapped for caller inspection
package strategy

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/option-analytics/internal/data"
	"github.com/contactkeval/option-analytics/internal/logger"
	"github.com/contactkeval/option-analytics/internal/payoff"
	"github.com/contactkeval/option-analytics/internal/pricing"
)

//
// ==========================
// Error taxonomy
// ==========================
//

// Typed errors allow callers and tests to detect failure categories
// without string matching.
var (
	ErrInvalidStrikeExpression = errors.New("invalid strike expression")
	ErrLegIndexOutOfRange      = errors.New("leg index out of range")
)

//
// ==========================
// Domain Types
// ==========================
//

// LegSpec defines a single option leg as provided by the user or strategy
// JSON. This struct represents *intent*, not resolved market values.
type LegSpec struct {
	Side       string  `json:"side,omitempty"`        // buy or sell (default: buy)
	OptionType string  `json:"option_type,omitempty"` // call or put (default: call)
	StrikeRule string  `json:"strike_rule"`           // 105, ATM, ATM:+10, DELTA:0.3, {LEG1.STRIKE}+5, etc.
	Price      float64 `json:"price,omitempty"`       // explicit premium per share, overrides lookup
	Qty        int     `json:"qty,omitempty"`         // contracts (default: 1)
	DTE        int     `json:"dte,omitempty"`         // days-to-expiry override for this leg
}

// Spec defines a multi-leg option strategy together with the market
// parameters the legs are resolved against. Shared defaults apply unless
// overridden at the leg level.
type Spec struct {
	Underlying   string    `json:"underlying"`          // e.g. "SPY"
	Spot         float64   `json:"spot"`                // underlying price at evaluation
	Rate         float64   `json:"rate,omitempty"`      // risk-free rate (default 2%)
	Vol          float64   `json:"vol,omitempty"`       // volatility for model premiums (default 30%)
	DaysToExpiry int       `json:"dte,omitempty"`       // default DTE for all legs
	AsOf         time.Time `json:"as_of,omitempty"`     // evaluation timestamp (default now)
	Legs         []LegSpec `json:"strategy"`            // strategy legs
}

// withDefaults fills the zero-value fields of a Spec.
func (spec Spec) withDefaults() Spec {
	if spec.Rate == 0 {
		spec.Rate = 0.02
	}
	if spec.Vol == 0 {
		spec.Vol = 0.30
	}
	if spec.DaysToExpiry == 0 {
		spec.DaysToExpiry = 30
	}
	if spec.AsOf.IsZero() {
		spec.AsOf = time.Now().UTC()
	}
	return spec
}

//
// ==========================
// Strategy Building
// ==========================
//

// Build resolves a strategy specification into concrete payoff legs.
//
// For each leg it resolves the expiry from the DTE, the strike from the
// strike rule, and the premium from the first source that answers:
// explicit leg price, provider quote, Black-Scholes theoretical price.
//
// Parameters:
//   - spec: strategy definition including defaults and legs
//   - prov: optional market data provider (nil disables quote lookup)
//
// Returns:
//   - []payoff.Leg: fully resolved legs in order
//   - error: non-nil if any leg cannot be resolved
func Build(spec Spec, prov data.Provider) ([]payoff.Leg, error) {
	spec = spec.withDefaults()

	logger.Infof(
		"event=build_strategy underlying=%s spot=%.2f legs=%d",
		spec.Underlying,
		spec.Spot,
		len(spec.Legs),
	)

	legs := []payoff.Leg{}

	for i, legSpec := range spec.Legs {
		logger.Debugf("event=resolve_leg index=%d spec=%+v", i+1, legSpec)

		action, err := payoff.ParseAction(legSpec.Side)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
		optType, err := payoff.ParseOptionType(legSpec.OptionType)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}

		qty := legSpec.Qty
		if qty < 1 {
			qty = 1
		}

		dte := spec.DaysToExpiry
		if legSpec.DTE != 0 {
			dte = legSpec.DTE
		}
		expiry := spec.AsOf.AddDate(0, 0, dte)
		years := float64(dte) / 365.0

		strike, err := ResolveStrike(legSpec.StrikeRule, spec, expiry, years, legs, prov)
		if err != nil {
			logger.Errorf("event=strike_resolution_failed leg=%d err=%v", i+1, err)
			return nil, err
		}

		premium := legSpec.Price
		if premium <= 0 {
			premium = resolvePremium(spec, strike, expiry, years, optType, prov)
		}

		logger.Infof(
			"event=leg_resolved leg=%d side=%s type=%s strike=%.2f premium=%.2f",
			i+1,
			action,
			optType,
			strike,
			premium,
		)

		legs = append(legs, payoff.Leg{
			Action:  action,
			Type:    optType,
			Strike:  strike,
			Premium: premium,
			Qty:     qty,
			Expiry:  expiry,
		})
	}

	return legs, nil
}

// resolvePremium returns a premium per share: the provider quote when one
// is available, the Black-Scholes theoretical price otherwise.
func resolvePremium(
	spec Spec,
	strike float64,
	expiry time.Time,
	years float64,
	optType payoff.OptionType,
	prov data.Provider,
) float64 {

	if prov != nil {
		p, err := prov.GetOptionPrice(spec.Underlying, strike, expiry, optType.String(), spec.AsOf)
		if err == nil && p > 0 {
			return p
		}
		logger.Debugf(
			"premium fallback BS %s %s K=%.2f err=%v",
			spec.Underlying, optType, strike, err,
		)
	}

	return pricing.Price(optType == payoff.CallOption, spec.Spot, strike, years, spec.Rate, spec.Vol)
}

//
// ==========================
// Strike Resolution
// ==========================
//

// ResolveStrike converts a strike rule into a concrete strike price.
//
// Supported formats:
//   - 105 (literal strike)
//   - ATM
//   - ATM:+10, ATM:-5%
//   - DELTA:0.3
//   - {LEG1.STRIKE}+{LEG1.PREMIUM}
//
// Parameters:
//   - strikeExpr: strike rule expression
//   - spec: strategy spec supplying spot, rate, vol
//   - expiryDate: resolved leg expiry
//   - years: time to expiry in years
//   - legs: previously resolved legs
//   - prov: optional provider used to snap onto the listed strike grid
//
// Returns:
//   - float64: resolved strike price
//   - error: if the expression cannot be evaluated
func ResolveStrike(
	strikeExpr string,
	spec Spec,
	expiryDate time.Time,
	years float64,
	legs []payoff.Leg,
	prov data.Provider,
) (float64, error) {

	strikeExpr = strings.TrimSpace(strings.ToUpper(strikeExpr))
	logger.Debugf("event=resolve_strike expr=%s", strikeExpr)

	snap := func(target float64) float64 {
		if prov != nil {
			return prov.RoundToNearestStrike(spec.Underlying, expiryDate, spec.AsOf, target)
		}
		return target
	}

	if lit, err := strconv.ParseFloat(strikeExpr, 64); err == nil {
		return lit, nil
	}

	if strikeExpr == "ATM" {
		return snap(spec.Spot), nil
	}

	if strings.HasPrefix(strikeExpr, "ATM:") {
		target, err := resolveATMOffset(strikeExpr[len("ATM:"):], spec.Spot)
		if err != nil {
			return 0, err
		}
		return snap(target), nil
	}

	if strings.HasPrefix(strikeExpr, "DELTA:") {
		deltaStr := strings.TrimPrefix(strikeExpr, "DELTA:")
		targetDelta, err := strconv.ParseFloat(deltaStr, 64)
		if err != nil {
			logger.Errorf("parse float failed for DELTA expression:%s, %v", deltaStr, err)
			return 0, fmt.Errorf("invalid DELTA value: %w", err)
		}
		target := pricing.StrikeFromDelta(spec.Spot, targetDelta, spec.Rate, 0.0, spec.Vol, years, true)
		logger.Tracef("event=delta_strike target_delta=%.2f strike=%.2f", targetDelta, target)
		return snap(target), nil
	}

	// Expression using previous legs
	if strings.Contains(strikeExpr, "{LEG") {
		target, err := evaluateLegExpression(strikeExpr, legs)
		if err != nil {
			return 0, err
		}
		return snap(target), nil
	}

	return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeExpression, strikeExpr)
}

//
// ==========================
// Helpers
// ==========================
//

// resolveATMOffset applies an absolute or percentage offset to a price.
func resolveATMOffset(offset string, spot float64) (float64, error) {

	if strings.HasSuffix(offset, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(offset, "%"), 64)
		if err != nil {
			return 0, err
		}
		return math.Round((spot+spot*pct/100)*100) / 100, nil
	}

	abs, err := strconv.ParseFloat(offset, 64)
	if err != nil {
		return 0, err
	}

	return math.Round((spot+abs)*100) / 100, nil
}

// evaluateLegExpression evaluates expressions referencing prior legs.
//
// Each {LEGn.STRIKE} or {LEGn.PREMIUM} placeholder is substituted with the
// resolved value before the arithmetic is handed to govaluate.
func evaluateLegExpression(expr string, legs []payoff.Leg) (float64, error) {

	re := regexp.MustCompile(`\{LEG(\d)\.(STRIKE|PREMIUM)\}`)
	matches := re.FindAllStringSubmatch(expr, -1)
	if matches == nil {
		return 0, ErrInvalidStrikeExpression
	}

	evalStr := expr

	for _, match := range matches {
		idx, _ := strconv.Atoi(match[1])
		idx-- // LEG1 is index 0

		if idx < 0 || idx >= len(legs) {
			return 0, ErrLegIndexOutOfRange
		}

		var value float64
		if match[2] == "STRIKE" {
			value = legs[idx].Strike
		} else {
			// "PREMIUM"
			value = legs[idx].Premium
		}

		evalStr = strings.Replace(evalStr, match[0], fmt.Sprintf("%f", value), 1)
	}

	evalExpr, err := govaluate.NewEvaluableExpression(evalStr)
	if err != nil {
		return 0, err
	}

	result, err := evalExpr.Evaluate(nil)
	if err != nil {
		return 0, err
	}

	f, ok := result.(float64)
	if !ok {
		return 0, ErrInvalidStrikeExpression
	}

	return f, nil
}
