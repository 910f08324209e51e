// Package chain computes per-contract analytics (implied volatility and
// greeks) over a full option chain snapshot.
package chain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/contactkeval/option-analytics/internal/data"
	"github.com/contactkeval/option-analytics/internal/logger"
	"github.com/contactkeval/option-analytics/internal/pricing"
)

// solveWorkers bounds the fan-out of the per-contract solves. Each solve
// is pure and independent, so no locking is needed beyond the result
// slice being pre-sized.
const solveWorkers = 8

// Analysis is the analytics row for a single contract.
type Analysis struct {
	Strike     float64   `json:"strike"`
	Expiry     time.Time `json:"expiry"`
	Type       string    `json:"type"`
	MarketMid  float64   `json:"market_mid"`
	ImpliedVol float64   `json:"implied_vol"`
	Delta      float64   `json:"delta"`
	Vega       float64   `json:"vega"`
}

// Analyze snapshots the option chain for one expiry and solves implied
// volatility, delta, and vega for every quoted contract.
//
// Parameters:
//   - prov: market data provider
//   - underlying: underlying ticker symbol
//   - spot: underlying price at evaluation
//   - rate: risk-free rate
//   - expiry: expiration date to analyze
//   - asOf: evaluation timestamp
//
// Returns rows sorted by strike (calls before puts at equal strikes).
// Contracts with degenerate quotes still produce a row; the solver's
// fallback volatility marks them rather than failing the whole chain.
func Analyze(
	prov data.Provider,
	underlying string,
	spot, rate float64,
	expiry time.Time,
	asOf time.Time,
) ([]Analysis, error) {

	quotes, err := prov.GetOptionChain(underlying, expiry, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch option chain: %w", err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("empty option chain for %s %s", underlying, expiry.Format("2006-01-02"))
	}

	logger.Infof(
		"event=chain_analyze underlying=%s expiry=%s contracts=%d",
		underlying,
		expiry.Format("2006-01-02"),
		len(quotes),
	)

	T := expiry.Sub(asOf).Hours() / 24 / 365

	out := make([]Analysis, len(quotes))

	var wg sync.WaitGroup
	sem := make(chan struct{}, solveWorkers)

	for i, q := range quotes {
		wg.Add(1)
		go func(i int, q data.ChainQuote) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out[i] = analyzeQuote(q, spot, rate, T)
		}(i, q)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Strike != out[j].Strike {
			return out[i].Strike < out[j].Strike
		}
		return out[i].Type < out[j].Type
	})

	return out, nil
}

// analyzeQuote solves one contract. Pure.
func analyzeQuote(q data.ChainQuote, spot, rate, T float64) Analysis {
	isCall := q.IsCall()
	mid := q.Mid()

	iv := pricing.ImpliedVolatility(mid, spot, q.Strike, T, rate, isCall)

	logger.Tracef(
		"event=contract_solved strike=%.2f type=%s mid=%.4f iv=%.4f",
		q.Strike, q.Type, mid, iv,
	)

	return Analysis{
		Strike:     q.Strike,
		Expiry:     q.Expiry,
		Type:       q.Type,
		MarketMid:  mid,
		ImpliedVol: iv,
		Delta:      pricing.Delta(isCall, spot, q.Strike, T, rate, iv),
		Vega:       pricing.Vega(spot, q.Strike, T, rate, iv),
	}
}
