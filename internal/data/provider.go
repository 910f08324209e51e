// Package data provides market data providers for the analytics layer:
// option quotes, chains, and expiries.
//
// Providers can be chained: a provider with a Secondary delegates requests
// it cannot serve, so a synthetic provider can back a live one (or the
// other way round) without the callers knowing.
package data

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Provider supplies market data to the analytics callers.
type Provider interface {
	// Secondary returns the fallback provider, if any.
	Secondary() Provider
	// GetOptionPrice returns the premium per share of a single contract
	// as of asOfDate.
	GetOptionPrice(underlying string, strike float64, expiryDate time.Time, optType string, asOfDate time.Time) (float64, error)
	// GetOptionChain returns every quoted contract for one expiry.
	GetOptionChain(underlying string, expiryDate, asOfDate time.Time) ([]ChainQuote, error)
	// GetRelevantExpiries lists expiration dates available between the
	// two dates, ascending.
	GetRelevantExpiries(underlying string, fromDate, toDate time.Time) ([]time.Time, error)
	// RoundToNearestStrike snaps a target price onto the listed strike
	// grid of the underlying.
	RoundToNearestStrike(underlying string, expiryDate, asOfDate time.Time, target float64) float64
	strikeInterval(underlying string) float64
}

// ChainQuote is one option contract quote within a chain snapshot.
type ChainQuote struct {
	Strike float64
	Expiry time.Time
	Type   string // "call" or "put"
	Bid    float64
	Ask    float64
	Last   float64
}

// Mid returns the bid/ask midpoint, falling back to the last trade when
// one side of the book is empty.
func (q ChainQuote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return q.Last
}

// IsCall reports whether the quote is for a call contract.
func (q ChainQuote) IsCall() bool {
	t := strings.ToLower(q.Type)
	return t != "put" && t != "p"
}

// OptionSymbolFromParts formats an OCC-style option ticker:
// <root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType string, strike float64) string {
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if strings.ToLower(optionType) == "put" || strings.ToLower(optionType) == "p" {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%s", strings.ToUpper(underlying), expDt, optType, fmt.Sprintf("%08d", strikeInt))
}

// Closest finds the element of a sorted slice nearest to target using
// binary search. Panics on an empty slice.
func Closest(numList []float64, target float64) float64 {
	n := len(numList)
	if n == 0 {
		panic("empty list")
	}

	i := sort.Search(n, func(i int) bool {
		return numList[i] >= target
	})

	if i == 0 {
		return numList[0]
	}
	if i == n {
		return numList[n-1]
	}

	before := numList[i-1]
	after := numList[i]

	if math.Abs(before-target) < math.Abs(after-target) {
		return before
	}
	return after
}
