package data

import (
	"math"
	"time"

	"github.com/contactkeval/option-analytics/internal/pricing"
)

// synthDataProvider implements Provider with Black-Scholes generated
// quotes. Useful for offline runs and tests: prices are deterministic
// functions of the request, with a mild volatility smile so implied-vol
// analytics have structure to recover.
type synthDataProvider struct {
	spot      float64
	vol       float64 // ATM volatility
	rate      float64
	secondary Provider
}

// NewSyntheticProvider returns a synthetic provider with a 100 spot, 25%
// ATM volatility, and a 2% rate.
func NewSyntheticProvider() Provider {
	return &synthDataProvider{spot: 100, vol: 0.25, rate: 0.02}
}

// NewSyntheticProviderWith returns a synthetic provider quoting around the
// given spot with the given ATM volatility and rate.
func NewSyntheticProviderWith(spot, vol, rate float64) Provider {
	return &synthDataProvider{spot: spot, vol: vol, rate: rate}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

// smileVol bends the flat ATM volatility by moneyness so the generated
// chain carries a recoverable smile.
func (synthDataProv *synthDataProvider) smileVol(strike float64) float64 {
	return synthDataProv.vol + 0.10*math.Abs(math.Log(strike/synthDataProv.spot))
}

func (synthDataProv *synthDataProvider) GetOptionPrice(underlying string, strike float64, expiryDate time.Time, optType string, asOfDate time.Time) (float64, error) {
	T := expiryDate.Sub(asOfDate).Hours() / 24 / 365
	isCall := ChainQuote{Type: optType}.IsCall()
	return pricing.Price(isCall, synthDataProv.spot, strike, T, synthDataProv.rate, synthDataProv.smileVol(strike)), nil
}

func (synthDataProv *synthDataProvider) GetOptionChain(underlying string, expiryDate, asOfDate time.Time) ([]ChainQuote, error) {
	interval := synthDataProv.strikeInterval(underlying)
	low := math.Floor(synthDataProv.spot*0.8/interval) * interval
	high := math.Ceil(synthDataProv.spot*1.2/interval) * interval

	var out []ChainQuote
	for strike := low; strike <= high; strike += interval {
		for _, typ := range []string{"call", "put"} {
			mid, _ := synthDataProv.GetOptionPrice(underlying, strike, expiryDate, typ, asOfDate)
			spread := math.Max(0.02, mid*0.01)
			out = append(out, ChainQuote{
				Strike: strike,
				Expiry: expiryDate,
				Type:   typ,
				Bid:    math.Max(0, mid-spread/2),
				Ask:    mid + spread/2,
				Last:   mid,
			})
		}
	}
	return out, nil
}

func (synthDataProv *synthDataProvider) GetRelevantExpiries(underlying string, fromDate, toDate time.Time) ([]time.Time, error) {
	// weekly Friday expiries
	var out []time.Time
	for cur := fromDate; !cur.After(toDate); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Friday {
			out = append(out, cur)
		}
	}
	return out, nil
}

func (synthDataProv *synthDataProvider) RoundToNearestStrike(underlying string, expiryDate, asOfDate time.Time, target float64) float64 {
	interval := synthDataProv.strikeInterval(underlying)
	return math.Round(target/interval) * interval
}

func (synthDataProv *synthDataProvider) strikeInterval(underlying string) float64 {
	return 5.0
}
