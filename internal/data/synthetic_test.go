package data

import (
	"math"
	"testing"
	"time"
)

var (
	asOf   = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	expiry = time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC)
)

func TestSyntheticOptionPriceParity(t *testing.T) {
	prov := NewSyntheticProviderWith(100, 0.25, 0.02)

	call, err := prov.GetOptionPrice("SPY", 100, expiry, "call", asOf)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	put, err := prov.GetOptionPrice("SPY", 100, expiry, "put", asOf)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	T := expiry.Sub(asOf).Hours() / 24 / 365
	lhs := call - put
	rhs := 100 - 100*math.Exp(-0.02*T)
	if math.Abs(lhs-rhs) > 1e-6 {
		t.Fatalf("synthetic quotes violate parity: lhs=%v rhs=%v", lhs, rhs)
	}
}

func TestSyntheticChain(t *testing.T) {
	prov := NewSyntheticProviderWith(100, 0.25, 0.02)

	quotes, err := prov.GetOptionChain("SPY", expiry, asOf)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(quotes) == 0 {
		t.Fatalf("empty chain")
	}
	if len(quotes)%2 != 0 {
		t.Fatalf("chain should pair calls and puts, got %d quotes", len(quotes))
	}

	for _, q := range quotes {
		if q.Strike < 80 || q.Strike > 120 {
			t.Fatalf("strike %v outside 80..120 band", q.Strike)
		}
		if q.Ask < q.Bid {
			t.Fatalf("crossed quote: %+v", q)
		}
		if q.Bid > 0 {
			if mid := q.Mid(); math.Abs(mid-(q.Bid+q.Ask)/2) > 1e-9 {
				t.Fatalf("mid mismatch: %+v", q)
			}
		}
	}
}

func TestSyntheticExpiriesAreFridays(t *testing.T) {
	prov := NewSyntheticProvider()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	expiries, err := prov.GetRelevantExpiries("SPY", from, to)
	if err != nil {
		t.Fatalf("expiries: %v", err)
	}
	if len(expiries) != 4 {
		t.Fatalf("march 2026 has 4 fridays in range, got %d", len(expiries))
	}
	for _, e := range expiries {
		if e.Weekday() != time.Friday {
			t.Fatalf("expiry %v is not a friday", e)
		}
	}
}

func TestSyntheticRoundToNearestStrike(t *testing.T) {
	prov := NewSyntheticProvider()

	if got := prov.RoundToNearestStrike("SPY", expiry, asOf, 102); got != 100 {
		t.Fatalf("round 102 = %v, want 100", got)
	}
	if got := prov.RoundToNearestStrike("SPY", expiry, asOf, 103); got != 105 {
		t.Fatalf("round 103 = %v, want 105", got)
	}
}

func TestMidFallsBackToLast(t *testing.T) {
	q := ChainQuote{Bid: 0, Ask: 1.2, Last: 1.05}
	if q.Mid() != 1.05 {
		t.Fatalf("one-sided book should fall back to last, got %v", q.Mid())
	}
}

func TestIsCall(t *testing.T) {
	for _, c := range []struct {
		typ  string
		want bool
	}{
		{"call", true}, {"Call", true}, {"C", true},
		{"put", false}, {"P", false},
	} {
		if got := (ChainQuote{Type: c.typ}).IsCall(); got != c.want {
			t.Fatalf("IsCall(%q) = %v", c.typ, got)
		}
	}
}

func TestOptionSymbolFromParts(t *testing.T) {
	exp := time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC)
	got := OptionSymbolFromParts("spy", exp, "call", 452.5)
	if got != "O:SPY260417C00452500" {
		t.Fatalf("symbol = %q", got)
	}
	got = OptionSymbolFromParts("SPY", exp, "put", 100)
	if got != "O:SPY260417P00100000" {
		t.Fatalf("symbol = %q", got)
	}
}

func TestClosest(t *testing.T) {
	list := []float64{90, 95, 100, 105, 110}
	if got := Closest(list, 101); got != 100 {
		t.Fatalf("closest to 101 = %v", got)
	}
	if got := Closest(list, 108); got != 110 {
		t.Fatalf("closest to 108 = %v", got)
	}
	if got := Closest(list, 50); got != 90 {
		t.Fatalf("closest to 50 = %v", got)
	}
	if got := Closest(list, 500); got != 110 {
		t.Fatalf("closest to 500 = %v", got)
	}
}
