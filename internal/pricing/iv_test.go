package pricing

import (
	"math"
	"testing"
)

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	S, K, T, r := 100.0, 105.0, 0.5, 0.02

	for _, sigma := range []float64{0.08, 0.15, 0.35, 0.8, 1.5, 2.5} {
		price := Call(S, K, T, r, sigma)
		got := ImpliedVolatility(price, S, K, T, r, true)
		if math.Abs(got-sigma) > 1e-3 {
			t.Fatalf("round trip sigma=%v: got %v", sigma, got)
		}
	}
}

func TestImpliedVolatilityPutRoundTrip(t *testing.T) {
	S, K, T, r := 100.0, 95.0, 0.25, 0.03

	price := Put(S, K, T, r, 0.42)
	got := ImpliedVolatility(price, S, K, T, r, false)
	if math.Abs(got-0.42) > 1e-3 {
		t.Fatalf("put round trip: got %v", got)
	}
}

func TestImpliedVolatilityDegenerateInputs(t *testing.T) {
	// a zero price or expired option has no meaningful implied vol; the
	// solver returns the fixed 30% fallback without searching
	if got := ImpliedVolatility(0, 100, 100, 0.5, 0.02, true); got != 0.30 {
		t.Fatalf("zero price: got %v, want 0.30", got)
	}
	if got := ImpliedVolatility(-2, 100, 100, 0.5, 0.02, true); got != 0.30 {
		t.Fatalf("negative price: got %v, want 0.30", got)
	}
	if got := ImpliedVolatility(5, 100, 100, 0, 0.02, true); got != 0.30 {
		t.Fatalf("expired option: got %v, want 0.30", got)
	}
	if got := ImpliedVolatility(5, 100, 100, -1, 0.02, false); got != 0.30 {
		t.Fatalf("negative expiry: got %v, want 0.30", got)
	}
}

func TestImpliedVolatilitySaturatesAtBandEdges(t *testing.T) {
	S, K, T, r := 100.0, 100.0, 0.5, 0.02

	// price above anything the model can produce inside the band: the
	// search saturates near the upper bound instead of erroring
	maxPrice := Call(S, K, T, r, 4.0)
	got := ImpliedVolatility(maxPrice*2, S, K, T, r, true)
	if got < 3.9 || got > 4.0 {
		t.Fatalf("overpriced option: got %v, want saturation near 4.0", got)
	}

	// price below the 1% vol floor saturates near the lower bound
	minPrice := Call(S, K, T, r, 0.01)
	got = ImpliedVolatility(minPrice/2, S, K, T, r, true)
	if got < 0.01 || got > 0.02 {
		t.Fatalf("underpriced option: got %v, want saturation near 0.01", got)
	}
}

func TestImpliedVolatilityAlwaysInBand(t *testing.T) {
	for _, price := range []float64{0.01, 1, 5, 20, 80, 500} {
		got := ImpliedVolatility(price, 100, 100, 0.5, 0.02, true)
		if got < ivSearchLow || got > ivSearchHigh {
			t.Fatalf("price=%v: iv %v outside [%v,%v]", price, got, ivSearchLow, ivSearchHigh)
		}
	}
}
