package pricing

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNormCDFAtZero(t *testing.T) {
	if !almostEqual(NormCDF(0), 0.5, 1e-9) {
		t.Fatalf("NormCDF(0) = %v, want 0.5", NormCDF(0))
	}
}

func TestNormCDFSymmetry(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1.0, 1.96, 2.5, 3.7} {
		lhs := NormCDF(-x)
		rhs := 1 - NormCDF(x)
		if !almostEqual(lhs, rhs, 1e-9) {
			t.Fatalf("symmetry violated at x=%v: Φ(-x)=%v 1-Φ(x)=%v", x, lhs, rhs)
		}
	}
}

func TestNormCDFMonotonic(t *testing.T) {
	prev := NormCDF(-6)
	for x := -5.9; x <= 6; x += 0.1 {
		cur := NormCDF(x)
		if cur < prev {
			t.Fatalf("NormCDF decreasing at x=%v: %v < %v", x, cur, prev)
		}
		prev = cur
	}
}

func TestNormCDFReferenceValues(t *testing.T) {
	// exact values via erf; the Abramowitz-Stegun approximation is good
	// to about 1.5e-7
	cases := []struct {
		x    float64
		want float64
	}{
		{1.0, 0.8413447460685429},
		{-1.0, 0.15865525393145707},
		{1.96, 0.9750021048517795},
		{2.575, 0.9949845316025018},
	}
	for _, c := range cases {
		got := NormCDF(c.x)
		if !almostEqual(got, c.want, 1.5e-7) {
			t.Fatalf("NormCDF(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestNormPDF(t *testing.T) {
	if !almostEqual(NormPDF(0), 1/sqrt2Pi, 1e-12) {
		t.Fatalf("NormPDF(0) = %v", NormPDF(0))
	}
	if !almostEqual(NormPDF(1.3), NormPDF(-1.3), 1e-12) {
		t.Fatalf("NormPDF not even")
	}
}

func TestNormInvRoundTrip(t *testing.T) {
	for _, p := range []float64{0.01, 0.025, 0.3, 0.5, 0.7, 0.975, 0.99} {
		x := NormInv(p)
		if !almostEqual(NormCDF(x), p, 1e-6) {
			t.Fatalf("NormCDF(NormInv(%v)) = %v", p, NormCDF(x))
		}
	}
}

func TestD1D2DegenerateInputs(t *testing.T) {
	for _, c := range [][2]float64{{0, 0.2}, {-1, 0.2}, {1, 0}, {1, -0.3}} {
		d1, d2 := D1D2(100, 100, c[0], 0.05, c[1])
		if d1 != 0 || d2 != 0 {
			t.Fatalf("D1D2 with T=%v sigma=%v = (%v,%v), want (0,0)", c[0], c[1], d1, d2)
		}
	}
}

func TestD1D2Relation(t *testing.T) {
	S, K, T, r, sigma := 100.0, 95.0, 0.75, 0.03, 0.22
	d1, d2 := D1D2(S, K, T, r, sigma)
	if !almostEqual(d1-d2, sigma*math.Sqrt(T), 1e-12) {
		t.Fatalf("d1-d2 = %v, want sigma*sqrt(T) = %v", d1-d2, sigma*math.Sqrt(T))
	}
}

func TestCallReferenceCase(t *testing.T) {
	// classic parameters: S=100, K=100, r=5%, sigma=20%, T=1
	// erf-exact values: call 10.450583572185565, put 5.573526022256971
	call := Call(100, 100, 1, 0.05, 0.2)
	put := Put(100, 100, 1, 0.05, 0.2)

	if !almostEqual(call, 10.450583572185565, 1e-4) {
		t.Fatalf("call price mismatch: got=%v", call)
	}
	if !almostEqual(put, 5.573526022256971, 1e-4) {
		t.Fatalf("put price mismatch: got=%v", put)
	}
}

func TestPutCallParity(t *testing.T) {
	cases := []struct{ S, K, T, r, sigma float64 }{
		{100, 100, 1, 0.05, 0.2},
		{100, 90, 0.25, 0.02, 0.45},
		{50, 65, 2, 0.01, 0.15},
		{250, 240, 0.08, 0.03, 0.6},
	}
	for _, c := range cases {
		lhs := Call(c.S, c.K, c.T, c.r, c.sigma) - Put(c.S, c.K, c.T, c.r, c.sigma)
		rhs := c.S - c.K*math.Exp(-c.r*c.T)
		if !almostEqual(lhs, rhs, 1e-6) {
			t.Fatalf("put-call parity violated for %+v: lhs=%v rhs=%v", c, lhs, rhs)
		}
	}
}

func TestExpiredOptionIsIntrinsic(t *testing.T) {
	if got := Call(110, 100, 0, 0.05, 0.2); got != 10 {
		t.Fatalf("expired ITM call = %v, want 10", got)
	}
	if got := Call(90, 100, 0, 0.05, 0.2); got != 0 {
		t.Fatalf("expired OTM call = %v, want 0", got)
	}
	if got := Put(90, 100, 0, 0.05, 0.2); got != 10 {
		t.Fatalf("expired ITM put = %v, want 10", got)
	}
	if got := Put(110, 100, -0.5, 0.05, 0.2); got != 0 {
		t.Fatalf("expired OTM put = %v, want 0", got)
	}
}

func TestCallMonotonicInVolatility(t *testing.T) {
	// required for the implied-vol bisection to be valid
	prev := Call(100, 105, 0.5, 0.02, 0.01)
	for sigma := 0.05; sigma <= 4.0; sigma += 0.05 {
		cur := Call(100, 105, 0.5, 0.02, sigma)
		if cur <= prev {
			t.Fatalf("call not increasing in sigma at %v: %v <= %v", sigma, cur, prev)
		}
		prev = cur
	}
}

func TestVega(t *testing.T) {
	if got := Vega(100, 100, 0, 0.05, 0.2); got != 0 {
		t.Fatalf("vega at T=0 = %v, want 0", got)
	}
	if got := Vega(100, 100, 1, 0.05, 0); got != 0 {
		t.Fatalf("vega at sigma=0 = %v, want 0", got)
	}
	got := Vega(100, 100, 1, 0.05, 0.2)
	if !almostEqual(got, 37.524, 1e-2) {
		t.Fatalf("vega mismatch: got=%v", got)
	}
}

func TestDelta(t *testing.T) {
	d := Delta(true, 100, 100, 1, 0.05, 0.2)
	if !almostEqual(d, 0.6368306511756191, 1e-5) {
		t.Fatalf("call delta mismatch: got=%v", d)
	}
	// put delta is call delta minus one
	dp := Delta(false, 100, 100, 1, 0.05, 0.2)
	if !almostEqual(d-dp, 1, 1e-12) {
		t.Fatalf("delta parity violated: call=%v put=%v", d, dp)
	}
	// expired options collapse to the intrinsic step
	if Delta(true, 110, 100, 0, 0.05, 0.2) != 1 {
		t.Fatalf("expired ITM call delta != 1")
	}
	if Delta(false, 90, 100, 0, 0.05, 0.2) != -1 {
		t.Fatalf("expired ITM put delta != -1")
	}
}

func TestStrikeFromDeltaRoundTrip(t *testing.T) {
	S, r, sigma, T := 100.0, 0.02, 0.25, 0.5
	for _, target := range []float64{0.25, 0.5, 0.7} {
		K := StrikeFromDelta(S, target, r, 0, sigma, T, true)
		got := Delta(true, S, K, T, r, sigma)
		if !almostEqual(got, target, 1e-3) {
			t.Fatalf("delta round trip: target=%v strike=%v delta=%v", target, K, got)
		}
	}
}
