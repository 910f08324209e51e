package pricing

import "math"

// Bisection search bounds and termination. The band covers 1%–400%
// annualized volatility; a root outside it saturates to the nearest
// midpoint rather than failing.
const (
	ivSearchLow  = 0.01
	ivSearchHigh = 4.0
	ivTolerance  = 1e-4
	ivMaxIter    = 100

	// fallbackVol is returned for inputs with no meaningful implied
	// volatility (expired option, non-positive market price).
	fallbackVol = 0.30
)

// ImpliedVolatility recovers the volatility at which the Black-Scholes
// model reproduces an observed option price, via bisection over
// [0.01, 4.0].
//
// Parameters:
//   - optionPrice: observed market premium per share
//   - S: spot price of the underlying
//   - K: strike price
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - isCall: true to invert the call pricer, false for the put pricer
//
// Returns:
//
//	The implied volatility estimate. The function is total: an expired
//	option or non-positive price yields a fixed 30% fallback, and a search
//	that has not converged after 100 iterations (or whose root lies outside
//	the band) yields the last midpoint instead of an error.
//
// The bisection update direction relies on the Black-Scholes price being
// monotonically increasing in volatility, which holds over the whole
// search band.
func ImpliedVolatility(optionPrice, S, K, T, r float64, isCall bool) float64 {
	if T <= 0 || optionPrice <= 0 {
		return fallbackVol
	}

	low, high := ivSearchLow, ivSearchHigh
	var mid float64

	for i := 0; i < ivMaxIter; i++ {
		mid = (low + high) / 2
		diff := Price(isCall, S, K, T, r, mid) - optionPrice

		if math.Abs(diff) < ivTolerance {
			return mid
		}

		if diff > 0 {
			high = mid // model price too high: volatility is too high
		} else {
			low = mid
		}
	}

	return mid
}
