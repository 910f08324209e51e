// Package pricing implements the Black-Scholes option pricing model, an
// implied-volatility solver, and supporting normal-distribution primitives.
//
// Every function in this package is pure and total: documented edge cases
// (zero time to expiry, zero volatility, degenerate market prices) are
// handled by well-defined sentinel results rather than errors, so callers
// can evaluate whole chains or price grids without branching on failures.
//
// Preconditions: spot and strike must be positive and all inputs finite.
// The package does not defend against violations; validating market data
// is the caller's job.
package pricing

import "math"

// D1D2 computes the standardized intermediate terms of the Black-Scholes
// formula.
//
// Parameters:
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// Returns:
//
//	d1 and d2. If sigma or T is zero or negative both terms degrade to
//	(0, 0) instead of dividing by zero; the pricers short-circuit to
//	intrinsic value before that case matters.
func D1D2(S, K, T, r, sigma float64) (d1, d2 float64) {
	if sigma <= 0 || T <= 0 {
		return 0, 0
	}

	d1 = (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 = d1 - sigma*math.Sqrt(T)
	return d1, d2
}

// Call calculates the Black-Scholes price of a European call option.
//
// Parameters:
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// Returns:
//
//	The theoretical call price. An expired option (T <= 0) is worth exactly
//	its intrinsic value max(0, S-K); the check happens before d1/d2 are
//	derived so the time denominator is never touched.
func Call(S, K, T, r, sigma float64) float64 {
	if T <= 0 {
		return math.Max(0, S-K)
	}

	d1, d2 := D1D2(S, K, T, r, sigma)
	return S*NormCDF(d1) - K*math.Exp(-r*T)*NormCDF(d2)
}

// Put calculates the Black-Scholes price of a European put option.
// Same contract as Call; the T <= 0 intrinsic value is max(0, K-S).
func Put(S, K, T, r, sigma float64) float64 {
	if T <= 0 {
		return math.Max(0, K-S)
	}

	d1, d2 := D1D2(S, K, T, r, sigma)
	return K*math.Exp(-r*T)*NormCDF(-d2) - S*NormCDF(-d1)
}

// Price is a convenience dispatcher over Call and Put.
func Price(isCall bool, S, K, T, r, sigma float64) float64 {
	if isCall {
		return Call(S, K, T, r, sigma)
	}
	return Put(S, K, T, r, sigma)
}

// Vega calculates the sensitivity of the option price to changes in
// volatility: S·φ(d1)·√T. Identical for calls and puts.
//
// Returns 0 if T or sigma is non-positive.
func Vega(S, K, T, r, sigma float64) float64 {
	if T <= 0 || sigma <= 0 {
		return 0
	}

	d1, _ := D1D2(S, K, T, r, sigma)
	return S * NormPDF(d1) * math.Sqrt(T)
}

// Delta calculates the sensitivity of the option price to changes in the
// underlying: Φ(d1) for calls, Φ(d1)-1 for puts.
//
// For an expired option the delta collapses to the step function of the
// intrinsic payoff (0 or ±1).
func Delta(isCall bool, S, K, T, r, sigma float64) float64 {
	if T <= 0 {
		switch {
		case isCall && S > K:
			return 1
		case !isCall && S < K:
			return -1
		default:
			return 0
		}
	}

	d1, _ := D1D2(S, K, T, r, sigma)
	if isCall {
		return NormCDF(d1)
	}
	return NormCDF(d1) - 1
}

// StrikeFromDelta computes the strike whose Black-Scholes delta equals
// targetDelta, by inverting Φ(d1) with NormInv:
//
//	K = S · exp(-(NormInv(delta)·σ√T - (r - q + σ²/2)·T))
//
// Parameters:
//   - S: spot price
//   - targetDelta: desired delta, in (0,1) for calls
//   - r: risk-free rate
//   - q: dividend yield
//   - sigma: volatility
//   - T: time to expiry in years
//   - isCall: true for call delta, false for put delta
//
// Put deltas are negative; the put target is mapped through the call side
// via 1-|delta| before inversion.
func StrikeFromDelta(S, targetDelta, r, q, sigma, T float64, isCall bool) float64 {
	if !isCall {
		targetDelta = 1 - math.Abs(targetDelta)
	}

	d1 := NormInv(targetDelta)
	return S * math.Exp(-(d1*sigma*math.Sqrt(T) - (r-q+0.5*sigma*sigma)*T))
}
