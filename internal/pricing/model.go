// Package pricing values binary event contracts and computes their risk
// sensitivities.
//
// Two independent model families compute the same abstraction: the probability
// that the underlying finishes beyond a strike under an assumed distribution
// of log-returns. The analytic family (Gaussian and heavy-tailed Cauchy) uses
// closed-form tail functions; the lattice family prices by replication on a
// recombining tree and needs no distributional assumption.
//
// Every function here is pure: nothing mutates shared state, so models are
// safely usable from many contract simulations at once.
package pricing

import "math"

// Exposures bundles a contract valuation with its Greeks. IV is the implied
// scale parameter backed out of the observed market price. Fields that a model
// cannot produce are NaN; use Undefined to check before relying on one.
type Exposures struct {
	Value float64
	IV    float64
	Delta float64
	Vega  float64
	Theta float64
	Gamma float64
}

// Model maps market observations to a valuation and Greeks.
type Model interface {
	// Evaluate computes exposures from the observed contract price, the
	// underlying price, an estimated scale parameter, a drift, and hours to
	// expiration.
	Evaluate(price, uPrice, scale, drift, tte float64) Exposures
}

// Undefined reports whether a pricing result is the explicit "no answer"
// sentinel. Implied-scale inversion legitimately has no answer at the
// no-information price point or when it would imply a negative scale; that is
// an expected outcome of noisy market data, not a defect.
func Undefined(x float64) bool { return math.IsNaN(x) }

// undefined is the sentinel returned where no numeric answer exists.
func undefined() float64 { return math.NaN() }

// indicator is the terminal payoff of a step contract.
func indicator(uPrice, strike float64) float64 {
	if uPrice >= strike {
		return 1
	}
	return 0
}

// greekScale picks the scale parameter used for Greeks: the implied scale
// when the inversion produced a usable answer, otherwise the estimate.
func greekScale(iv, estimated float64) float64 {
	if Undefined(iv) || iv <= 0 {
		return estimated
	}
	return iv
}
