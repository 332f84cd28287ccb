package pricing

import "math"

// The Gaussian family assumes log-returns of the underlying follow a Brownian
// motion: log(S_T/S_0) ~ Normal(tte*mu, tte*sigma^2), with sigma the standard
// deviation of hourly log-returns and tte in hours.

// GaussianValue returns the probability that the underlying finishes at or
// above the strike. With no time left the tail function is undefined and the
// value degenerates to the terminal payoff indicator.
func GaussianValue(uPrice, strike, sigma, mu, tte float64) float64 {
	if tte <= 0 {
		return indicator(uPrice, strike)
	}
	z := (math.Log(strike) - math.Log(uPrice) - tte*mu) / (math.Sqrt(2*tte) * sigma)
	return 0.5 * (1 - math.Erf(z))
}

// GaussianImpliedVol inverts GaussianValue for sigma given an observed
// contract price. The inversion has no answer at the no-information point
// (price exactly 0.5), when it would imply a negative volatility, or when no
// time remains; all three return the undefined sentinel rather than an error.
func GaussianImpliedVol(price, uPrice, strike, mu, tte float64) float64 {
	if tte <= 0 {
		return undefined()
	}
	if price == 0.5 {
		return undefined()
	}
	num := math.Log(strike) - math.Log(uPrice) - tte*mu
	den := math.Sqrt(2*tte) * math.Erfinv(1-2*price)
	iv := num / den
	if iv >= 0 {
		return iv
	}
	return undefined()
}

// GaussianDelta is the partial derivative of GaussianValue with respect to the
// underlying price.
func GaussianDelta(uPrice, strike, sigma, mu, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if sigma <= 0 {
		return undefined()
	}
	z := (math.Log(strike) - math.Log(uPrice) - tte*mu) / (math.Sqrt(2*tte) * sigma)
	return math.Exp(-z*z) / (uPrice * sigma * math.Sqrt(2*tte*math.Pi))
}

// GaussianVega is the partial derivative of GaussianValue with respect to
// sigma.
func GaussianVega(uPrice, strike, sigma, mu, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if sigma <= 0 {
		return undefined()
	}
	m := math.Log(strike) - math.Log(uPrice) - tte*mu
	lhs := math.Exp(-m * m / (2 * tte * sigma * sigma))
	return lhs * (m / (sigma * sigma * math.Sqrt(2*tte*math.Pi)))
}

// GaussianTheta is the partial derivative of GaussianValue with respect to
// time to expiration.
func GaussianTheta(uPrice, strike, sigma, mu, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if sigma <= 0 {
		return undefined()
	}
	m := math.Log(strike) - math.Log(uPrice) - tte*mu
	lhs := (math.Log(uPrice) - math.Log(strike) - tte*mu) / (sigma * math.Sqrt(8*math.Pi*tte*tte*tte))
	return lhs * math.Exp(-m*m/(2*tte*sigma*sigma))
}

// GaussianGamma is delta's sensitivity to the underlying price.
func GaussianGamma(uPrice, strike, sigma, mu, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if sigma <= 0 {
		return undefined()
	}
	m := math.Log(strike) - math.Log(uPrice) - tte*mu
	lhs := math.Exp(-m * m / (2 * tte * sigma * sigma))
	num := math.Log(strike) - math.Log(uPrice) - tte*(sigma*sigma+mu)
	return lhs * (num / (tte * sigma * sigma * sigma * uPrice * uPrice * math.Sqrt(2*tte*math.Pi)))
}

// GaussianStep prices a step contract: a binary paying 1 iff the underlying is
// at or above the strike at expiration.
type GaussianStep struct {
	Strike float64
}

// Evaluate backs the implied volatility out of the observed price and computes
// value with the estimated sigma and Greeks with the implied one, falling
// back to the estimate when the inversion is undefined.
func (m GaussianStep) Evaluate(price, uPrice, sigma, mu, tte float64) Exposures {
	iv := GaussianImpliedVol(price, uPrice, m.Strike, mu, tte)
	gs := greekScale(iv, sigma)
	return Exposures{
		Value: GaussianValue(uPrice, m.Strike, sigma, mu, tte),
		IV:    iv,
		Delta: GaussianDelta(uPrice, m.Strike, gs, mu, tte),
		Vega:  GaussianVega(uPrice, m.Strike, gs, mu, tte),
		Theta: GaussianTheta(uPrice, m.Strike, gs, mu, tte),
		Gamma: GaussianGamma(uPrice, m.Strike, gs, mu, tte),
	}
}

// GaussianRange prices a range contract defined by two strikes, valued as the
// probability the underlying lands between them: each quantity is the
// difference of the two step legs.
type GaussianRange struct {
	Lower float64
	Upper float64
}

// Evaluate computes range exposures. The implied volatility is the arithmetic
// mean of the two legs' separately inverted volatilities, an approximation
// inherited from the closed-form step inversion rather than a joint solve.
func (m GaussianRange) Evaluate(price, uPrice, sigma, mu, tte float64) Exposures {
	ivLower := GaussianImpliedVol(price, uPrice, m.Lower, mu, tte)
	ivUpper := GaussianImpliedVol(price, uPrice, m.Upper, mu, tte)
	iv := (ivLower + ivUpper) / 2
	gs := greekScale(iv, sigma)
	return Exposures{
		Value: GaussianValue(uPrice, m.Lower, sigma, mu, tte) - GaussianValue(uPrice, m.Upper, sigma, mu, tte),
		IV:    iv,
		Delta: GaussianDelta(uPrice, m.Lower, gs, mu, tte) - GaussianDelta(uPrice, m.Upper, gs, mu, tte),
		Vega:  GaussianVega(uPrice, m.Lower, gs, mu, tte) - GaussianVega(uPrice, m.Upper, gs, mu, tte),
		Theta: GaussianTheta(uPrice, m.Lower, gs, mu, tte) - GaussianTheta(uPrice, m.Upper, gs, mu, tte),
		Gamma: GaussianGamma(uPrice, m.Lower, gs, mu, tte) - GaussianGamma(uPrice, m.Upper, gs, mu, tte),
	}
}
