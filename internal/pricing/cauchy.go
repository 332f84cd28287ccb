package pricing

import "math"

// The Cauchy family assumes heavy-tailed log-returns:
// log(S_T/S_0) ~ Cauchy(tte*loc, tte*scale). Its tail function is an arctan,
// which keeps far-from-the-money contracts from being priced at effectively
// zero the way the Gaussian tail does.

// cauchyZ is the standardized distance to the strike.
func cauchyZ(uPrice, strike, scale, loc, tte float64) float64 {
	return (math.Log(strike) - math.Log(uPrice) - tte*loc) / (tte * scale)
}

// CauchyValue returns the probability that the underlying finishes at or
// above the strike under Cauchy log-returns.
func CauchyValue(uPrice, strike, scale, loc, tte float64) float64 {
	if tte <= 0 {
		return indicator(uPrice, strike)
	}
	z := cauchyZ(uPrice, strike, scale, loc, tte)
	return 0.5 - math.Atan(z)/math.Pi
}

// CauchyImpliedScale inverts CauchyValue for the scale parameter. As with the
// Gaussian inversion, the no-information point, a negative result, or
// non-positive time yield the undefined sentinel. The tangent term vanishing
// is the same no-information degeneracy reached through the arctan.
func CauchyImpliedScale(price, uPrice, strike, loc, tte float64) float64 {
	if tte <= 0 {
		return undefined()
	}
	if price == 0.5 {
		return undefined()
	}
	tan := math.Tan(math.Pi * (0.5 - price))
	if tan == 0 {
		return undefined()
	}
	scale := (math.Log(strike) - math.Log(uPrice) - tte*loc) / (tte * tan)
	if scale >= 0 {
		return scale
	}
	return undefined()
}

// CauchyDelta is the partial derivative of CauchyValue with respect to the
// underlying price.
func CauchyDelta(uPrice, strike, scale, loc, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if scale <= 0 {
		return undefined()
	}
	z := cauchyZ(uPrice, strike, scale, loc, tte)
	return 1 / (math.Pi * uPrice * tte * scale * (1 + z*z))
}

// CauchyVega is the partial derivative of CauchyValue with respect to the
// scale parameter.
func CauchyVega(uPrice, strike, scale, loc, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if scale <= 0 {
		return undefined()
	}
	z := cauchyZ(uPrice, strike, scale, loc, tte)
	return z / (math.Pi * scale * (1 + z*z))
}

// CauchyTheta is the partial derivative of CauchyValue with respect to time
// to expiration.
func CauchyTheta(uPrice, strike, scale, loc, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if scale <= 0 {
		return undefined()
	}
	z := cauchyZ(uPrice, strike, scale, loc, tte)
	logRatio := math.Log(uPrice) - math.Log(strike)
	return -logRatio / (math.Pi * tte * tte * scale * (1 + z*z))
}

// CauchyGamma is delta's sensitivity to the underlying price.
func CauchyGamma(uPrice, strike, scale, loc, tte float64) float64 {
	if tte <= 0 {
		return 0
	}
	if scale <= 0 {
		return undefined()
	}
	z := cauchyZ(uPrice, strike, scale, loc, tte)
	a := math.Pi * tte * scale
	num := (1 + z*z) - 2*z/(tte*scale)
	den := a * uPrice * uPrice * (1 + z*z) * (1 + z*z)
	return -num / den
}

// CauchyStep prices a step contract under Cauchy log-returns.
type CauchyStep struct {
	Strike float64
}

// Evaluate mirrors GaussianStep.Evaluate with the heavy-tailed family.
func (m CauchyStep) Evaluate(price, uPrice, scale, loc, tte float64) Exposures {
	is := CauchyImpliedScale(price, uPrice, m.Strike, loc, tte)
	gs := greekScale(is, scale)
	return Exposures{
		Value: CauchyValue(uPrice, m.Strike, scale, loc, tte),
		IV:    is,
		Delta: CauchyDelta(uPrice, m.Strike, gs, loc, tte),
		Vega:  CauchyVega(uPrice, m.Strike, gs, loc, tte),
		Theta: CauchyTheta(uPrice, m.Strike, gs, loc, tte),
		Gamma: CauchyGamma(uPrice, m.Strike, gs, loc, tte),
	}
}

// CauchyRange prices a range contract as the difference of two step legs,
// with the implied scale averaged across legs.
type CauchyRange struct {
	Lower float64
	Upper float64
}

// Evaluate mirrors GaussianRange.Evaluate with the heavy-tailed family.
func (m CauchyRange) Evaluate(price, uPrice, scale, loc, tte float64) Exposures {
	isLower := CauchyImpliedScale(price, uPrice, m.Lower, loc, tte)
	isUpper := CauchyImpliedScale(price, uPrice, m.Upper, loc, tte)
	is := (isLower + isUpper) / 2
	gs := greekScale(is, scale)
	return Exposures{
		Value: CauchyValue(uPrice, m.Lower, scale, loc, tte) - CauchyValue(uPrice, m.Upper, scale, loc, tte),
		IV:    is,
		Delta: CauchyDelta(uPrice, m.Lower, gs, loc, tte) - CauchyDelta(uPrice, m.Upper, gs, loc, tte),
		Vega:  CauchyVega(uPrice, m.Lower, gs, loc, tte) - CauchyVega(uPrice, m.Upper, gs, loc, tte),
		Theta: CauchyTheta(uPrice, m.Lower, gs, loc, tte) - CauchyTheta(uPrice, m.Upper, gs, loc, tte),
		Gamma: CauchyGamma(uPrice, m.Lower, gs, loc, tte) - CauchyGamma(uPrice, m.Upper, gs, loc, tte),
	}
}
