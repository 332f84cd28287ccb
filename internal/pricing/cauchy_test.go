package pricing

import (
	"math"
	"testing"
)

func TestCauchyValueDegeneratesToIndicatorAtExpiry(t *testing.T) {
	if got := CauchyValue(105, 100, 0.05, 0, 0); got != 1 {
		t.Errorf("CauchyValue above strike at expiry = %v, want 1", got)
	}
	if got := CauchyValue(95, 100, 0.05, 0, -2); got != 0 {
		t.Errorf("CauchyValue below strike past expiry = %v, want 0", got)
	}
}

func TestCauchyValueAtTheMoneyIsHalf(t *testing.T) {
	got := CauchyValue(100, 100, 0.07, 0, 4)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("CauchyValue(S=K) = %v, want 0.5", got)
	}
}

func TestCauchyTailsAreHeavierThanGaussian(t *testing.T) {
	// Far out of the money the Gaussian prices the contract at effectively
	// zero; the Cauchy family keeps a visible tail. That tail behavior is the
	// reason this family exists.
	const (
		s, k, scale, tte = 100.0, 140.0, 0.02, 4.0
	)
	gauss := GaussianValue(s, k, scale, 0, tte)
	cauchy := CauchyValue(s, k, scale, 0, tte)
	if cauchy <= gauss {
		t.Errorf("Cauchy tail %v not heavier than Gaussian tail %v", cauchy, gauss)
	}
	if cauchy < 1e-3 {
		t.Errorf("Cauchy tail %v vanished", cauchy)
	}
}

func TestCauchyImpliedScaleUndefinedCases(t *testing.T) {
	if got := CauchyImpliedScale(0.4, 99, 100, 0, 0); !Undefined(got) {
		t.Errorf("expired: got %v, want undefined", got)
	}
	if got := CauchyImpliedScale(0.5, 99, 100, 0, 4); !Undefined(got) {
		t.Errorf("no-information price: got %v, want undefined", got)
	}
	if got := CauchyImpliedScale(0.4, 101, 100, 0, 4); !Undefined(got) {
		t.Errorf("negative scale implied: got %v, want undefined", got)
	}
}

func TestCauchyGreeksZeroAtExpiry(t *testing.T) {
	for name, got := range map[string]float64{
		"delta": CauchyDelta(99, 100, 0.05, 0, 0),
		"vega":  CauchyVega(99, 100, 0.05, 0, 0),
		"theta": CauchyTheta(99, 100, 0.05, 0, 0),
		"gamma": CauchyGamma(99, 100, 0.05, 0, 0),
	} {
		if got != 0 {
			t.Errorf("%s at expiry = %v, want 0", name, got)
		}
	}
}

func TestCauchyDeltaMatchesFiniteDifference(t *testing.T) {
	const (
		s, k, scale, tte = 98.0, 100.0, 0.04, 6.0
		h                = 1e-4
	)
	analytic := CauchyDelta(s, k, scale, 0, tte)
	numeric := (CauchyValue(s+h, k, scale, 0, tte) - CauchyValue(s-h, k, scale, 0, tte)) / (2 * h)
	if math.Abs(analytic-numeric) > 1e-6 {
		t.Errorf("analytic delta %v vs finite difference %v", analytic, numeric)
	}
}

func TestCauchyThetaMatchesFiniteDifference(t *testing.T) {
	const (
		s, k, scale, tte = 98.0, 100.0, 0.04, 6.0
		h                = 1e-5
	)
	analytic := CauchyTheta(s, k, scale, 0, tte)
	numeric := (CauchyValue(s, k, scale, 0, tte+h) - CauchyValue(s, k, scale, 0, tte-h)) / (2 * h)
	if math.Abs(analytic-numeric) > 1e-6 {
		t.Errorf("analytic theta %v vs finite difference %v", analytic, numeric)
	}
}

func TestCauchyStepFallsBackToEstimate(t *testing.T) {
	m := CauchyStep{Strike: 100}
	exp := m.Evaluate(0.5, 100, 0.05, 0, 4)
	if !Undefined(exp.IV) {
		t.Errorf("IV = %v, want undefined at the no-information point", exp.IV)
	}
	want := CauchyDelta(100, 100, 0.05, 0, 4)
	if math.Abs(exp.Delta-want) > 1e-12 {
		t.Errorf("Delta = %v, want %v from the estimated scale", exp.Delta, want)
	}
}
