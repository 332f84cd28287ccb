package pricing

import (
	"math"

	"kalshi-hedger/internal/errors"
)

// The lattice family prices by replication on a recombining tree. Each step
// multiplies the forward price by u or d = 1/u, so an up-then-down path lands
// on the same node as down-then-up and a tree of depth d has exactly d+1
// distinct terminal states rather than 2^d. The tree is never materialized as
// linked nodes: levels are flat slices indexed by the number of down moves,
// and the shared middle descendant of sibling nodes is simply the shared
// index, so storage and work stay polynomial in depth and nothing recurses.

// LatticeResult is the root valuation of a lattice evaluation.
type LatticeResult struct {
	Value  float64
	Delta  float64
	Gamma  float64
	Leaves int
}

// nodePrice returns the forward price at the node with the given level and
// number of down moves.
func nodePrice(uPrice, up float64, level, downs int) float64 {
	return uPrice * math.Pow(up, float64(level-2*downs))
}

// TerminalPrices returns the forward prices at the lattice's terminal level,
// ordered from all-up to all-down.
func TerminalPrices(uPrice, up float64, depth int) []float64 {
	prices := make([]float64, depth+1)
	for j := range prices {
		prices[j] = nodePrice(uPrice, up, depth, j)
	}
	return prices
}

// EvalStepLattice prices a step contract on a recombining lattice. Terminal
// payoffs are the binary indicator; every interior node is visited exactly
// once by backward induction:
//
//	delta = (Vup - Vdown) / (Sup - Sdown)
//	rem   = (Vup - delta*Sup) / (1 + rate)
//	V     = delta*S + rem
//
// Root delta comes from the final induction step; gamma is the second-order
// finite difference of delta across the two level-one nodes, so it needs
// depth >= 2 and is otherwise undefined.
func EvalStepLattice(uPrice, strike, up, rate float64, depth int) (LatticeResult, error) {
	if uPrice <= 0 {
		return LatticeResult{}, errors.Wrapf(errors.ErrConfigInvalid, "underlying price must be positive, got %v", uPrice)
	}
	if up <= 1 {
		return LatticeResult{}, errors.Wrapf(errors.ErrConfigInvalid, "up factor must exceed 1, got %v", up)
	}
	if depth < 1 {
		return LatticeResult{}, errors.Wrapf(errors.ErrConfigInvalid, "depth must be at least 1, got %d", depth)
	}

	vals := make([]float64, depth+1)
	for j := range vals {
		vals[j] = indicator(nodePrice(uPrice, up, depth, j), strike)
	}

	res := LatticeResult{Gamma: undefined(), Leaves: depth + 1}
	next := make([]float64, depth)
	for level := depth - 1; level >= 0; level-- {
		var firstDelta, lastDelta float64
		for j := 0; j <= level; j++ {
			sUp := nodePrice(uPrice, up, level+1, j)
			sDown := nodePrice(uPrice, up, level+1, j+1)
			delta := (vals[j] - vals[j+1]) / (sUp - sDown)
			rem := (vals[j] - delta*sUp) / (1 + rate)
			next[j] = delta*nodePrice(uPrice, up, level, j) + rem
			if j == 0 {
				firstDelta = delta
			}
			lastDelta = delta
		}
		vals, next = next[:level+1], vals[:level]

		if level == 1 {
			// Level-one deltas straddle the root; their spread over the
			// price gap is the root's gamma.
			res.Gamma = (firstDelta - lastDelta) / (nodePrice(uPrice, up, 1, 0) - nodePrice(uPrice, up, 1, 1))
		}
		if level == 0 {
			res.Delta = firstDelta
		}
	}
	res.Value = vals[0]
	return res, nil
}

// LatticeStep prices a step contract by replication on a recombining lattice.
// The family is model-free: it never assumes a return distribution, which
// makes vega and theta unrecoverable from a single lattice. Both are reported
// as undefined.
type LatticeStep struct {
	Strike float64
	Up     float64
	Rate   float64
	Depth  int
}

// Evaluate prices on the lattice. The observed contract price and estimated
// scale are unused: replication needs neither. With no time left the value
// degenerates to the terminal payoff indicator, as in the analytic families.
func (m LatticeStep) Evaluate(price, uPrice, scale, drift, tte float64) Exposures {
	if tte <= 0 {
		return Exposures{
			Value: indicator(uPrice, m.Strike),
			IV:    undefined(),
			Vega:  undefined(),
			Theta: undefined(),
		}
	}
	res, err := EvalStepLattice(uPrice, m.Strike, m.Up, m.Rate, m.Depth)
	if err != nil {
		return Exposures{
			Value: undefined(),
			IV:    undefined(),
			Delta: undefined(),
			Vega:  undefined(),
			Theta: undefined(),
			Gamma: undefined(),
		}
	}
	return Exposures{
		Value: res.Value,
		IV:    undefined(),
		Delta: res.Delta,
		Vega:  undefined(),
		Theta: undefined(),
		Gamma: res.Gamma,
	}
}
