// Package hedge implements the delta-hedging agent for one simulated event
// contract.
//
// Each cycle the agent pulls the freshest derivative quote and underlying
// observation from its two feeders (in that fixed order), asks the pricing
// model for exposures, and decides: near expiration it flattens the
// underlying hedge and holds the contract to settlement; on a valid quote it
// holds exactly one contract and rebalances the underlying toward zero
// portfolio delta; otherwise it sits out the cycle. Underlying trades are
// recorded as immutable execution lots and reconciled against the terminal
// underlying price when the replay ends.
package hedge

import (
	"math"

	"github.com/rs/zerolog"

	"kalshi-hedger/internal/errors"
	"kalshi-hedger/internal/feed"
	"kalshi-hedger/internal/logging"
	"kalshi-hedger/internal/market"
	"kalshi-hedger/internal/pricing"
)

// Lot is an immutable record of one underlying execution, used to reconcile
// terminal P&L.
type Lot struct {
	ExecPrice float64
	Qty       float64
}

// Accrue returns the lot's P&L at the given terminal price.
func (l Lot) Accrue(terminal float64) float64 {
	return l.Qty * (terminal - l.ExecPrice)
}

// State is the lifecycle of one contract instance.
type State int

const (
	// StateIdle means the agent has not consumed any data yet.
	StateIdle State = iota
	// StateActive means the agent is hedging normally.
	StateActive
	// StateSettling means the hedge cutoff has passed and the agent holds
	// the derivative to settlement.
	StateSettling
	// StateDone means a feeder exhausted and the instance is finished.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateSettling:
		return "settling"
	default:
		return "done"
	}
}

// Config holds the agent's hedging hyperparameters.
type Config struct {
	Strike float64
	// MaxUnderPos caps the absolute underlying hedge position, in shares.
	MaxUnderPos float64
	// MinTTEHedge stops rebalancing below this time to expiration, in the
	// same units as the feed's TTE.
	MinTTEHedge float64
	// Drift is the assumed expected hourly log-return, usually zero.
	Drift float64
	// Quote-validity thresholds; zero values take the defaults below.
	MaxSpread float64
	MinBid    float64
	MaxAsk    float64
}

// Default quote-validity thresholds, in contract-value units.
const (
	DefaultMaxSpread = 0.05
	DefaultMinBid    = 0.05
	DefaultMaxAsk    = 0.95
)

func (c Config) withDefaults() Config {
	if c.MaxSpread == 0 {
		c.MaxSpread = DefaultMaxSpread
	}
	if c.MinBid == 0 {
		c.MinBid = DefaultMinBid
	}
	if c.MaxAsk == 0 {
		c.MaxAsk = DefaultMaxAsk
	}
	return c
}

// Agent hedges one event contract against its underlying.
type Agent struct {
	deriv  *feed.Feeder[feed.DerivRecord]
	under  *feed.Feeder[feed.UnderRecord]
	venue  *market.Market
	model  pricing.Model
	cfg    Config
	logger zerolog.Logger

	state    State
	underPos float64
	lots     []Lot
}

// New creates a hedging agent over a derivative feeder, an underlying feeder,
// and the market the derivative trades on.
func New(deriv *feed.Feeder[feed.DerivRecord], under *feed.Feeder[feed.UnderRecord], venue *market.Market, model pricing.Model, cfg Config, logger zerolog.Logger) (*Agent, error) {
	if deriv == nil || under == nil || venue == nil || model == nil {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "agent requires feeders, a market, and a model")
	}
	if cfg.MaxUnderPos < 0 || cfg.MinTTEHedge < 0 {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "hedge hyperparameters must be non-negative")
	}
	return &Agent{
		deriv:  deriv,
		under:  under,
		venue:  venue,
		model:  model,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}, nil
}

// State returns the agent's lifecycle state.
func (a *Agent) State() State { return a.state }

// UnderPosition returns the current underlying hedge position in shares.
func (a *Agent) UnderPosition() float64 { return a.underPos }

// Lots returns a copy of the recorded underlying executions.
func (a *Agent) Lots() []Lot {
	out := make([]Lot, len(a.lots))
	copy(out, a.lots)
	return out
}

// derivPosition counts both filled and pending contracts so the agent never
// doubles up while a market order waits for its fill cycle.
func (a *Agent) derivPosition() int {
	return a.venue.Position() + a.venue.PendingContracts()
}

// DerivPosition returns the derivative position, counting pending orders.
func (a *Agent) DerivPosition() int { return a.derivPosition() }

// validQuote reports whether the derivative quote is tradable: the spread must
// be tight and neither side may sit near the contract's price bounds.
func (a *Agent) validQuote(rec feed.DerivRecord) bool {
	if rec.Ask-rec.Bid > a.cfg.MaxSpread {
		return false
	}
	if rec.Ask > a.cfg.MaxAsk || rec.Bid < a.cfg.MinBid {
		return false
	}
	return true
}

// portfolioDelta is the net first-order price sensitivity of everything held:
// the derivative position times its delta, plus the underlying shares.
func (a *Agent) portfolioDelta(derivDelta float64) float64 {
	return float64(a.derivPosition())*derivDelta + a.underPos
}

// trade executes an underlying trade at the given reference price, clipped so
// the resulting absolute position never exceeds the configured cap. Undefined
// trade sizes (from a degenerate delta) are skipped for the cycle.
func (a *Agent) trade(qty, price float64) {
	if math.IsNaN(qty) {
		return
	}
	if qty > 0 {
		qty = math.Max(math.Min(a.cfg.MaxUnderPos-a.underPos, qty), 0)
	} else {
		qty = math.Min(math.Max(-a.cfg.MaxUnderPos-a.underPos, qty), 0)
	}
	if qty == 0 {
		return
	}
	a.lots = append(a.lots, Lot{ExecPrice: price, Qty: qty})
	a.underPos += qty
}

// Consume runs one decision cycle. It pulls the derivative record first and
// the underlying record second; the market's fill pass sees the same frontier
// because all three share one clock. Exhaustion of either feeder transitions
// the agent to done and is reported as ErrFeedExhausted.
func (a *Agent) Consume() (pricing.Exposures, error) {
	if a.state == StateDone {
		return pricing.Exposures{}, errors.ErrFeedExhausted
	}

	dRec, err := a.deriv.Current()
	if err != nil {
		return pricing.Exposures{}, a.finishOn(err)
	}
	uRec, err := a.under.Current()
	if err != nil {
		return pricing.Exposures{}, a.finishOn(err)
	}
	if a.state == StateIdle {
		a.state = StateActive
	}

	mid := (dRec.Bid + dRec.Ask) / 2
	exp := a.model.Evaluate(mid, uRec.Open, uRec.Sigma, a.cfg.Drift, dRec.TTE)
	pd := a.portfolioDelta(exp.Delta)

	switch {
	case dRec.TTE < a.cfg.MinTTEHedge:
		// Too close to expiration to keep rebalancing: flatten the hedge
		// and carry the contract to settlement.
		if a.underPos != 0 {
			qty := -a.underPos
			a.trade(qty, uRec.Open)
			logging.LogRebalance(a.logger, qty, uRec.Open, pd)
		}
		a.state = StateSettling

	case a.validQuote(dRec):
		if err := a.openContract(); err != nil {
			return exp, err
		}
		// The open may have changed the derivative position; hedge the
		// exposure as it stands now, pending contract included.
		pd = a.portfolioDelta(exp.Delta)
		before := a.underPos
		a.trade(-pd, uRec.Open)
		if a.underPos != before {
			logging.LogRebalance(a.logger, a.underPos-before, uRec.Open, pd)
		}

	default:
		// Quote too wide or too near the bounds: sit this cycle out.
	}

	return exp, nil
}

// openContract buys exactly one contract when none is held or pending. An
// order rejection here is an agent-logic bug and is surfaced, not swallowed.
func (a *Agent) openContract() error {
	if a.derivPosition() != 0 {
		return nil
	}
	if err := a.venue.MarketOrder(1, market.SideBuy); err != nil {
		return errors.Wrap(err, "opening contract")
	}
	return nil
}

// finishOn maps feeder errors to the agent's terminal state. Exhaustion is the
// normal end of an instance; anything else propagates as-is.
func (a *Agent) finishOn(err error) error {
	if errors.Is(err, errors.ErrFeedExhausted) {
		a.state = StateDone
		return errors.ErrFeedExhausted
	}
	return err
}

// Reconcile sums every execution lot against the realized terminal underlying
// price and adds the derivative's resolved payoff, yielding the instance's
// terminal portfolio value.
func (a *Agent) Reconcile(terminalPrice float64, outcome bool) float64 {
	total := 0.0
	for _, lot := range a.lots {
		total += lot.Accrue(terminalPrice)
	}
	if outcome {
		total += 1
	}
	return total
}
