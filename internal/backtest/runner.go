// Package backtest replays hedging strategies over historical contract
// instances.
//
// A single run wires one contract's data into a fresh clock, feeders, market,
// and agent, then drives them cycle by cycle until the quote stream runs out.
// A sweep repeats that over a hyperparameter grid and aggregates terminal
// values across instances.
package backtest

import (
	"strings"

	"github.com/rs/zerolog"

	"kalshi-hedger/internal/clock"
	"kalshi-hedger/internal/errors"
	"kalshi-hedger/internal/feed"
	"kalshi-hedger/internal/hedge"
	"kalshi-hedger/internal/loader"
	"kalshi-hedger/internal/logging"
	"kalshi-hedger/internal/market"
	"kalshi-hedger/internal/pricing"
)

// ModelFactory builds a pricing model for one contract instance.
type ModelFactory func(meta loader.Meta) pricing.Model

// NewModelFactory returns a factory for the named model family. Lattice
// parameters are ignored by the analytic families.
func NewModelFactory(family string, latticeUp, latticeRate float64, latticeDepth int) (ModelFactory, error) {
	switch strings.ToLower(family) {
	case "", "gaussian":
		return func(meta loader.Meta) pricing.Model {
			return pricing.GaussianStep{Strike: meta.Strike}
		}, nil
	case "cauchy":
		return func(meta loader.Meta) pricing.Model {
			return pricing.CauchyStep{Strike: meta.Strike}
		}, nil
	case "lattice":
		if latticeUp <= 1 || latticeDepth < 1 {
			return nil, errors.Wrapf(errors.ErrConfigInvalid, "lattice model needs up > 1 and depth >= 1, got up=%v depth=%d", latticeUp, latticeDepth)
		}
		return func(meta loader.Meta) pricing.Model {
			return pricing.LatticeStep{Strike: meta.Strike, Up: latticeUp, Rate: latticeRate, Depth: latticeDepth}
		}, nil
	default:
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "unknown model family %q", family)
	}
}

// RunConfig holds the per-run knobs that are not part of the contract data.
type RunConfig struct {
	// ClockDelta is the fixed simulated-seconds increment per cycle.
	ClockDelta float64
	// Hedge carries the agent's hyperparameters; Strike is overwritten from
	// the contract metadata.
	Hedge hedge.Config
	// Model builds the pricing model per instance.
	Model ModelFactory
}

// Result is the outcome of replaying one contract instance.
type Result struct {
	Meta          loader.Meta
	TerminalValue float64
	MarketCash    float64
	Lots          int
	Cycles        int
	FinalState    hedge.State
}

// Run replays a single contract instance to completion and reconciles the
// agent's book against the realized outcome.
func Run(data loader.ContractData, cfg RunConfig, logger zerolog.Logger) (Result, error) {
	if cfg.Model == nil {
		return Result{}, errors.Wrap(errors.ErrConfigInvalid, "run requires a model factory")
	}
	logger = logging.WithContract(logger, data.Meta.Date, data.Meta.Strike)

	clk, err := clock.NewDelta(cfg.ClockDelta)
	if err != nil {
		return Result{}, err
	}
	derivFeed, err := feed.New(clk, data.HistoryStart, data.HistoryEnd, data.DerivTimes, data.DerivRecords)
	if err != nil {
		return Result{}, err
	}
	underFeed, err := feed.New(clk, data.HistoryStart, data.HistoryEnd, data.UnderTimes, data.UnderRecords)
	if err != nil {
		return Result{}, err
	}
	if err := derivFeed.Start(); err != nil {
		return Result{}, err
	}
	if err := underFeed.Start(); err != nil {
		return Result{}, err
	}

	resolution := 0
	if data.Meta.Outcome {
		resolution = 1
	}
	venue, err := market.New(clk, derivFeed, market.Config{
		Strike:     data.Meta.Strike,
		Expiration: data.Meta.Expiration,
		Resolution: resolution,
		AllowShort: true,
	}, logger)
	if err != nil {
		return Result{}, err
	}

	hedgeCfg := cfg.Hedge
	hedgeCfg.Strike = data.Meta.Strike
	agent, err := hedge.New(derivFeed, underFeed, venue, cfg.Model(data.Meta), hedgeCfg, logger)
	if err != nil {
		return Result{}, err
	}

	cycles := 0
	for {
		if err := venue.Cycle(); err != nil {
			if errors.IsExhausted(err) {
				break
			}
			return Result{}, err
		}
		cycles++
		if _, err := agent.Consume(); err != nil {
			if errors.IsExhausted(err) {
				break
			}
			if errors.Is(err, errors.ErrNoRecord) {
				// Simulated time has not reached the first record yet.
				continue
			}
			return Result{}, err
		}
	}

	res := Result{
		Meta:          data.Meta,
		TerminalValue: agent.Reconcile(data.Meta.TerminalUnderPrice, data.Meta.Outcome),
		MarketCash:    venue.Cash(),
		Lots:          len(agent.Lots()),
		Cycles:        cycles,
		FinalState:    agent.State(),
	}
	logger.Info().
		Float64("terminal_value", res.TerminalValue).
		Float64("market_cash", res.MarketCash).
		Int("lots", res.Lots).
		Int("cycles", res.Cycles).
		Str("state", res.FinalState.String()).
		Msg("Instance complete")
	return res, nil
}
