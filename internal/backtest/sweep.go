package backtest

import (
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"

	"kalshi-hedger/internal/errors"
	"kalshi-hedger/internal/loader"
)

// SweepConfig defines a hyperparameter grid: Samples evenly spaced values per
// axis, from zero up to the configured maximum inclusive.
type SweepConfig struct {
	MaxUnderPosMax float64
	MinTTEHedgeMax float64
	Samples        int
	ClockDelta     float64
	Model          ModelFactory
}

// CellResult aggregates one grid cell's terminal values across every contract
// instance replayed with that hyperparameter pair.
type CellResult struct {
	MaxUnderPos float64
	MinTTEHedge float64
	Mean        float64
	Variance    float64
	Instances   int
}

// linspace returns n evenly spaced values from 0 to max inclusive.
func linspace(max float64, n int) []float64 {
	if n == 1 {
		return []float64{max}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = max * float64(i) / float64(n-1)
	}
	return out
}

// Sweep replays every contract instance at every grid cell. A single instance
// failing inside a cell is logged and dropped from that cell's aggregate; a
// grid with no valid inputs is a configuration error.
func Sweep(instances []loader.ContractData, cfg SweepConfig, logger zerolog.Logger) ([]CellResult, error) {
	if len(instances) == 0 {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "sweep requires at least one contract instance")
	}
	if cfg.Samples < 1 {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "sweep samples must be at least 1, got %d", cfg.Samples)
	}
	if cfg.Model == nil {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "sweep requires a model factory")
	}

	posGrid := linspace(cfg.MaxUnderPosMax, cfg.Samples)
	tteGrid := linspace(cfg.MinTTEHedgeMax, cfg.Samples)

	var out []CellResult
	for _, maxPos := range posGrid {
		for _, minTTE := range tteGrid {
			run := RunConfig{ClockDelta: cfg.ClockDelta, Model: cfg.Model}
			run.Hedge.MaxUnderPos = maxPos
			run.Hedge.MinTTEHedge = minTTE

			values := make([]float64, 0, len(instances))
			for _, data := range instances {
				res, err := Run(data, run, logger)
				if err != nil {
					logger.Warn().Err(err).
						Str("date", data.Meta.Date).
						Float64("strike", data.Meta.Strike).
						Msg("Instance failed, dropping from cell")
					continue
				}
				values = append(values, res.TerminalValue)
			}
			if len(values) == 0 {
				continue
			}

			mean, err := stats.Mean(values)
			if err != nil {
				return nil, errors.Wrap(err, "cell mean")
			}
			variance, err := stats.PopulationVariance(values)
			if err != nil {
				return nil, errors.Wrap(err, "cell variance")
			}
			out = append(out, CellResult{
				MaxUnderPos: maxPos,
				MinTTEHedge: minTTE,
				Mean:        mean,
				Variance:    variance,
				Instances:   len(values),
			})
			logger.Info().
				Float64("max_under_pos", maxPos).
				Float64("min_tte_hedge", minTTE).
				Float64("mean", mean).
				Float64("variance", variance).
				Int("instances", len(values)).
				Msg("Cell complete")
		}
	}
	return out, nil
}
