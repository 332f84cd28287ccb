package cli

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"kalshi-hedger/internal/backtest"
	"kalshi-hedger/internal/hedge"
	"kalshi-hedger/internal/store"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		maxUnderPos float64
		minTTEHedge float64
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay every contract with fixed hyperparameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-under-pos") {
				maxUnderPos = app.Config.Hedge.MaxUnderPos
			}
			if !cmd.Flags().Changed("min-tte-hedge") {
				minTTEHedge = app.Config.Hedge.MinTTEHedge
			}

			instances, err := app.loadInstances()
			if err != nil {
				return err
			}
			model, err := app.modelFactory()
			if err != nil {
				return err
			}

			runCfg := backtest.RunConfig{
				ClockDelta: app.Config.Clock.Delta,
				Model:      model,
				Hedge: hedge.Config{
					MaxUnderPos: maxUnderPos,
					MinTTEHedge: minTTEHedge,
					Drift:       app.Config.Hedge.Drift,
					MaxSpread:   app.Config.Hedge.MaxSpread,
					MinBid:      app.Config.Hedge.MinBid,
					MaxAsk:      app.Config.Hedge.MaxAsk,
				},
			}

			var results []backtest.Result
			for _, data := range instances {
				res, err := backtest.Run(data, runCfg, app.Logger)
				if err != nil {
					app.Logger.Warn().Err(err).
						Str("date", data.Meta.Date).
						Float64("strike", data.Meta.Strike).
						Msg("Instance failed")
					continue
				}
				results = append(results, res)
				cmd.Printf("%s strike %.0f: terminal value %+.4f (%d lots, %d cycles, %s)\n",
					res.Meta.Date, res.Meta.Strike, res.TerminalValue, res.Lots, res.Cycles, res.FinalState)
			}
			if len(results) == 0 {
				cmd.Println("no contract instances completed")
				return nil
			}

			values := make([]float64, len(results))
			for i, r := range results {
				values[i] = r.TerminalValue
			}
			mean, _ := stats.Mean(values)
			variance, _ := stats.PopulationVariance(values)
			cmd.Printf("\n%d instances, mean %+.4f, variance %.4f\n", len(results), mean, variance)

			if save {
				st, err := store.NewSQLiteStore(app.Config.Data.ResultsDB)
				if err != nil {
					return err
				}
				defer st.Close()
				return st.SaveInstanceResults(context.Background(), time.Now(), results)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&maxUnderPos, "max-under-pos", 0, "cap on the absolute underlying hedge position")
	cmd.Flags().Float64Var(&minTTEHedge, "min-tte-hedge", 0, "stop rebalancing below this time to expiration, in hours")
	cmd.Flags().BoolVar(&save, "save", false, "persist per-instance results to the results database")
	return cmd
}
