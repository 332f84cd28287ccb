package cli

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"kalshi-hedger/internal/backtest"
	"kalshi-hedger/internal/store"
)

func newSweepCmd(app *App) *cobra.Command {
	var (
		samples int
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Search the hedging hyperparameter grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("samples") {
				samples = app.Config.Sweep.Samples
			}

			instances, err := app.loadInstances()
			if err != nil {
				return err
			}
			model, err := app.modelFactory()
			if err != nil {
				return err
			}

			cells, err := backtest.Sweep(instances, backtest.SweepConfig{
				MaxUnderPosMax: app.Config.Sweep.MaxUnderPos,
				MinTTEHedgeMax: app.Config.Sweep.MinTTEHedge,
				Samples:        samples,
				ClockDelta:     app.Config.Clock.Delta,
				Model:          model,
			}, app.Logger)
			if err != nil {
				return err
			}

			sort.Slice(cells, func(i, j int) bool { return cells[i].Mean > cells[j].Mean })
			cmd.Printf("%-14s %-14s %-10s %-10s %s\n", "max_under_pos", "min_tte_hedge", "mean", "variance", "instances")
			for _, c := range cells {
				cmd.Printf("%-14.2f %-14.2f %-+10.4f %-10.4f %d\n",
					c.MaxUnderPos, c.MinTTEHedge, c.Mean, c.Variance, c.Instances)
			}

			if save {
				st, err := store.NewSQLiteStore(app.Config.Data.ResultsDB)
				if err != nil {
					return err
				}
				defer st.Close()
				return st.SaveSweepResults(context.Background(), time.Now(), cells)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "grid samples per hyperparameter axis")
	cmd.Flags().BoolVar(&save, "save", false, "persist sweep cells to the results database")
	return cmd
}
