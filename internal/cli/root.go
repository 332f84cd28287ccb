// Package cli provides the command-line interface for the backtester.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kalshi-hedger/internal/backtest"
	"kalshi-hedger/internal/config"
	"kalshi-hedger/internal/loader"
	"kalshi-hedger/internal/logging"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "hedger",
		Short: "Event-contract delta hedging backtester",
		Long: `Hedger replays historical Kalshi-style event contract quotes and
underlying prices through a simulated market, and measures how a
delta-hedging agent would have performed.

Use 'hedger run' to replay every contract with fixed hyperparameters,
or 'hedger sweep' to search a hyperparameter grid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.Logger = NewLogger(loaded)
			}
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/kalshi-hedger)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newSweepCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("hedger %s\n", Version)
		},
	}
}

// NewLogger builds a logger from the application's logging settings.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    cfg.Logging.Console,
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	})
}

// loadInstances reads every contract instance configured for the app.
func (a *App) loadInstances() ([]loader.ContractData, error) {
	ld, err := loader.New(loader.Config{
		DerivDir:     a.Config.Data.DerivDir,
		UnderCSV:     a.Config.Data.UnderCSV,
		MinRows:      a.Config.Data.MinRows,
		QuoteDivisor: a.Config.Data.QuoteDivisor,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	return ld.Load()
}

// modelFactory builds the configured pricing model factory.
func (a *App) modelFactory() (backtest.ModelFactory, error) {
	m := a.Config.Model
	return backtest.NewModelFactory(m.Family, m.LatticeUp, m.LatticeRate, m.LatticeDepth)
}
