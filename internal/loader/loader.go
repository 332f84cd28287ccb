// Package loader ingests historical CSV data into replayable contract
// instances.
//
// The on-disk layout mirrors how the gatherer writes it: one directory per
// event date containing one <strike>.csv of derivative quotes per contract,
// plus a single underlying CSV shared by all contracts. The loader only
// prepares raw series and metadata; clocks and feeders are constructed fresh
// per run because a replay consumes them.
package loader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"kalshi-hedger/internal/errors"
	"kalshi-hedger/internal/feed"
)

// DerivRow is one row of a derivative quote CSV. Quotes are in Kalshi cents.
type DerivRow struct {
	TS  float64 `csv:"ts"`
	Bid float64 `csv:"bid"`
	Ask float64 `csv:"ask"`
	TTE float64 `csv:"tte"`
}

// UnderRow is one row of the underlying CSV.
type UnderRow struct {
	TS    float64 `csv:"ts"`
	Open  float64 `csv:"open"`
	Close float64 `csv:"close"`
	Sigma float64 `csv:"4_hour_sigma_log"`
}

// Meta is the per-contract metadata derived from the raw series.
type Meta struct {
	Date               string
	Strike             float64
	Expiration         float64
	TerminalUnderPrice float64
	Outcome            bool
	DataPoints         int
}

// ContractData is one contract instance's replayable input: both raw series
// plus metadata. HistoryStart/HistoryEnd bound the simulation window.
type ContractData struct {
	Meta         Meta
	HistoryStart float64
	HistoryEnd   float64
	DerivTimes   []float64
	DerivRecords []feed.DerivRecord
	UnderTimes   []float64
	UnderRecords []feed.UnderRecord
}

// Config holds loader settings.
type Config struct {
	// DerivDir is the root directory of per-date derivative quote CSVs.
	DerivDir string
	// UnderCSV is the shared underlying series.
	UnderCSV string
	// MinRows drops contracts with fewer quote rows; defaults to 5.
	MinRows int
	// QuoteDivisor converts raw quotes to contract-value units; defaults to
	// 100 (Kalshi quotes in cents, contracts resolve to 1).
	QuoteDivisor float64
}

// settleGrace extends the underlying window slightly past expiration so the
// settlement print is always captured, in seconds.
const settleGrace = 600

// Loader builds contract instances from disk.
type Loader struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a loader.
func New(cfg Config, logger zerolog.Logger) (*Loader, error) {
	info, err := os.Stat(cfg.DerivDir)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "derivative data dir %q is not a directory", cfg.DerivDir)
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = 5
	}
	if cfg.QuoteDivisor == 0 {
		cfg.QuoteDivisor = 100
	}
	return &Loader{cfg: cfg, logger: logger}, nil
}

// Load reads every contract under the derivative directory and pairs it with
// its slice of the underlying series. Contracts that are too short or whose
// underlying window is empty are skipped with a warning, not an error: one
// bad instance must not abort the rest.
func (l *Loader) Load() ([]ContractData, error) {
	under, err := l.readUnderlying()
	if err != nil {
		return nil, err
	}

	dates, err := os.ReadDir(l.cfg.DerivDir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", l.cfg.DerivDir)
	}

	var out []ContractData
	for _, dateDir := range dates {
		if !dateDir.IsDir() {
			continue
		}
		date := dateDir.Name()
		files, err := os.ReadDir(filepath.Join(l.cfg.DerivDir, date))
		if err != nil {
			return nil, errors.Wrapf(err, "reading date dir %q", date)
		}
		for _, f := range files {
			strike, ok := strikeFromName(f.Name())
			if !ok {
				continue
			}
			data, err := l.buildContract(date, strike, filepath.Join(l.cfg.DerivDir, date, f.Name()), under)
			if err != nil {
				l.logger.Warn().Err(err).Str("date", date).Float64("strike", strike).Msg("Skipping contract")
				continue
			}
			out = append(out, data)
		}
	}
	return out, nil
}

// strikeFromName parses "<strike>.csv" into a strike price.
func strikeFromName(name string) (float64, bool) {
	if !strings.HasSuffix(name, ".csv") {
		return 0, false
	}
	strike, err := strconv.ParseFloat(strings.TrimSuffix(name, ".csv"), 64)
	if err != nil {
		return 0, false
	}
	return strike, true
}

func (l *Loader) readUnderlying() ([]UnderRow, error) {
	f, err := os.Open(l.cfg.UnderCSV)
	if err != nil {
		return nil, errors.Wrapf(err, "opening underlying CSV %q", l.cfg.UnderCSV)
	}
	defer f.Close()

	var rows []UnderRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrapf(err, "parsing underlying CSV %q", l.cfg.UnderCSV)
	}
	if len(rows) == 0 {
		return nil, errors.NewStreamError("underlying", "CSV has no rows")
	}
	return rows, nil
}

func (l *Loader) buildContract(date string, strike float64, path string, under []UnderRow) (ContractData, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContractData{}, errors.Wrapf(err, "opening %q", path)
	}
	defer f.Close()

	var rows []DerivRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return ContractData{}, errors.Wrapf(err, "parsing %q", path)
	}
	if len(rows) < l.cfg.MinRows {
		return ContractData{}, errors.NewStreamError("derivative", "too few rows")
	}

	historyStart := rows[0].TS
	for _, r := range rows {
		if r.TS < historyStart {
			historyStart = r.TS
		}
	}
	expiration := rows[0].TS + rows[0].TTE*3600

	derivTimes := make([]float64, len(rows))
	derivRecords := make([]feed.DerivRecord, len(rows))
	for i, r := range rows {
		derivTimes[i] = r.TS
		derivRecords[i] = feed.DerivRecord{
			TS:  r.TS,
			Bid: r.Bid / l.cfg.QuoteDivisor,
			Ask: r.Ask / l.cfg.QuoteDivisor,
			TTE: r.TTE,
		}
	}

	var (
		underTimes   []float64
		underRecords []feed.UnderRecord
		terminal     float64
		haveTerminal bool
	)
	for _, r := range under {
		if r.TS < historyStart || r.TS > expiration+settleGrace {
			continue
		}
		underTimes = append(underTimes, r.TS)
		underRecords = append(underRecords, feed.UnderRecord{TS: r.TS, Open: r.Open, Close: r.Close, Sigma: r.Sigma})
		if r.TS <= expiration {
			terminal = r.Close
			haveTerminal = true
		}
	}
	if len(underRecords) == 0 || !haveTerminal {
		return ContractData{}, errors.NewStreamError("underlying", "no rows inside the contract window")
	}

	return ContractData{
		Meta: Meta{
			Date:               date,
			Strike:             strike,
			Expiration:         expiration,
			TerminalUnderPrice: terminal,
			Outcome:            terminal >= strike,
			DataPoints:         len(rows),
		},
		HistoryStart: historyStart,
		HistoryEnd:   expiration,
		DerivTimes:   derivTimes,
		DerivRecords: derivRecords,
		UnderTimes:   underTimes,
		UnderRecords: underRecords,
	}, nil
}
