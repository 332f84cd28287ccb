// Package market simulates order matching and settlement for one event
// contract against replayed quotes.
//
// A Market owns the open-order list, the signed contract position, and the
// cash ledger for a single contract instance. Orders only change the position
// through fills or settlement; everything is driven by Cycle, which advances
// the shared clock, runs the fill pass against the feeder's current quote,
// then checks expiration.
package market

import (
	"github.com/rs/zerolog"

	"kalshi-hedger/internal/clock"
	"kalshi-hedger/internal/errors"
	"kalshi-hedger/internal/feed"
	"kalshi-hedger/internal/logging"
)

// Config holds the static parameters of one contract instance.
type Config struct {
	Strike     float64
	Expiration float64 // unix seconds
	Resolution int     // 0 or 1: the contract's realized outcome
	AllowShort bool
	MaxPos     int // largest absolute position allowed; 0 means uncapped
}

// Market is the simulated exchange for one event contract.
type Market struct {
	clk    clock.Clock
	feeder *feed.Feeder[feed.DerivRecord]
	cfg    Config
	logger zerolog.Logger

	position int
	cash     float64
	orders   []Order
}

// New creates a market for one contract instance.
func New(clk clock.Clock, feeder *feed.Feeder[feed.DerivRecord], cfg Config, logger zerolog.Logger) (*Market, error) {
	if clk == nil || feeder == nil {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "market requires a clock and a feeder")
	}
	if cfg.Resolution != 0 && cfg.Resolution != 1 {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "resolution must be 0 or 1, got %d", cfg.Resolution)
	}
	if cfg.MaxPos < 0 {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "max position must be non-negative, got %d", cfg.MaxPos)
	}
	return &Market{clk: clk, feeder: feeder, cfg: cfg, logger: logger}, nil
}

// Position returns the signed number of contracts held.
func (m *Market) Position() int { return m.position }

// Cash returns the cumulative cash flow from fills and settlement.
func (m *Market) Cash() float64 { return m.cash }

// OpenOrders returns a copy of the open-order list.
func (m *Market) OpenOrders() []Order {
	out := make([]Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// PendingContracts returns the net signed position change that would result if
// every open order filled.
func (m *Market) PendingContracts() int {
	total := 0
	for _, o := range m.orders {
		total += o.ContractFlow()
	}
	return total
}

// MarkMethod selects the quote side used to value an open position.
type MarkMethod int

const (
	// MarkBid values at the bid.
	MarkBid MarkMethod = iota
	// MarkAsk values at the ask.
	MarkAsk
	// MarkMid values at the bid/ask midpoint.
	MarkMid
	// MarkAuto values at the side a liquidation would hit: bid when long,
	// ask when short.
	MarkAuto
)

// PositionValue marks the open position against the current quote.
func (m *Market) PositionValue(method MarkMethod) (float64, error) {
	if m.position == 0 {
		return 0, nil
	}
	quote, err := m.feeder.Current()
	if err != nil {
		return 0, errors.Wrap(err, "marking position")
	}
	var price float64
	switch method {
	case MarkBid:
		price = quote.Bid
	case MarkAsk:
		price = quote.Ask
	case MarkMid:
		price = (quote.Bid + quote.Ask) / 2
	case MarkAuto:
		if m.position > 0 {
			price = quote.Bid
		} else {
			price = quote.Ask
		}
	default:
		return 0, errors.Wrapf(errors.ErrConfigInvalid, "unknown mark method %d", method)
	}
	return float64(m.position) * price, nil
}

// TTE returns seconds until expiration at the current simulated time.
func (m *Market) TTE() (float64, error) {
	now, err := m.clk.Now()
	if err != nil {
		return 0, err
	}
	return m.cfg.Expiration - now, nil
}

// validate rejects orders that would breach the position cap or the
// short-selling restriction, counting open orders as if they had filled.
func (m *Market) validate(qty int, side Side) error {
	if qty <= 0 {
		return errors.NewOrderError(side.String(), qty, 0, "quantity must be positive", errors.ErrIllegalOrder)
	}
	flow := qty
	if side == SideSell {
		flow = -qty
	}
	prospective := m.position + m.PendingContracts() + flow
	if !m.cfg.AllowShort && prospective < 0 {
		return errors.NewOrderError(side.String(), qty, 0, "short selling not allowed", errors.ErrIllegalOrder)
	}
	if m.cfg.MaxPos > 0 && abs(prospective) > m.cfg.MaxPos {
		return errors.NewOrderError(side.String(), qty, 0, "position cap exceeded", errors.ErrIllegalOrder)
	}
	return nil
}

// MarketOrder enqueues an order that fills at the book's price on the next
// cycle.
func (m *Market) MarketOrder(qty int, side Side) error {
	if err := m.validate(qty, side); err != nil {
		return err
	}
	m.orders = append(m.orders, newMarketOrder(qty, side))
	return nil
}

// LimitOrder enqueues a limit order. A price that already crosses the current
// best bid/ask is enqueued as a market order instead, so marketable orders do
// not wait a cycle for their fill.
func (m *Market) LimitOrder(qty int, side Side, price float64) error {
	if err := m.validate(qty, side); err != nil {
		return err
	}
	if price < ContractMin || price > ContractMax {
		return errors.NewOrderError(side.String(), qty, price, "price outside contract bounds", errors.ErrIllegalOrder)
	}
	quote, err := m.feeder.Current()
	if err != nil {
		return errors.Wrap(err, "limit order")
	}
	switch {
	case side == SideBuy && price >= quote.Ask:
		m.orders = append(m.orders, newMarketOrder(qty, SideBuy))
	case side == SideSell && price <= quote.Bid:
		m.orders = append(m.orders, newMarketOrder(qty, SideSell))
	default:
		m.orders = append(m.orders, newLimitOrder(qty, side, price))
	}
	return nil
}

// Liquidate enqueues a single market order that exactly offsets the current
// position. It is a no-op when flat.
func (m *Market) Liquidate() {
	if m.position == 0 {
		return
	}
	side := SideSell
	if m.position < 0 {
		side = SideBuy
	}
	m.orders = append(m.orders, newMarketOrder(abs(m.position), side))
}

// ClearOrders cancels all resting limit orders. Pending market orders are
// preserved; they fill on the next cycle regardless.
func (m *Market) ClearOrders() {
	kept := m.orders[:0]
	for _, o := range m.orders {
		if o.IsMarket() {
			kept = append(kept, o)
		}
	}
	m.orders = kept
}

// RemoveOrders cancels resting limit orders matching the given side and/or
// price. A nil filter field matches everything; market orders are never
// removed.
func (m *Market) RemoveOrders(side *Side, price *float64) {
	kept := m.orders[:0]
	for _, o := range m.orders {
		match := !o.IsMarket() &&
			(side == nil || o.Side == *side) &&
			(price == nil || o.Price == *price)
		if !match {
			kept = append(kept, o)
		}
	}
	m.orders = kept
}

// Cycle advances the clock, fills every open order that crosses the current
// quote, then checks expiration. Feed exhaustion during the fill pass is not
// an error: the contract may simply outlive its quote stream, and settlement
// still runs.
func (m *Market) Cycle() error {
	if err := m.clk.Advance(); err != nil {
		return err
	}
	if err := m.fillAll(); err != nil {
		return err
	}
	return m.settle()
}

// fillAll attempts to fill every open order against the current bid/ask. An
// order fills completely or not at all; partial fills are not modeled.
func (m *Market) fillAll() error {
	if len(m.orders) == 0 {
		return nil
	}
	quote, err := m.feeder.Current()
	if errors.Is(err, errors.ErrFeedExhausted) {
		return nil
	}
	if errors.Is(err, errors.ErrNoRecord) {
		for _, o := range m.orders {
			if o.IsMarket() {
				return errors.Wrap(errors.ErrNoLiquidity, "market order pending with no quote")
			}
		}
		return nil
	}
	if err != nil {
		return err
	}

	left := m.orders[:0]
	for _, o := range m.orders {
		switch {
		case o.Side == SideBuy && o.Price >= quote.Ask:
			m.fill(o, quote.Ask)
		case o.Side == SideSell && o.Price <= quote.Bid:
			m.fill(o, quote.Bid)
		default:
			left = append(left, o)
		}
	}
	m.orders = left
	return nil
}

func (m *Market) fill(o Order, marketPrice float64) {
	price := o.FillPrice(marketPrice)
	m.cash += o.CashFlow(price)
	m.position += o.ContractFlow()

	if tte, err := m.TTE(); err == nil {
		logging.LogFill(m.logger, o.Side.String(), o.Qty, price, tte)
	}
}

// settle resolves the contract once time-to-expiration is non-positive: a
// contract that resolved true pays the resolution value per contract held.
// The position is zeroed either way, which makes repeated settlement checks
// no-ops.
func (m *Market) settle() error {
	tte, err := m.TTE()
	if err != nil {
		return err
	}
	if tte > 0 {
		return nil
	}
	if m.position != 0 {
		if m.cfg.Resolution == 1 {
			m.cash += float64(m.position)
		}
		m.logger.Debug().
			Str("event", "settlement").
			Int("position", m.position).
			Int("resolution", m.cfg.Resolution).
			Float64("cash", m.cash).
			Msg("Contract settled")
	}
	m.position = 0
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
