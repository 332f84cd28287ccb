package market

// Side is the direction of an order.
type Side int

const (
	// SideBuy increases the position.
	SideBuy Side = iota
	// SideSell decreases the position.
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Contract prices are probabilities of resolution, bounded to [0, 1]. The
// bounds double as market-order sentinel prices: a buy at ContractMax and a
// sell at ContractMin are guaranteed to cross any quote.
const (
	ContractMin = 0.0
	ContractMax = 1.0
)

// Order is a resting or pending order owned by the market's open-order list.
type Order struct {
	Side   Side
	Price  float64
	Qty    int
	market bool
}

// newMarketOrder builds an order whose sentinel price crosses any quote.
func newMarketOrder(qty int, side Side) Order {
	price := ContractMax
	if side == SideSell {
		price = ContractMin
	}
	return Order{Side: side, Price: price, Qty: qty, market: true}
}

// newLimitOrder builds a resting limit order.
func newLimitOrder(qty int, side Side, price float64) Order {
	return Order{Side: side, Price: price, Qty: qty}
}

// IsMarket reports whether the order fills at whatever price the book offers.
func (o Order) IsMarket() bool { return o.market }

// FillPrice returns the execution price against the given market price. The
// clamp against the order's own price looks redundant for resting limits
// (the matching condition already guarantees a cross) but is load-bearing for
// market orders, whose sentinel price is a permissive bound.
func (o Order) FillPrice(marketPrice float64) float64 {
	if o.Side == SideBuy {
		if o.Price < marketPrice {
			return o.Price
		}
		return marketPrice
	}
	if o.Price > marketPrice {
		return o.Price
	}
	return marketPrice
}

// CashFlow returns the signed cash change from filling at price: negative for
// buys, positive for sells.
func (o Order) CashFlow(price float64) float64 {
	if o.Side == SideBuy {
		return -price * float64(o.Qty)
	}
	return price * float64(o.Qty)
}

// ContractFlow returns the signed position change from a fill.
func (o Order) ContractFlow() int {
	if o.Side == SideBuy {
		return o.Qty
	}
	return -o.Qty
}
