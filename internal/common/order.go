package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a single buy or sell instruction against one symbol's book.
//
// Once admitted, Symbol/Side/Kind/UserID/Price are immutable; Quantity
// only ever decreases as fills consume it (I1-I3).
type Order struct {
	UUID   string
	Symbol string
	Side   Side
	Kind   OrderKind
	UserID string

	// Quantity is the remaining, unfilled size. Always > 0 while the
	// order is held by a Book (I1).
	Quantity uint64

	// Price is defined iff Kind == LimitOrder (I2). A MarketOrder
	// always carries HasPrice == false regardless of what the client
	// supplied on the wire.
	Price    decimal.Decimal
	HasPrice bool

	// ArrivalSeq is the monotonically increasing, per-symbol sequence
	// number assigned by the Book when it begins processing the order.
	// It is the sole price-time tiebreak; ArrivalTS is kept only for
	// display/wire purposes and must never be used to break ties,
	// since two orders admitted in the same wall-clock instant are
	// common under load.
	ArrivalSeq uint64
	ArrivalTS  time.Time
}

func (o Order) String() string {
	price := "n/a"
	if o.HasPrice {
		price = o.Price.String()
	}
	return fmt.Sprintf(
		"Order{uuid=%s symbol=%s side=%s kind=%s qty=%d price=%s user=%s seq=%d}",
		o.UUID, o.Symbol, o.Side, o.Kind, o.Quantity, price, o.UserID, o.ArrivalSeq,
	)
}
