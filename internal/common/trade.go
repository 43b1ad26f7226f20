package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeReport is one fill produced by a Book's matching pass. It is a
// freshly constructed value owned by whichever call emits it; a Book
// never retains TradeReports after emitting them (spec lifecycle: the
// report is created, appended to the TradeLog, broadcast, then
// forgotten).
type TradeReport struct {
	Symbol string
	Price  decimal.Decimal
	Qty    uint64
	TS     time.Time

	BuyerUserID  string
	SellerUserID string

	// TakerUserID is the aggressor: the just-arrived order's owner for
	// a marketable add, or whichever of the two resting orders arrived
	// later when a cross is discovered between two resting limits.
	TakerUserID string

	// TakerSide is the side of whichever order is the taker, used to
	// populate the TradeLog's compatibility-preserving order_type
	// column (spec OQ1).
	TakerSide Side

	// CrossedRestingLimits is true when the trade arose from two
	// resting LIMIT orders crossing rather than a marketable add
	// (spec OQ1: the order_type column is hard-coded "buy" in that
	// case for source parity).
	CrossedRestingLimits bool
}

func (t TradeReport) String() string {
	return fmt.Sprintf(
		"TradeReport{symbol=%s price=%s qty=%d buyer=%s seller=%s taker=%s}",
		t.Symbol, t.Price, t.Qty, t.BuyerUserID, t.SellerUserID, t.TakerUserID,
	)
}
