package book

import (
	"ironbook/internal/common"

	"github.com/shopspring/decimal"
)

// PriceLevel groups every resting order at one price, in FIFO arrival
// order. It is the unit of storage inside the bids/asks price trees.
type PriceLevel struct {
	Price  decimal.Decimal
	Orders []*common.Order
}

// bidsLess sorts descending by price: the best (highest) bid first
// (spec B2). tidwall/btree calls this with two *PriceLevel produced
// only for lookups/inserts, so comparing on Price alone is sufficient;
// the FIFO ordering of Orders within a level is maintained separately
// by always appending to the slice's tail.
func bidsLess(a, b *PriceLevel) bool {
	return a.Price.GreaterThan(b.Price)
}

// asksLess sorts ascending by price: the best (lowest) ask first
// (spec B2).
func asksLess(a, b *PriceLevel) bool {
	return a.Price.LessThan(b.Price)
}
