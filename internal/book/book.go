// Package book implements the per-symbol price-time priority limit
// order book and its matching algorithm.
package book

import (
	"errors"
	"sync"
	"time"

	"ironbook/internal/common"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

var (
	// ErrUnknownKind is returned by Add when an Order carries an
	// OrderKind other than LimitOrder/MarketOrder. Admission rejects
	// this before it can ever reach a Book in practice; surfacing it
	// here is defensive, matching the spec's "Book operations do not
	// fail after admission" contract.
	ErrUnknownKind = errors.New("book: unknown order kind")
)

// Book holds the two price-time priority queues for one symbol and
// matches crossing orders against them. All exported methods acquire
// guard for their entire critical section, giving per-symbol
// linearizability (spec B5, §5).
type Book struct {
	Symbol string

	guard sync.Mutex
	bids  *btree.BTreeG[*PriceLevel]
	asks  *btree.BTreeG[*PriceLevel]

	nextSeq uint64
}

// NewBook constructs an empty book for symbol.
func NewBook(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids:   btree.NewBTreeG(bidsLess),
		asks:   btree.NewBTreeG(asksLess),
	}
}

// Add admits order into the book: assigns its arrival sequence,
// matches it against resting liquidity where possible, and rests any
// remaining LIMIT quantity. It returns every TradeReport produced, in
// the order matches were computed (best-price-first, then time
// priority), ready for the caller to persist and broadcast.
func (b *Book) Add(order common.Order) ([]common.TradeReport, error) {
	b.guard.Lock()
	defer b.guard.Unlock()

	b.nextSeq++
	order.ArrivalSeq = b.nextSeq
	order.ArrivalTS = time.Now()

	switch order.Kind {
	case common.MarketOrder:
		return b.matchMarket(&order), nil
	case common.LimitOrder:
		return b.addLimit(&order), nil
	default:
		return nil, ErrUnknownKind
	}
}

// Snapshot returns an ordered copy of both sides of the book at the
// moment of the call: best price first, FIFO within a price level.
func (b *Book) Snapshot() (bids []common.Order, asks []common.Order) {
	b.guard.Lock()
	defer b.guard.Unlock()

	b.bids.Scan(func(level *PriceLevel) bool {
		for _, o := range level.Orders {
			bids = append(bids, *o)
		}
		return true
	})
	b.asks.Scan(func(level *PriceLevel) bool {
		for _, o := range level.Orders {
			asks = append(asks, *o)
		}
		return true
	})
	return bids, asks
}

// HasLiquidity reports whether either side currently has a resting
// order, used by BookManager.ListActiveSymbols (spec §4.3).
func (b *Book) HasLiquidity() bool {
	b.guard.Lock()
	defer b.guard.Unlock()
	return b.bids.Len() > 0 || b.asks.Len() > 0
}

// addLimit appends order to its own side, then runs the matching
// pass. B2/B4: a LIMIT order is only ever resting, never discarded.
func (b *Book) addLimit(order *common.Order) []common.TradeReport {
	levels := b.levelsFor(order.Side)
	insertOrder(levels, order)
	return b.matchLimit()
}

// levelsFor returns the own-side tree a LIMIT order rests on: bids for
// BUY, asks for SELL.
func (b *Book) levelsFor(side common.Side) *btree.BTreeG[*PriceLevel] {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// insertOrder appends order to the FIFO tail of its price level,
// creating the level if this is the first order at that price.
func insertOrder(levels *btree.BTreeG[*PriceLevel], order *common.Order) {
	key := &PriceLevel{Price: order.Price}
	if existing, ok := levels.GetMut(key); ok {
		existing.Orders = append(existing.Orders, order)
		return
	}
	levels.Set(&PriceLevel{Price: order.Price, Orders: []*common.Order{order}})
}

// matchLimit drains crossing quantity between the best bid and best
// ask while bestBid.Price >= bestAsk.Price (spec §4.2 match_limit).
// The resting ask's price is always the trade price (spec OQ2, pinned
// to the source's unconditional "trade at the ask's price" rule for
// compatibility); the taker is whichever side arrived later.
func (b *Book) matchLimit() []common.TradeReport {
	var trades []common.TradeReport

	for {
		bestBid, ok := b.bids.MinMut()
		if !ok {
			break
		}
		bestAsk, ok := b.asks.MinMut()
		if !ok {
			break
		}
		if bestBid.Price.LessThan(bestAsk.Price) {
			break
		}

		bid := bestBid.Orders[0]
		ask := bestAsk.Orders[0]

		qty := minUint64(bid.Quantity, ask.Quantity)
		tradePrice := ask.Price

		taker := ask
		if bid.ArrivalSeq > ask.ArrivalSeq {
			taker = bid
		}

		trades = append(trades, common.TradeReport{
			Symbol:               b.Symbol,
			Price:                tradePrice,
			Qty:                  qty,
			TS:                   time.Now(),
			BuyerUserID:          bid.UserID,
			SellerUserID:         ask.UserID,
			TakerUserID:          taker.UserID,
			TakerSide:            taker.Side,
			CrossedRestingLimits: true,
		})

		bid.Quantity -= qty
		ask.Quantity -= qty

		if bid.Quantity == 0 {
			popFront(b.bids, bestBid)
		}
		if ask.Quantity == 0 {
			popFront(b.asks, bestAsk)
		}
	}

	return trades
}

// matchMarket sweeps the opposite side of the book until order is
// fully filled or the opposite side is exhausted. Any remaining
// quantity is discarded (B4): a MARKET order never rests.
func (b *Book) matchMarket(order *common.Order) []common.TradeReport {
	opp := b.asks
	if order.Side == common.Sell {
		opp = b.bids
	}

	var trades []common.TradeReport

	for order.Quantity > 0 {
		level, ok := opp.MinMut()
		if !ok {
			break
		}
		resting := level.Orders[0]

		qty := minUint64(order.Quantity, resting.Quantity)

		buyerID, sellerID := order.UserID, resting.UserID
		if order.Side == common.Sell {
			buyerID, sellerID = resting.UserID, order.UserID
		}

		trades = append(trades, common.TradeReport{
			Symbol:       b.Symbol,
			Price:        resting.Price, // maker price, not the aggressor's
			Qty:          qty,
			TS:           time.Now(),
			BuyerUserID:  buyerID,
			SellerUserID: sellerID,
			TakerUserID:  order.UserID,
			TakerSide:    order.Side,
		})

		order.Quantity -= qty
		resting.Quantity -= qty

		if resting.Quantity == 0 {
			popFront(opp, level)
		}
	}

	if order.Quantity > 0 {
		log.Info().
			Str("symbol", b.Symbol).
			Str("user", order.UserID).
			Uint64("unfilled", order.Quantity).
			Msg("market order discarded with unfilled remainder")
	}

	return trades
}

// popFront removes the FIFO head of level, deleting the whole level
// from tree once it is empty.
func popFront(tree *btree.BTreeG[*PriceLevel], level *PriceLevel) {
	level.Orders = level.Orders[1:]
	if len(level.Orders) == 0 {
		tree.Delete(level)
	}
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
