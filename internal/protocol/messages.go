// Package protocol defines the JSON wire shapes exchanged with a
// client session and the decoder that turns a raw frame into a
// dispatchable command (spec §6).
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"ironbook/internal/common"

	"github.com/shopspring/decimal"
)

// Command names accepted on the wire.
const (
	CommandAdd         = "add"
	CommandCheck       = "check"
	CommandListTickers = "list_tickers"
)

// Distinct decode/dispatch failures, each surfaced verbatim as the
// body of an "Error: " reply (spec §7).
var (
	ErrMalformedFrame = errors.New("Invalid JSON format.")
	ErrMissingCommand = errors.New("Missing command.")
	ErrUnknownCommand = errors.New("Invalid command.")
	ErrMissingOrder   = errors.New("Missing order data.")
	ErrMissingTicker  = errors.New("Missing ticker symbol.")
)

// OrderAddedText is the exact unicast reply to a successful "add"
// command that produced no immediate matches (spec §6).
const OrderAddedText = "Order added to the order book."

// envelope is the outermost shape every incoming frame is parsed
// into before being dispatched by Command.
type envelope struct {
	Command string    `json:"command"`
	Order   *rawOrder `json:"order"`
	Ticker  string    `json:"ticker"`
}

// rawOrder is the client-supplied order payload, decoded loosely so
// that admission (not JSON unmarshaling) is the single place that
// enforces field-level validity.
type rawOrder struct {
	Ticker    string           `json:"ticker"`
	Side      string           `json:"side"`
	Quantity  int64            `json:"quantity"`
	UserID    string           `json:"user_id"`
	OrderType string           `json:"order_type"`
	Price     *decimal.Decimal `json:"price"`
}

// Envelope is the decoded, dispatch-ready form of one client frame.
type Envelope struct {
	Command string
	Order   *RawOrder
	Ticker  string
}

// RawOrder is the client-supplied order payload handed to admission.
type RawOrder struct {
	Ticker    string
	Side      string
	Quantity  int64
	UserID    string
	OrderType string
	Price     decimal.Decimal
	HasPrice  bool
}

// Decode parses one raw frame into an Envelope. A JSON syntax error
// maps to ErrMalformedFrame; a missing "command" field maps to
// ErrMissingCommand (spec §4.6).
func Decode(raw []byte) (Envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, ErrMalformedFrame
	}
	if env.Command == "" {
		return Envelope{}, ErrMissingCommand
	}

	out := Envelope{Command: env.Command, Ticker: env.Ticker}
	if env.Order != nil {
		out.Order = &RawOrder{
			Ticker:    env.Order.Ticker,
			Side:      env.Order.Side,
			Quantity:  env.Order.Quantity,
			UserID:    env.Order.UserID,
			OrderType: env.Order.OrderType,
			HasPrice:  env.Order.Price != nil,
		}
		if env.Order.Price != nil {
			out.Order.Price = *env.Order.Price
		}
	}
	return out, nil
}

// WireOrder is how one resting order is rendered in a "check" reply.
type WireOrder struct {
	Ticker    string  `json:"ticker"`
	Side      string  `json:"side"`
	Quantity  uint64  `json:"quantity"`
	UserID    string  `json:"user_id"`
	OrderType string  `json:"order_type"`
	Price     *string `json:"price,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// FromOrder renders a common.Order as its wire representation.
func FromOrder(o common.Order) WireOrder {
	w := WireOrder{
		Ticker:    o.Symbol,
		Side:      o.Side.String(),
		Quantity:  o.Quantity,
		UserID:    o.UserID,
		OrderType: o.Kind.String(),
		Timestamp: o.ArrivalTS.Unix(),
	}
	if o.HasPrice {
		price := o.Price.String()
		w.Price = &price
	}
	return w
}

// CheckReply is the unicast reply body to a "check" command.
type CheckReply struct {
	Buy  []WireOrder `json:"buy"`
	Sell []WireOrder `json:"sell"`
}

// ListTickersReply is the unicast reply body to "list_tickers".
type ListTickersReply struct {
	Tickers []string `json:"tickers"`
}

// WireTrade is one fill as rendered inside a matched_orders broadcast.
type WireTrade struct {
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	Quantity    uint64 `json:"quantity"`
	BuyUserID   string `json:"buy_user_id"`
	SellUserID  string `json:"sell_user_id"`
	TakerUserID string `json:"taker_user_id"`
	Timestamp   int64  `json:"timestamp"`
}

// MatchedOrdersReply is the broadcast body sent to every attached
// session when an "add" command produces one or more fills.
type MatchedOrdersReply struct {
	MatchedOrders []WireTrade `json:"matched_orders"`
}

// FromTrades renders a batch of TradeReports for broadcast.
func FromTrades(trades []common.TradeReport) MatchedOrdersReply {
	wire := make([]WireTrade, len(trades))
	for i, t := range trades {
		wire[i] = WireTrade{
			Symbol:      t.Symbol,
			Price:       t.Price.String(),
			Quantity:    t.Qty,
			BuyUserID:   t.BuyerUserID,
			SellUserID:  t.SellerUserID,
			TakerUserID: t.TakerUserID,
			Timestamp:   t.TS.Unix(),
		}
	}
	return MatchedOrdersReply{MatchedOrders: wire}
}

// ErrorText formats err as the single-frame "Error: ..." string every
// admission/protocol failure is reported as (spec §7).
func ErrorText(err error) string {
	return fmt.Sprintf("Error: %s", err)
}
