// Package admission validates a raw decoded order request and turns
// it into a common.Order ready for a Book, rejecting anything that
// violates the spec's Order invariants before it ever reaches the
// matching engine.
package admission

import (
	"errors"
	"fmt"
	"strings"

	"ironbook/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Distinct validation failures, each surfaced to the client as a
// single "Error: ..." reply (spec §7 InvalidOrderField).
var (
	ErrEmptySymbol      = errors.New("ticker must not be empty")
	ErrInvalidSide      = errors.New("side must be \"buy\" or \"sell\"")
	ErrInvalidKind      = errors.New("order_type must be \"limit\" or \"market\"")
	ErrNonPositiveQty   = errors.New("quantity must be a positive integer")
	ErrEmptyUserID      = errors.New("user_id must not be empty")
	ErrMissingPrice     = errors.New("price is required for limit orders")
	ErrNonPositivePrice = errors.New("price must be greater than zero")
)

// Request is the raw, wire-decoded order payload before validation.
// HasPrice reflects whether the client supplied a price field at all,
// regardless of order type.
type Request struct {
	Symbol   string
	Side     string
	Kind     string
	Quantity int64
	UserID   string
	Price    decimal.Decimal
	HasPrice bool
}

// Admit validates req and returns a common.Order ready to be handed
// to a Book. ArrivalSeq/ArrivalTS are left unset: the Book assigns
// them under its own guard.
func Admit(req Request) (common.Order, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return common.Order{}, ErrEmptySymbol
	}

	side, err := parseSide(req.Side)
	if err != nil {
		return common.Order{}, err
	}

	kind, err := parseKind(req.Kind)
	if err != nil {
		return common.Order{}, err
	}

	if req.Quantity <= 0 {
		return common.Order{}, ErrNonPositiveQty
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return common.Order{}, ErrEmptyUserID
	}

	order := common.Order{
		UUID:     uuid.New().String(),
		Symbol:   symbol,
		Side:     side,
		Kind:     kind,
		UserID:   userID,
		Quantity: uint64(req.Quantity),
	}

	switch kind {
	case common.LimitOrder:
		if !req.HasPrice {
			return common.Order{}, ErrMissingPrice
		}
		if !req.Price.IsPositive() {
			return common.Order{}, ErrNonPositivePrice
		}
		order.Price = req.Price
		order.HasPrice = true
	case common.MarketOrder:
		// A market order carries no price regardless of what the
		// client supplied (I2); HasPrice stays false.
	}

	return order, nil
}

func parseSide(raw string) (common.Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return common.Buy, nil
	case "sell":
		return common.Sell, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidSide, raw)
	}
}

func parseKind(raw string) (common.OrderKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "limit":
		return common.LimitOrder, nil
	case "market":
		return common.MarketOrder, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidKind, raw)
	}
}
