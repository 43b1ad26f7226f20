package admission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		Symbol:   "ACME",
		Side:     "buy",
		Kind:     "limit",
		Quantity: 10,
		UserID:   "alice",
		Price:    decimal.RequireFromString("100.00"),
		HasPrice: true,
	}
}

func TestAdmit_ValidLimitOrder(t *testing.T) {
	order, err := Admit(validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, order.UUID)
	assert.Equal(t, "ACME", order.Symbol)
	assert.True(t, order.HasPrice)
}

func TestAdmit_ValidMarketOrderIgnoresSuppliedPrice(t *testing.T) {
	req := validRequest()
	req.Kind = "market"

	order, err := Admit(req)
	require.NoError(t, err)
	assert.False(t, order.HasPrice)
}

func TestAdmit_RejectsEmptySymbol(t *testing.T) {
	req := validRequest()
	req.Symbol = "  "
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrEmptySymbol)
}

func TestAdmit_RejectsInvalidSide(t *testing.T) {
	req := validRequest()
	req.Side = "short"
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestAdmit_RejectsInvalidKind(t *testing.T) {
	req := validRequest()
	req.Kind = "stop"
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestAdmit_RejectsNonPositiveQuantity(t *testing.T) {
	req := validRequest()
	req.Quantity = 0
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrNonPositiveQty)
}

func TestAdmit_RejectsEmptyUserID(t *testing.T) {
	req := validRequest()
	req.UserID = ""
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestAdmit_RejectsLimitOrderWithoutPrice(t *testing.T) {
	req := validRequest()
	req.HasPrice = false
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrMissingPrice)
}

func TestAdmit_RejectsNonPositivePrice(t *testing.T) {
	req := validRequest()
	req.Price = decimal.Zero
	_, err := Admit(req)
	assert.ErrorIs(t, err, ErrNonPositivePrice)
}

func TestAdmit_SideIsCaseInsensitive(t *testing.T) {
	req := validRequest()
	req.Side = "SELL"
	order, err := Admit(req)
	require.NoError(t, err)
	assert.Equal(t, "sell", order.Side.String())
}
