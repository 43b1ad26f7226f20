package tradelog

import (
	"path/filepath"
	"testing"
	"time"

	"ironbook/internal/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *TradeLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.db")
	log, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func sampleTrade() common.TradeReport {
	return common.TradeReport{
		Symbol:       "ACME",
		Price:        decimal.RequireFromString("100.50"),
		Qty:          10,
		TS:           time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		BuyerUserID:  "alice",
		SellerUserID: "bob",
		TakerUserID:  "alice",
		TakerSide:    common.Buy,
	}
}

// P6: every trade a Book produces is durably persisted exactly once.
func TestAppendBatch_PersistsEveryTrade(t *testing.T) {
	log := openTestLog(t)

	err := log.AppendBatch([]common.TradeReport{sampleTrade(), sampleTrade()})
	require.NoError(t, err)

	var count int
	row := log.db.QueryRow("SELECT COUNT(*) FROM cleared_trades")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 2, count)
}

func TestAppendBatch_EmptyIsNoOp(t *testing.T) {
	log := openTestLog(t)
	require.NoError(t, log.AppendBatch(nil))

	var count int
	row := log.db.QueryRow("SELECT COUNT(*) FROM cleared_trades")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 0, count)
}

// OQ1: a limit-vs-limit cross records order_type "buy" regardless of
// which side was the taker.
func TestOrderTypeColumn_CrossedRestingLimitsIsAlwaysBuy(t *testing.T) {
	trade := sampleTrade()
	trade.CrossedRestingLimits = true
	trade.TakerSide = common.Sell

	assert.Equal(t, "buy", orderTypeColumn(trade))
}

// OQ1: a market-order fill records the aggressor's own side.
func TestOrderTypeColumn_MarketFillUsesTakerSide(t *testing.T) {
	trade := sampleTrade()
	trade.CrossedRestingLimits = false
	trade.TakerSide = common.Sell

	assert.Equal(t, "sell", orderTypeColumn(trade))
}

func TestFillerAndFilled_TakerIsBuyer(t *testing.T) {
	trade := sampleTrade()
	filler, filled := fillerAndFilled(trade)
	assert.Equal(t, "alice", filler)
	assert.Equal(t, "bob", filled)
}

func TestFillerAndFilled_TakerIsSeller(t *testing.T) {
	trade := sampleTrade()
	trade.TakerUserID = trade.SellerUserID
	filler, filled := fillerAndFilled(trade)
	assert.Equal(t, "bob", filler)
	assert.Equal(t, "alice", filled)
}

// OQ1: a limit-vs-limit cross records filler=buyer/filled=seller
// unconditionally, the same source compatibility rule orderTypeColumn
// applies, even when the ask (the seller) is the taker.
func TestFillerAndFilled_CrossedRestingLimitsIgnoresTaker(t *testing.T) {
	trade := sampleTrade()
	trade.CrossedRestingLimits = true
	trade.TakerUserID = trade.SellerUserID
	filler, filled := fillerAndFilled(trade)
	assert.Equal(t, "alice", filler)
	assert.Equal(t, "bob", filled)
}

func TestAppendBatch_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.AppendBatch([]common.TradeReport{sampleTrade()}))
	require.NoError(t, log.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	var count int
	row := reopened.db.QueryRow("SELECT COUNT(*) FROM cleared_trades")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}
