// Package tradelog is the durable, append-only store of cleared
// trades. Every TradeReport a Book emits is appended here exactly
// once before the call that produced it returns to its caller (spec
// §4.4, §9 OQ3).
package tradelog

import (
	"database/sql"
	"fmt"

	"ironbook/internal/common"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS cleared_trades (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker         TEXT    NOT NULL,
	order_type     TEXT    NOT NULL,
	price          REAL    NOT NULL,
	quantity       INTEGER NOT NULL,
	cleared_at     TEXT    NOT NULL,
	filler_user_id TEXT    NOT NULL,
	filled_user_id TEXT    NOT NULL
)`

const insertRow = `
INSERT INTO cleared_trades
	(ticker, order_type, price, quantity, cleared_at, filler_user_id, filled_user_id)
VALUES
	(?, ?, ?, ?, ?, ?, ?)`

// TradeLog wraps a single long-lived *sql.DB. Unlike the source this
// engine is ported from, which opened a fresh connection per insert,
// one handle is opened once at startup and reused for the process
// lifetime (spec §9 redesign hint).
type TradeLog struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the cleared_trades table exists.
func Open(path string) (*TradeLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("tradelog: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tradelog: migrate schema: %w", err)
	}
	return &TradeLog{db: db}, nil
}

// Close releases the underlying database handle.
func (t *TradeLog) Close() error {
	return t.db.Close()
}

// AppendBatch persists every trade in trades inside a single
// transaction, satisfying spec §4.4's "MAY batch appends within a
// single add call provided all-or-nothing durability is preserved".
// On failure it is logged as a DurabilityFailure and returned to the
// caller; per spec §9 OQ3 the caller does not roll back the in-memory
// fill that already happened.
func (t *TradeLog) AppendBatch(trades []common.TradeReport) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		log.Error().Err(err).Msg("tradelog: begin transaction failed")
		return fmt.Errorf("tradelog: begin: %w", err)
	}

	stmt, err := tx.Prepare(insertRow)
	if err != nil {
		tx.Rollback()
		log.Error().Err(err).Msg("tradelog: prepare insert failed")
		return fmt.Errorf("tradelog: prepare: %w", err)
	}
	defer stmt.Close()

	for _, trade := range trades {
		orderType := orderTypeColumn(trade)
		price, _ := trade.Price.Float64()
		clearedAt := trade.TS.UTC().Format("2006-01-02 15:04:05")

		fillerID, filledID := fillerAndFilled(trade)

		if _, err := stmt.Exec(trade.Symbol, orderType, price, trade.Qty, clearedAt, fillerID, filledID); err != nil {
			tx.Rollback()
			log.Error().Err(err).Str("symbol", trade.Symbol).Msg("tradelog: insert failed")
			return fmt.Errorf("tradelog: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("tradelog: commit failed")
		return fmt.Errorf("tradelog: commit: %w", err)
	}
	return nil
}

// orderTypeColumn preserves the source's exact, semantically-ambiguous
// behavior for the order_type column (spec §9 OQ1): a limit-vs-limit
// cross is hard-coded "buy", while a market-vs-limit fill stores the
// aggressor's side.
func orderTypeColumn(trade common.TradeReport) string {
	if trade.CrossedRestingLimits {
		return "buy"
	}
	return trade.TakerSide.String()
}

// fillerAndFilled maps a TradeReport onto the filler/filled columns the
// source populates. A limit-vs-limit cross hard-codes filler=buyer,
// filled=seller unconditionally, the same source compatibility rule
// orderTypeColumn applies for order_type (spec §9 OQ1); only a market
// fill's filler/filled follows the taker.
func fillerAndFilled(trade common.TradeReport) (filler, filled string) {
	if trade.CrossedRestingLimits {
		return trade.BuyerUserID, trade.SellerUserID
	}
	if trade.TakerUserID == trade.BuyerUserID {
		return trade.BuyerUserID, trade.SellerUserID
	}
	return trade.SellerUserID, trade.BuyerUserID
}
