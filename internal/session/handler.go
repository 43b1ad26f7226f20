package session

import (
	"encoding/json"
	"errors"

	"ironbook/internal/admission"
	"ironbook/internal/book"
	"ironbook/internal/broker"
	"ironbook/internal/metrics"
	"ironbook/internal/protocol"
	"ironbook/internal/tradelog"

	"github.com/rs/zerolog/log"
)

// dispatcher holds every collaborator a ProtocolHandler needs to turn
// one decoded frame into a reply and, when matches occur, a broadcast
// (spec §4.6, data flow in §2).
type dispatcher struct {
	manager  *book.Manager
	tradeLog *tradelog.TradeLog
	broker   *broker.Broker
}

// handle processes a single raw frame from session and sends any
// unicast reply to it directly. An "add" that produces matches gets no
// unicast reply; its trades go out as a broadcast instead.
func (d *dispatcher) handle(sess *wsSession, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		d.reply(sess, protocol.ErrorText(err))
		return
	}

	switch env.Command {
	case protocol.CommandAdd:
		d.handleAdd(sess, env)
	case protocol.CommandCheck:
		d.handleCheck(sess, env)
	case protocol.CommandListTickers:
		d.handleListTickers(sess)
	default:
		log.Warn().Str("command", env.Command).Str("session", sess.ID()).Msg("unknown command")
		d.reply(sess, protocol.ErrorText(protocol.ErrUnknownCommand))
	}
}

func (d *dispatcher) handleAdd(sess *wsSession, env protocol.Envelope) {
	if env.Order == nil {
		d.reply(sess, protocol.ErrorText(protocol.ErrMissingOrder))
		return
	}

	order, err := admission.Admit(admission.Request{
		Symbol:   env.Order.Ticker,
		Side:     env.Order.Side,
		Kind:     env.Order.OrderType,
		Quantity: env.Order.Quantity,
		UserID:   env.Order.UserID,
		Price:    env.Order.Price,
		HasPrice: env.Order.HasPrice,
	})
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(err.Error()).Inc()
		d.reply(sess, protocol.ErrorText(err))
		return
	}
	metrics.OrdersAdmitted.WithLabelValues(order.Symbol, order.Side.String()).Inc()

	trades, err := d.manager.AddOrder(order)
	if err != nil {
		// A Book invariant/logic fault: fatal to this order, but
		// never to the process or other symbols (spec §7).
		log.Error().Err(err).Str("symbol", order.Symbol).Msg("book rejected admitted order")
		d.reply(sess, protocol.ErrorText(err))
		return
	}

	if len(trades) == 0 {
		d.reply(sess, protocol.OrderAddedText)
		return
	}

	metrics.TradesMatched.WithLabelValues(order.Symbol).Add(float64(len(trades)))

	if err := d.tradeLog.AppendBatch(trades); err != nil {
		metrics.DurabilityFailures.Inc()
		// Durability failures are logged and reported but do not roll
		// back the in-memory fill already applied (spec §4.4, §9 OQ3).
		log.Error().Err(err).Str("symbol", order.Symbol).Msg("durability failure persisting trades")
	}

	payload, err := json.Marshal(protocol.FromTrades(trades))
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal matched_orders broadcast")
		return
	}
	d.broker.Broadcast(payload)
}

func (d *dispatcher) handleCheck(sess *wsSession, env protocol.Envelope) {
	if env.Ticker == "" {
		d.reply(sess, protocol.ErrorText(protocol.ErrMissingTicker))
		return
	}

	bids, asks := d.manager.Snapshot(env.Ticker)
	reply := protocol.CheckReply{
		Buy:  make([]protocol.WireOrder, len(bids)),
		Sell: make([]protocol.WireOrder, len(asks)),
	}
	for i, o := range bids {
		reply.Buy[i] = protocol.FromOrder(o)
	}
	for i, o := range asks {
		reply.Sell[i] = protocol.FromOrder(o)
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		log.Error().Err(err).Str("ticker", env.Ticker).Msg("failed to marshal check reply")
		return
	}
	d.replyBytes(sess, payload)
}

func (d *dispatcher) handleListTickers(sess *wsSession) {
	reply := protocol.ListTickersReply{Tickers: d.manager.ListActiveSymbols()}
	payload, err := json.Marshal(reply)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal list_tickers reply")
		return
	}
	d.replyBytes(sess, payload)
}

func (d *dispatcher) reply(sess *wsSession, text string) {
	d.replyBytes(sess, []byte(text))
}

func (d *dispatcher) replyBytes(sess *wsSession, payload []byte) {
	if err := sess.Send(payload); err != nil && !errors.Is(err, errClosed) {
		log.Error().Err(err).Str("session", sess.ID()).Msg("failed to reply to session")
	}
}
