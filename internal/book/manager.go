package book

import (
	"sync"

	"ironbook/internal/common"
)

// Manager maps symbol to Book, creating books lazily on first
// reference (spec §4.3). A Book, once created, lives for the process
// lifetime; it is never removed even once it empties out.
type Manager struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewManager returns an empty Manager, optionally seeding empty books
// for the given symbols so that check/list_tickers against a known
// instrument never forces a book to spring into existence under a
// read lock. Seeding a symbol does not make it "active" until it
// receives a resting order (spec §4.3's empty-book exclusion still
// applies).
func NewManager(seedSymbols ...string) *Manager {
	m := &Manager{books: make(map[string]*Book)}
	for _, s := range seedSymbols {
		m.books[s] = NewBook(s)
	}
	return m
}

// bookFor resolves symbol's Book, creating it under the write lock if
// absent. Readers taking the read lock never observe a
// half-initialized Book: the map entry is only published once NewBook
// has fully returned.
func (m *Manager) bookFor(symbol string) *Book {
	m.mu.RLock()
	b, ok := m.books[symbol]
	m.mu.RUnlock()
	if ok {
		return b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.books[symbol]; ok {
		return b
	}
	b = NewBook(symbol)
	m.books[symbol] = b
	return b
}

// AddOrder forwards order to its symbol's Book under that symbol's own
// guard; distinct symbols proceed fully in parallel (spec §5
// cross-symbol independence).
func (m *Manager) AddOrder(order common.Order) ([]common.TradeReport, error) {
	return m.bookFor(order.Symbol).Add(order)
}

// Snapshot returns the resting bids/asks for symbol.
func (m *Manager) Snapshot(symbol string) (bids []common.Order, asks []common.Order) {
	return m.bookFor(symbol).Snapshot()
}

// ListActiveSymbols returns every symbol whose book currently has at
// least one resting bid or ask; empty books remain mapped but are
// omitted here (spec §4.3).
func (m *Manager) ListActiveSymbols() []string {
	m.mu.RLock()
	books := make([]*Book, 0, len(m.books))
	symbols := make([]string, 0, len(m.books))
	for symbol, b := range m.books {
		books = append(books, b)
		symbols = append(symbols, symbol)
	}
	m.mu.RUnlock()

	active := make([]string, 0, len(symbols))
	for i, b := range books {
		if b.HasLiquidity() {
			active = append(active, symbols[i])
		}
	}
	return active
}
