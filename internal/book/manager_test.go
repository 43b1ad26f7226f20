package book

import (
	"sync"
	"testing"

	"ironbook/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6: a symbol seeded at startup with no resting liquidity is not
// reported by ListActiveSymbols until an order actually rests there.
func TestManager_ListActiveSymbolsHidesEmptyBooks(t *testing.T) {
	m := NewManager("ACME", "WIDGET")

	assert.Empty(t, m.ListActiveSymbols())

	order := limitOrder(common.Buy, "alice", 1, "10.00")
	order.Symbol = "ACME"
	_, err := m.AddOrder(order)
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME"}, m.ListActiveSymbols())
}

// A symbol never seeded at startup is still created lazily on its
// first order (spec §4.3).
func TestManager_CreatesBookLazily(t *testing.T) {
	m := NewManager()

	order := limitOrder(common.Sell, "bob", 1, "10.00")
	order.Symbol = "NEWSYM"
	_, err := m.AddOrder(order)
	require.NoError(t, err)

	assert.Equal(t, []string{"NEWSYM"}, m.ListActiveSymbols())
}

// Concurrent orders against distinct symbols never race on the shared
// book map (spec §5 cross-symbol independence).
func TestManager_ConcurrentDistinctSymbolsDoNotRace(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	symbols := []string{"A", "B", "C", "D"}
	for _, sym := range symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				order := limitOrder(common.Buy, "trader", 1, "10.00")
				order.Symbol = sym
				_, _ = m.AddOrder(order)
			}
		}()
	}
	wg.Wait()

	active := m.ListActiveSymbols()
	assert.Len(t, active, len(symbols))
}
