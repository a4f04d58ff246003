package backtest

import (
	"testing"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cash float64) (*OrderManager, *Portfolio) {
	t.Helper()
	p := NewPortfolio(cash)
	m := NewOrderManager(NewSimulator(NewFeeEngine(FeeConfig{Enabled: false})), p)
	return m, p
}

func TestSubmit_ValidationRejectsBeforeMatching(t *testing.T) {
	m, p := newManager(t, 1_000)
	before := p.View()

	_, err := m.Submit(simNow, limitBuy(domain.OrderGTC, 0.50, -5), testBook())
	require.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = m.Submit(simNow, domain.OrderRequest{
		TokenID: "tok", Side: domain.SideBuy, Type: domain.OrderGTC, Size: 10,
	}, testBook())
	require.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = m.Submit(simNow, domain.OrderRequest{
		TokenID: "tok", Side: domain.SideBuy, Type: domain.OrderGTD, Size: 10, LimitPrice: 0.5,
	}, testBook())
	require.ErrorIs(t, err, domain.ErrInvalidOrder)

	assert.Equal(t, before, p.View())
	assert.Empty(t, m.Resting())
}

func TestSubmit_InsufficientFundsIsRejectionNotError(t *testing.T) {
	m, p := newManager(t, 10)
	before := p.View()

	ticket, err := m.Submit(simNow, marketBuy(200), testBook())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, ticket.Status)
	assert.NotEmpty(t, ticket.Reason)

	// FOK sin fondos: portfolio byte a byte igual.
	ticket, err = m.Submit(simNow, limitBuy(domain.OrderFOK, 0.55, 300), testBook())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, ticket.Status)
	assert.Equal(t, before, p.View())
}

func TestSubmit_GTCRestsWhenNotMarketable(t *testing.T) {
	m, _ := newManager(t, 1_000)

	ticket, err := m.Submit(simNow, limitBuy(domain.OrderGTC, 0.40, 100), testBook())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, ticket.Status)
	assert.NotEmpty(t, ticket.OrderID)

	resting := m.Resting()
	require.Len(t, resting, 1)
	assert.Equal(t, ticket.OrderID, resting[0].ID)
	assert.Equal(t, []string{"tok"}, m.RestingInstruments())
}

func TestSubmit_FAKNeverRests(t *testing.T) {
	m, _ := newManager(t, 1_000)

	ticket, err := m.Submit(simNow, limitBuy(domain.OrderFAK, 0.52, 300), testBook())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, ticket.Status)
	assert.Empty(t, m.Resting())

	// Tampoco descansa cuando no llena nada.
	ticket, err = m.Submit(simNow, limitBuy(domain.OrderFAK, 0.40, 100), testBook())
	require.NoError(t, err)
	assert.Empty(t, m.Resting())
}

func TestReevaluate_MakerFillRemovesOrder(t *testing.T) {
	m, p := newManager(t, 1_000)

	ticket, err := m.Submit(simNow, limitBuy(domain.OrderGTC, 0.45, 100), testBook())
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, ticket.Status)

	// Un tick después el ask cae por debajo del límite: fill maker.
	later := simNow.Add(time.Hour)
	fills := m.Reevaluate(later, map[string]domain.OrderBook{
		"tok": {TokenID: "tok", Asks: []domain.BookEntry{{Price: 0.44, Size: 500}}},
	})
	require.Len(t, fills, 1)
	assert.Equal(t, domain.LiquidityMaker, fills[0].Liquidity)
	assert.Equal(t, 0.45, fills[0].Price)
	assert.Empty(t, m.Resting())

	// El fill quedó aplicado al ledger.
	assert.InDelta(t, 1_000-45, p.Cash(), 1e-9)
}

func TestReevaluate_GTDExpiresEvenIfMatchable(t *testing.T) {
	m, p := newManager(t, 1_000)

	req := limitBuy(domain.OrderGTD, 0.45, 100)
	req.ExpiresAt = simNow.Add(30 * time.Minute)
	_, err := m.Submit(simNow, req, testBook())
	require.NoError(t, err)

	// Pasada la expiración con book cruzable: expira, nunca llena.
	later := simNow.Add(time.Hour)
	fills := m.Reevaluate(later, map[string]domain.OrderBook{
		"tok": {TokenID: "tok", Asks: []domain.BookEntry{{Price: 0.40, Size: 500}}},
	})
	assert.Empty(t, fills)
	assert.Empty(t, m.Resting())
	assert.Empty(t, p.Trades())
}

func TestReevaluate_FIFOBySubmissionTime(t *testing.T) {
	m, _ := newManager(t, 1_000)

	first, err := m.Submit(simNow, limitBuy(domain.OrderGTC, 0.45, 60), testBook())
	require.NoError(t, err)
	second, err := m.Submit(simNow.Add(time.Minute), limitBuy(domain.OrderGTC, 0.45, 60), testBook())
	require.NoError(t, err)

	// Profundidad para 60: solo la orden más antigua llena.
	fills := m.Reevaluate(simNow.Add(time.Hour), map[string]domain.OrderBook{
		"tok": {TokenID: "tok", Asks: []domain.BookEntry{{Price: 0.44, Size: 60}}},
	})
	require.Len(t, fills, 1)
	assert.Equal(t, first.OrderID, fills[0].OrderID)

	resting := m.Resting()
	require.Len(t, resting, 1)
	assert.Equal(t, second.OrderID, resting[0].ID)
}

func TestReevaluate_NoSnapshotLeavesOrderUntouched(t *testing.T) {
	m, _ := newManager(t, 1_000)

	_, err := m.Submit(simNow, limitBuy(domain.OrderGTC, 0.40, 100), testBook())
	require.NoError(t, err)

	fills := m.Reevaluate(simNow.Add(time.Hour), map[string]domain.OrderBook{})
	assert.Empty(t, fills)
	assert.Len(t, m.Resting(), 1)
}

func TestCancel(t *testing.T) {
	m, _ := newManager(t, 1_000)

	ticket, err := m.Submit(simNow, limitBuy(domain.OrderGTC, 0.40, 100), testBook())
	require.NoError(t, err)

	require.NoError(t, m.Cancel(ticket.OrderID))
	assert.Empty(t, m.Resting())

	err = m.Cancel("no-such-order")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
