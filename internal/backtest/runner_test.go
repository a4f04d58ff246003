package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
	"github.com/alejandrodnm/backbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubData sirve un book por token y tick, y registra cada `at` consultado
// para verificar que ninguna query mira al futuro.
type stubData struct {
	books     map[string]map[int64]domain.OrderBook // tokenID → unix(at) → book
	fallback  map[string]domain.OrderBook
	failAfter time.Time // FetchOrderBook falla en o después de este instante
	queriedAt []time.Time
}

func (s *stubData) bookAt(tokenID string, at time.Time) (domain.OrderBook, bool) {
	if byTick, ok := s.books[tokenID]; ok {
		if b, ok := byTick[at.Unix()]; ok {
			return b, true
		}
	}
	b, ok := s.fallback[tokenID]
	return b, ok
}

func (s *stubData) FetchMarkets(_ context.Context, at time.Time) ([]domain.Market, error) {
	s.queriedAt = append(s.queriedAt, at)
	return nil, nil
}

func (s *stubData) FetchOrderBook(_ context.Context, tokenID string, at time.Time) (domain.OrderBook, error) {
	s.queriedAt = append(s.queriedAt, at)
	if !s.failAfter.IsZero() && !at.Before(s.failAfter) {
		return domain.OrderBook{}, domain.ErrMarketData
	}
	b, _ := s.bookAt(tokenID, at)
	return b, nil
}

func (s *stubData) FetchPrices(_ context.Context, tokenIDs []string, at time.Time) (map[string]float64, error) {
	s.queriedAt = append(s.queriedAt, at)
	prices := make(map[string]float64, len(tokenIDs))
	for _, id := range tokenIDs {
		if b, ok := s.bookAt(id, at); ok && b.Midpoint() > 0 {
			prices[id] = b.Midpoint()
		}
	}
	return prices, nil
}

// scriptedStrategy ejecuta una función por número de tick.
type scriptedStrategy struct {
	tick  int
	steps map[int]func(ctx context.Context, tc *ports.TickContext) error
}

func (s *scriptedStrategy) OnTick(ctx context.Context, tc *ports.TickContext) error {
	defer func() { s.tick++ }()
	if fn, ok := s.steps[s.tick]; ok {
		return fn(ctx, tc)
	}
	return nil
}

var (
	runStart = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	runEnd   = runStart.Add(4 * time.Hour)
)

func steadyBook(bid, ask float64) domain.OrderBook {
	return domain.OrderBook{
		TokenID: "tok",
		Bids:    []domain.BookEntry{{Price: bid, Size: 1_000}},
		Asks:    []domain.BookEntry{{Price: ask, Size: 1_000}},
	}
}

func TestRunner_EquityCurveAndDeterminism(t *testing.T) {
	data := &stubData{fallback: map[string]domain.OrderBook{"tok": steadyBook(0.48, 0.52)}}
	strat := &scriptedStrategy{steps: map[int]func(context.Context, *ports.TickContext) error{
		0: func(ctx context.Context, tc *ports.TickContext) error {
			ticket, err := tc.Submit(ctx, domain.OrderRequest{
				TokenID: "tok", Venue: domain.VenuePolymarket,
				Side: domain.SideBuy, Type: domain.OrderMarket, Size: 100,
			})
			if err != nil {
				return err
			}
			if ticket.Status != domain.StatusMatched {
				return errors.New("expected immediate fill")
			}
			return nil
		},
	}}

	r, err := NewRunner(Config{
		StartTime: runStart, EndTime: runEnd, Step: time.Hour, InitialCash: 10_000,
	}, data, strat)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Completed)

	// Un punto de equity por tick: start..end inclusive con step 1h.
	require.Len(t, result.EquityCurve, 5)
	for i := 1; i < len(result.EquityCurve); i++ {
		assert.True(t, result.EquityCurve[i].Timestamp.After(result.EquityCurve[i-1].Timestamp))
	}

	// Compra 100 a 0.52 → cash 9948; valorada al mid 0.50 → 9998.
	require.Len(t, result.Trades, 1)
	assert.InDelta(t, 9_998, result.FinalValue, 1e-9)

	// Ninguna query vio un instante fuera de los límites del run.
	for _, at := range data.queriedAt {
		assert.False(t, at.Before(runStart))
		assert.False(t, at.After(runEnd))
	}
}

func TestRunner_RestingOrderFillsOnLaterTick(t *testing.T) {
	// Tick 0: ask 0.52, el límite 0.45 no cruza y descansa.
	// Tick 2: el ask cae a 0.44 y la orden llena como maker a 0.45.
	data := &stubData{
		books: map[string]map[int64]domain.OrderBook{
			"tok": {
				runStart.Add(2 * time.Hour).Unix(): steadyBook(0.40, 0.44),
			},
		},
		fallback: map[string]domain.OrderBook{"tok": steadyBook(0.48, 0.52)},
	}
	strat := &scriptedStrategy{steps: map[int]func(context.Context, *ports.TickContext) error{
		0: func(ctx context.Context, tc *ports.TickContext) error {
			ticket, err := tc.Submit(ctx, domain.OrderRequest{
				TokenID: "tok", Venue: domain.VenuePolymarket,
				Side: domain.SideBuy, Type: domain.OrderGTC, Size: 100, LimitPrice: 0.45,
			})
			if err != nil {
				return err
			}
			if ticket.Status != domain.StatusPending {
				return errors.New("expected resting order")
			}
			return nil
		},
	}}

	r, err := NewRunner(Config{
		StartTime: runStart, EndTime: runEnd, Step: time.Hour, InitialCash: 10_000,
	}, data, strat)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	fill := result.Trades[0]
	assert.Equal(t, domain.LiquidityMaker, fill.Liquidity)
	assert.Equal(t, 0.45, fill.Price)
	assert.Equal(t, runStart.Add(2*time.Hour), fill.Timestamp)
	assert.Empty(t, r.Resting())
}

func TestRunner_FeesChargedByDefault(t *testing.T) {
	data := &stubData{fallback: map[string]domain.OrderBook{
		"KXTEST": {
			TokenID: "KXTEST",
			Bids:    []domain.BookEntry{{Price: 0.48, Size: 1_000}},
			Asks:    []domain.BookEntry{{Price: 0.50, Size: 1_000}},
		},
	}}
	strat := &scriptedStrategy{steps: map[int]func(context.Context, *ports.TickContext) error{
		0: func(ctx context.Context, tc *ports.TickContext) error {
			_, err := tc.Submit(ctx, domain.OrderRequest{
				TokenID: "KXTEST", Venue: domain.VenueKalshi,
				Side: domain.SideBuy, Type: domain.OrderMarket, Size: 100,
			})
			return err
		},
	}}

	// Config mínima, sin tocar el flag de fees.
	r, err := NewRunner(Config{
		StartTime: runStart, EndTime: runEnd, Step: time.Hour,
	}, data, strat)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	// 100 contratos a 0.50: ceil(0.07 × 100 × 0.5 × 0.5) = 2.
	assert.InDelta(t, 2, result.TotalFeesPaid, 1e-9)
}

func TestRunner_FeesDisabledGrossReturn(t *testing.T) {
	data := &stubData{fallback: map[string]domain.OrderBook{"tok": steadyBook(0.48, 0.52)}}
	strat := &scriptedStrategy{steps: map[int]func(context.Context, *ports.TickContext) error{
		0: func(ctx context.Context, tc *ports.TickContext) error {
			_, err := tc.Submit(ctx, domain.OrderRequest{
				TokenID: "tok", Venue: domain.VenuePolymarket,
				Side: domain.SideBuy, Type: domain.OrderMarket, Size: 100,
			})
			return err
		},
	}}

	r, err := NewRunner(Config{
		StartTime: runStart, EndTime: runEnd, Step: time.Hour,
		InitialCash: 10_000, DisableFees: true,
	}, data, strat)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.TotalFeesPaid)
	// Sin fees el retorno es el bruto: compra a 0.52, mid 0.50 → -2.
	assert.InDelta(t, -2, result.TotalReturn(), 1e-9)
}

func TestRunner_FatalErrorKeepsPartialResult(t *testing.T) {
	failAt := runStart.Add(2 * time.Hour)
	data := &stubData{
		fallback:  map[string]domain.OrderBook{"tok": steadyBook(0.48, 0.52)},
		failAfter: failAt,
	}
	strat := &scriptedStrategy{steps: map[int]func(context.Context, *ports.TickContext) error{
		0: func(ctx context.Context, tc *ports.TickContext) error {
			_, err := tc.Submit(ctx, domain.OrderRequest{
				TokenID: "tok", Venue: domain.VenuePolymarket,
				Side: domain.SideBuy, Type: domain.OrderGTC, Size: 100, LimitPrice: 0.45,
			})
			return err
		},
	}}

	r, err := NewRunner(Config{
		StartTime: runStart, EndTime: runEnd, Step: time.Hour, InitialCash: 10_000,
	}, data, strat)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMarketData)
	// El error identifica el tick que falló.
	assert.Contains(t, err.Error(), failAt.Format(time.RFC3339))

	// Los ticks completados siguen inspeccionables.
	assert.False(t, result.Completed)
	assert.Len(t, result.EquityCurve, 2)
}

func TestRunner_InterestAccruesOnDayBoundary(t *testing.T) {
	data := &stubData{fallback: map[string]domain.OrderBook{}}
	strat := &scriptedStrategy{}

	r, err := NewRunner(Config{
		StartTime:      runStart,
		EndTime:        runStart.Add(48 * time.Hour),
		Step:           12 * time.Hour,
		InitialCash:    10_000,
		EnableInterest: true,
		InterestAPY:    0.04,
	}, data, strat)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	daily := 10_000 * 0.04 / 365
	// Dos cruces de medianoche en 48h; el segundo acumula sobre el cash ya
	// incrementado por el primero.
	want := daily + (10_000+daily)*0.04/365
	assert.InDelta(t, want, result.TotalInterestEarned, 1e-6)
	assert.InDelta(t, 10_000+want, result.FinalValue, 1e-6)
}
