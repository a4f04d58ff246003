package main

import (
	"context"
	"log/slog"
	"sort"

	"github.com/alejandrodnm/backbot/internal/domain"
	"github.com/alejandrodnm/backbot/internal/ports"
)

// midpointStrategy is a deliberately simple demo strategy: buy YES tokens
// whose ask sits well below the midpoint implied fair value, exit when the
// position is in profit. It exists to exercise the engine end to end, not
// to make money.
type midpointStrategy struct {
	maxPositions int
	orderSize    float64
	entryEdge    float64 // buy when ask < mid - entryEdge
	exitProfit   float64 // sell when bid > avg cost + exitProfit
}

func newMidpointStrategy() *midpointStrategy {
	return &midpointStrategy{
		maxPositions: 5,
		orderSize:    100,
		entryEdge:    0.03,
		exitProfit:   0.05,
	}
}

func (s *midpointStrategy) OnTick(ctx context.Context, tick *ports.TickContext) error {
	if err := s.exitPositions(ctx, tick); err != nil {
		return err
	}
	if len(tick.Portfolio.Positions) >= s.maxPositions {
		return nil
	}
	return s.enterPositions(ctx, tick)
}

// exitPositions sells any position whose best bid clears the profit target.
// Positions are visited in sorted key order so runs stay reproducible.
func (s *midpointStrategy) exitPositions(ctx context.Context, tick *ports.TickContext) error {
	keys := make([]domain.PositionKey, 0, len(tick.Portfolio.Positions))
	for k := range tick.Portfolio.Positions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TokenID != keys[j].TokenID {
			return keys[i].TokenID < keys[j].TokenID
		}
		return keys[i].Outcome < keys[j].Outcome
	})

	for _, k := range keys {
		pos := tick.Portfolio.Positions[k]
		book, err := tick.Data.OrderBook(ctx, pos.Key.TokenID)
		if err != nil {
			return err
		}
		bid := book.BestBid()
		if bid == 0 || bid < pos.AvgCost+s.exitProfit {
			continue
		}

		ticket, err := tick.Submit(ctx, domain.OrderRequest{
			TokenID:    pos.Key.TokenID,
			Venue:      pos.Venue,
			Outcome:    pos.Key.Outcome,
			Side:       domain.SideSell,
			Type:       domain.OrderFAK,
			Size:       pos.Quantity,
			LimitPrice: bid,
		})
		if err != nil {
			return err
		}
		slog.Debug("exit order", "token", pos.Key.TokenID, "status", ticket.Status, "filled", ticket.FilledSize())
	}
	return nil
}

// enterPositions scans markets for asks trading below mid minus the edge.
func (s *midpointStrategy) enterPositions(ctx context.Context, tick *ports.TickContext) error {
	markets, err := tick.Data.Markets(ctx)
	if err != nil {
		return err
	}

	for _, m := range markets {
		if m.Venue != domain.VenuePolymarket || !m.OpenAt(tick.Now) {
			continue
		}
		if len(tick.Portfolio.Positions) >= s.maxPositions {
			return nil
		}

		tokenID := m.YesToken().TokenID
		if tokenID == "" || tick.Portfolio.Quantity(domain.PositionKey{TokenID: tokenID}) > 0 {
			continue
		}

		book, err := tick.Data.OrderBook(ctx, tokenID)
		if err != nil {
			return err
		}
		mid := book.Midpoint()
		ask := book.BestAsk()
		if mid == 0 || ask == 0 || ask >= mid-s.entryEdge {
			continue
		}

		ticket, err := tick.Submit(ctx, domain.OrderRequest{
			TokenID:    tokenID,
			Venue:      m.Venue,
			Side:       domain.SideBuy,
			Type:       domain.OrderFAK,
			Size:       s.orderSize,
			LimitPrice: ask,
		})
		if err != nil {
			return err
		}
		slog.Debug("entry order", "token", tokenID, "status", ticket.Status, "filled", ticket.FilledSize())
	}
	return nil
}
