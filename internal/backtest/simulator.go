package backtest

import (
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// FillOutcome is what matching one order against one snapshot produced:
// zero or more fills, the unfilled residual, and the resulting status.
// A non-terminal status means the residual may rest on the book.
type FillOutcome struct {
	Fills     []domain.Fill
	Remaining float64
	Status    domain.OrderStatus
	Reason    string
}

// Simulator matches a single order against one historical orderbook
// snapshot, applying the per-type semantics. Matching is synchronous and
// never suspends: one call, one snapshot, one outcome.
type Simulator struct {
	fees *FeeEngine
}

// NewSimulator creates a simulator using the given fee engine.
func NewSimulator(fees *FeeEngine) *Simulator {
	return &Simulator{fees: fees}
}

// MatchTaker matches a fresh order request against the current snapshot.
// All resulting fills are taker fills: the order consumes resting liquidity,
// walking levels from best price outward and paying each level's own price.
func (s *Simulator) MatchTaker(orderID string, req domain.OrderRequest, book domain.OrderBook, now time.Time) FillOutcome {
	out := FillOutcome{Remaining: req.Size}

	switch req.Type {
	case domain.OrderFOK:
		// Todo o nada: si la profundidad dentro del límite no cubre el
		// tamaño completo, se rechaza sin tocar nada.
		if s.availableWithinLimit(req, book) < req.Size {
			out.Status = domain.StatusRejected
			out.Reason = "cannot fill full size at limit"
			return out
		}
	}

	out.Fills, out.Remaining = s.walk(orderID, req, book, now)

	switch req.Type {
	case domain.OrderMarket:
		// El residual de una market se descarta, nunca descansa. Sin
		// liquidez el resultado es un zero-fill cancelado; el rechazo se
		// reserva para órdenes inválidas y FOK sin cobertura.
		if len(out.Fills) == 0 {
			out.Status = domain.StatusCancelled
			out.Reason = "no liquidity"
		} else {
			out.Status = domain.StatusMatched
		}
	case domain.OrderFOK:
		out.Status = domain.StatusMatched
	case domain.OrderFAK:
		if out.Remaining == 0 {
			out.Status = domain.StatusMatched
		} else {
			// Lo no ejecutado se cancela, nunca descansa.
			out.Status = domain.StatusCancelled
		}
	case domain.OrderGTC, domain.OrderGTD:
		switch {
		case out.Remaining == 0:
			out.Status = domain.StatusMatched
		case len(out.Fills) > 0:
			out.Status = domain.StatusPartiallyFilled
		default:
			out.Status = domain.StatusPending
		}
	}

	return out
}

// MatchMaker re-evaluates a resting order against a fresh snapshot. The
// order fills as maker, at its own limit price, once the opposing best
// price crosses its limit. Depth is consumed up to the crossing levels.
func (s *Simulator) MatchMaker(order domain.RestingOrder, book domain.OrderBook, now time.Time) FillOutcome {
	req := order.Request
	out := FillOutcome{Remaining: order.Remaining, Status: domain.StatusPending}

	var available float64
	switch req.Side {
	case domain.SideBuy:
		if best := book.BestAsk(); best == 0 || best > req.LimitPrice {
			return out
		}
		available = book.AskSizeAtOrBelow(req.LimitPrice)
	case domain.SideSell:
		if best := book.BestBid(); best == 0 || best < req.LimitPrice {
			return out
		}
		available = book.BidSizeAtOrAbove(req.LimitPrice)
	}
	if available <= 0 {
		return out
	}

	size := min(order.Remaining, available)
	// El fill es al precio límite de la orden, no al precio mejorado.
	fee := s.fees.Fee(req.Venue, req.Segment, domain.LiquidityMaker, req.LimitPrice, size)
	out.Fills = []domain.Fill{{
		OrderID:   order.ID,
		TokenID:   req.TokenID,
		Venue:     req.Venue,
		Segment:   req.Segment,
		Outcome:   req.Outcome,
		Side:      req.Side,
		Price:     req.LimitPrice,
		Size:      size,
		Fee:       fee,
		Liquidity: domain.LiquidityMaker,
		Timestamp: now,
	}}
	out.Remaining = order.Remaining - size
	if out.Remaining == 0 {
		out.Status = domain.StatusMatched
	} else {
		out.Status = domain.StatusPartiallyFilled
	}
	return out
}

// walk consumes book levels from best price outward, stopping at levels
// priced worse than the limit (market orders have no limit). Returns one
// fill per consumed level.
func (s *Simulator) walk(orderID string, req domain.OrderRequest, book domain.OrderBook, now time.Time) ([]domain.Fill, float64) {
	var levels []domain.BookEntry
	crosses := func(price float64) bool { return true }

	switch req.Side {
	case domain.SideBuy:
		levels = book.Asks
		if req.Type != domain.OrderMarket {
			crosses = func(price float64) bool { return price <= req.LimitPrice }
		}
	case domain.SideSell:
		levels = book.Bids
		if req.Type != domain.OrderMarket {
			crosses = func(price float64) bool { return price >= req.LimitPrice }
		}
	}

	var fills []domain.Fill
	remaining := req.Size
	for _, level := range levels {
		if remaining <= 0 || !crosses(level.Price) {
			break
		}
		size := min(remaining, level.Size)
		fee := s.fees.Fee(req.Venue, req.Segment, domain.LiquidityTaker, level.Price, size)
		fills = append(fills, domain.Fill{
			OrderID:   orderID,
			TokenID:   req.TokenID,
			Venue:     req.Venue,
			Segment:   req.Segment,
			Outcome:   req.Outcome,
			Side:      req.Side,
			Price:     level.Price,
			Size:      size,
			Fee:       fee,
			Liquidity: domain.LiquidityTaker,
			Timestamp: now,
		})
		remaining -= size
	}
	return fills, remaining
}

// availableWithinLimit returns the depth matchable at or better than the
// order's limit price.
func (s *Simulator) availableWithinLimit(req domain.OrderRequest, book domain.OrderBook) float64 {
	switch req.Side {
	case domain.SideBuy:
		return book.AskSizeAtOrBelow(req.LimitPrice)
	case domain.SideSell:
		return book.BidSizeAtOrAbove(req.LimitPrice)
	}
	return 0
}
