package backtest

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// OrderManager tracks resting GTC/GTD orders across ticks. New requests are
// matched against the current snapshot first; unresolved resting-eligible
// remainders join the resting set. On every tick the resting set is
// re-evaluated against fresh snapshots in submission order.
type OrderManager struct {
	sim       *Simulator
	portfolio *Portfolio
	resting   []*domain.RestingOrder // FIFO por submission_time
	counter   int
}

// NewOrderManager creates an order manager over the given portfolio.
func NewOrderManager(sim *Simulator, portfolio *Portfolio) *OrderManager {
	return &OrderManager{sim: sim, portfolio: portfolio}
}

// nextOrderID genera IDs deterministas: mismo run, mismos IDs.
func (m *OrderManager) nextOrderID(now time.Time) string {
	m.counter++
	return fmt.Sprintf("ord-%d-%d", now.Unix(), m.counter)
}

// Submit validates and matches a new order request against the given
// snapshot. Validation failures return an error; an unaffordable fill is
// reported as a rejected ticket, not an error. If a resting-eligible
// remainder survives, it joins the resting set and the ticket carries its
// order ID as handle.
func (m *OrderManager) Submit(now time.Time, req domain.OrderRequest, book domain.OrderBook) (domain.OrderTicket, error) {
	if err := req.Validate(); err != nil {
		return domain.OrderTicket{Status: domain.StatusRejected, Reason: err.Error()}, err
	}

	orderID := m.nextOrderID(now)
	outcome := m.sim.MatchTaker(orderID, req, book, now)

	if err := m.portfolio.ApplyAll(outcome.Fills); err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrInsufficientPosition) {
			// Rechazo limpio: ninguna mutación parcial.
			return domain.OrderTicket{
				OrderID: orderID,
				Status:  domain.StatusRejected,
				Reason:  err.Error(),
			}, nil
		}
		return domain.OrderTicket{}, fmt.Errorf("backtest.Submit: apply fills: %w", err)
	}

	ticket := domain.OrderTicket{
		OrderID:   orderID,
		Status:    outcome.Status,
		Fills:     outcome.Fills,
		Remaining: outcome.Remaining,
		Reason:    outcome.Reason,
	}

	if !outcome.Status.Terminal() && req.Type.Resting() && outcome.Remaining > 0 {
		m.resting = append(m.resting, &domain.RestingOrder{
			ID:          orderID,
			Request:     req,
			SubmittedAt: now,
			Remaining:   outcome.Remaining,
			Status:      outcome.Status,
		})
		slog.Debug("order resting",
			"order_id", orderID,
			"token", req.TokenID,
			"type", string(req.Type),
			"remaining", outcome.Remaining,
		)
	}

	return ticket, nil
}

// Reevaluate walks the resting set in submission order against the fresh
// snapshots: expires GTD orders past their expiration, fills crossable
// orders as maker, and drops terminal ones. Orders whose token has no
// snapshot this tick are left untouched.
func (m *OrderManager) Reevaluate(now time.Time, books map[string]domain.OrderBook) []domain.Fill {
	var applied []domain.Fill
	var keep []*domain.RestingOrder

	for _, order := range m.resting {
		// La expiración gana siempre, aunque la orden sea matchable.
		if order.Expired(now) {
			order.Status = domain.StatusExpired
			slog.Debug("order expired", "order_id", order.ID, "token", order.Request.TokenID)
			continue
		}

		book, ok := books[order.Request.InstrumentID()]
		if !ok {
			keep = append(keep, order)
			continue
		}

		outcome := m.sim.MatchMaker(*order, book, now)
		if len(outcome.Fills) == 0 {
			keep = append(keep, order)
			continue
		}

		if err := m.portfolio.ApplyAll(outcome.Fills); err != nil {
			// Un fill maker que el cash ya no cubre invalida la orden:
			// se retira del book como rechazada.
			order.Status = domain.StatusRejected
			slog.Warn("resting order rejected on fill",
				"order_id", order.ID, "err", err)
			continue
		}

		applied = append(applied, outcome.Fills...)
		order.Remaining = outcome.Remaining
		order.Status = outcome.Status
		if !outcome.Status.Terminal() {
			keep = append(keep, order)
		}

		// La profundidad consumida desaparece para las órdenes siguientes
		// del mismo tick: el book es compartido dentro del tick.
		filled := outcome.Fills[0].Size
		if order.Request.Side == domain.SideBuy {
			books[order.Request.InstrumentID()] = book.ConsumeAsks(filled)
		} else {
			books[order.Request.InstrumentID()] = book.ConsumeBids(filled)
		}
	}

	m.resting = keep
	return applied
}

// Cancel moves a resting order to cancelled and removes it from the set.
func (m *OrderManager) Cancel(orderID string) error {
	for i, order := range m.resting {
		if order.ID == orderID {
			order.Status = domain.StatusCancelled
			m.resting = append(m.resting[:i], m.resting[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("backtest.Cancel: %w: %s", domain.ErrOrderNotFound, orderID)
}

// Resting returns a copy of the current resting set, in submission order.
func (m *OrderManager) Resting() []domain.RestingOrder {
	out := make([]domain.RestingOrder, 0, len(m.resting))
	for _, o := range m.resting {
		out = append(out, *o)
	}
	return out
}

// RestingInstruments returns the instruments that need a fresh snapshot
// this tick, deduplicated, in submission order.
func (m *OrderManager) RestingInstruments() []string {
	seen := make(map[string]bool, len(m.resting))
	var ids []string
	for _, o := range m.resting {
		id := o.Request.InstrumentID()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
