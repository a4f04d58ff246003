package backtest

import (
	"fmt"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// Cantidades por debajo de este umbral se consideran posición cerrada.
const positionEpsilon = 1e-9

// Portfolio is the authoritative ledger of a run: cash, open positions,
// trade history and cumulative fees/interest. Fills are applied atomically;
// a buy that would overdraw cash is rejected before any mutation.
type Portfolio struct {
	cash           float64
	positions      map[domain.PositionKey]domain.Position
	trades         []domain.Fill
	feesPaid       float64
	interestEarned float64
}

// NewPortfolio creates a portfolio with the given starting cash.
func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{
		cash:      initialCash,
		positions: make(map[domain.PositionKey]domain.Position),
	}
}

// Cash returns the available cash.
func (p *Portfolio) Cash() float64 { return p.cash }

// TotalFeesPaid returns the cumulative fees deducted over the run.
func (p *Portfolio) TotalFeesPaid() float64 { return p.feesPaid }

// TotalInterestEarned returns the cumulative interest credited over the run.
func (p *Portfolio) TotalInterestEarned() float64 { return p.interestEarned }

// Trades returns the append-only trade history.
func (p *Portfolio) Trades() []domain.Fill { return p.trades }

// ApplyAll applies a group of fills from one order atomically: either every
// fill is applied, or none is. The projected cash and position checks run
// over the whole group before any mutation.
func (p *Portfolio) ApplyAll(fills []domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	projectedCash := p.cash
	projectedQty := make(map[domain.PositionKey]float64)
	for _, f := range fills {
		key := f.PositionKey()
		if _, ok := projectedQty[key]; !ok {
			projectedQty[key] = p.positions[key].Quantity
		}
		switch f.Side {
		case domain.SideBuy:
			projectedCash -= f.Notional() + f.Fee
			projectedQty[key] += f.Size
		case domain.SideSell:
			projectedCash += f.Notional() - f.Fee
			projectedQty[key] -= f.Size
		}
	}
	if projectedCash < 0 {
		return fmt.Errorf("%w: need %.4f more cash", domain.ErrInsufficientFunds, -projectedCash)
	}
	for key, qty := range projectedQty {
		if qty < -positionEpsilon {
			return fmt.Errorf("%w: %s/%s short by %.4f", domain.ErrInsufficientPosition, key.TokenID, key.Outcome, -qty)
		}
	}

	for _, f := range fills {
		p.apply(f)
	}
	return nil
}

// apply mutates the ledger for a single pre-validated fill.
func (p *Portfolio) apply(f domain.Fill) {
	key := f.PositionKey()
	pos := p.positions[key]
	pos.Key = key
	pos.Venue = f.Venue

	switch f.Side {
	case domain.SideBuy:
		p.cash -= f.Notional() + f.Fee
		// Coste medio ponderado por tamaño en adiciones del mismo lado.
		newQty := pos.Quantity + f.Size
		pos.AvgCost = (pos.Quantity*pos.AvgCost + f.Notional()) / newQty
		pos.Quantity = newQty
	case domain.SideSell:
		p.cash += f.Notional() - f.Fee
		// Las reducciones realizan P&L contra el coste medio existente,
		// que no cambia.
		pos.Quantity -= f.Size
	}

	p.feesPaid += f.Fee
	if pos.Quantity <= positionEpsilon {
		delete(p.positions, key)
	} else {
		p.positions[key] = pos
	}
	p.trades = append(p.trades, f)
}

// CreditInterest adds accrued interest to cash.
func (p *Portfolio) CreditInterest(amount float64) {
	if amount == 0 {
		return
	}
	p.cash += amount
	p.interestEarned += amount
}

// Value returns cash plus the mark-to-market value of every position at the
// supplied prices. Positions without a price contribute zero.
func (p *Portfolio) Value(prices map[domain.PositionKey]float64) float64 {
	total := p.cash
	for key, pos := range p.positions {
		total += pos.Value(prices[key])
	}
	return total
}

// Positions returns a copy of the open positions.
func (p *Portfolio) Positions() map[domain.PositionKey]domain.Position {
	out := make(map[domain.PositionKey]domain.Position, len(p.positions))
	for k, v := range p.positions {
		out[k] = v
	}
	return out
}

// View returns the read-only snapshot exposed to the strategy each tick.
func (p *Portfolio) View() domain.PortfolioView {
	trades := make([]domain.Fill, len(p.trades))
	copy(trades, p.trades)
	return domain.PortfolioView{
		Cash:                p.cash,
		Positions:           p.Positions(),
		Trades:              trades,
		TotalFeesPaid:       p.feesPaid,
		TotalInterestEarned: p.interestEarned,
	}
}
