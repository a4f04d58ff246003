package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/backbot/internal/domain"
	"github.com/alejandrodnm/backbot/internal/ports"
)

// Config is the configuration surface accepted by the runner.
type Config struct {
	StartTime   time.Time
	EndTime     time.Time
	Step        time.Duration // default 1h, mínimo 1s
	InitialCash float64       // default 10,000

	// DisableFees apaga el modelo de fees. El zero value cobra fees:
	// un run sin configurar nunca corre gratis por accidente.
	DisableFees     bool
	EnableInterest  bool
	InterestAPY     float64 // default 0.04
	MinInterestBal  float64 // default 250
	KalshiMakerPays bool    // aplica el fee de Kalshi también al lado maker
}

// setDefaults rellena los valores opcionales no especificados.
func (c *Config) setDefaults() {
	if c.Step == 0 {
		c.Step = time.Hour
	}
	if c.InitialCash == 0 {
		c.InitialCash = 10_000
	}
	if c.InterestAPY == 0 {
		c.InterestAPY = defaultAPY
	}
	if c.MinInterestBal == 0 {
		c.MinInterestBal = defaultMinInterestBalance
	}
}

// Runner orchestrates the tick loop: advance clock, re-evaluate resting
// orders, invoke the strategy, accrue interest, record equity. Ticks run
// strictly sequentially — the ordering guarantee is what makes a run
// deterministic and reproducible from its configuration.
type Runner struct {
	cfg      Config
	data     ports.MarketData
	strategy ports.Strategy

	clock     *Clock
	portfolio *Portfolio
	manager   *OrderManager
}

// NewRunner validates the config and assembles the engine.
func NewRunner(cfg Config, data ports.MarketData, strategy ports.Strategy) (*Runner, error) {
	cfg.setDefaults()
	clock, err := NewClock(cfg.StartTime, cfg.EndTime, cfg.Step)
	if err != nil {
		return nil, err
	}

	portfolio := NewPortfolio(cfg.InitialCash)
	fees := NewFeeEngine(FeeConfig{Enabled: !cfg.DisableFees, KalshiMakerPays: cfg.KalshiMakerPays})
	manager := NewOrderManager(NewSimulator(fees), portfolio)

	return &Runner{
		cfg:       cfg,
		data:      data,
		strategy:  strategy,
		clock:     clock,
		portfolio: portfolio,
		manager:   manager,
	}, nil
}

// Run executes the backtest. On a fatal error the returned result still
// contains everything accumulated up to the last completed tick, with
// Completed=false, so partial runs stay inspectable.
func (r *Runner) Run(ctx context.Context) (domain.BacktestResult, error) {
	runID := uuid.New().String()
	interest := NewInterestAccrual(r.cfg.EnableInterest, r.cfg.InterestAPY, r.cfg.MinInterestBal, r.cfg.StartTime)

	result := domain.BacktestResult{
		RunID:       runID,
		StartTime:   r.cfg.StartTime,
		EndTime:     r.cfg.EndTime,
		Step:        r.cfg.Step,
		InitialCash: r.cfg.InitialCash,
	}

	slog.Info("backtest starting",
		"run_id", runID,
		"start", r.cfg.StartTime.Format(time.RFC3339),
		"end", r.cfg.EndTime.Format(time.RFC3339),
		"step", r.cfg.Step,
		"initial_cash", r.cfg.InitialCash,
		"fees", !r.cfg.DisableFees,
		"interest", r.cfg.EnableInterest,
	)

	fatal := func(err error) (domain.BacktestResult, error) {
		r.finalize(&result)
		result.Completed = false
		return result, fmt.Errorf("backtest: tick %s: %w", r.clock.Now().Format(time.RFC3339), err)
	}

	for !r.clock.Finished() {
		// Cancelación cooperativa: solo entre ticks, nunca a mitad de uno.
		if err := ctx.Err(); err != nil {
			return fatal(err)
		}
		now := r.clock.Now()

		// 1. Re-evaluar resting orders contra snapshots frescos.
		if err := r.reevaluateResting(ctx, now); err != nil {
			return fatal(err)
		}

		// 2. Invocar la estrategia con el contexto del tick.
		tick := &ports.TickContext{
			Now:       now,
			Portfolio: r.portfolio.View(),
			Data:      &tickData{data: r.data, at: now},
			Submit:    r.submit,
			Cancel:    r.manager.Cancel,
		}
		if err := r.strategy.OnTick(ctx, tick); err != nil {
			return fatal(fmt.Errorf("strategy: %w", err))
		}

		// 3. Interés diario sobre cash + valor mark-to-market.
		prices, err := r.positionPrices(ctx, now)
		if err != nil {
			return fatal(err)
		}
		if credited := interest.Accrue(now, r.portfolio.Value(prices)); credited > 0 {
			r.portfolio.CreditInterest(credited)
			slog.Debug("interest accrued", "amount", credited, "at", now.Format(time.RFC3339))
		}

		// 4. Punto de equity del tick.
		result.EquityCurve = append(result.EquityCurve, domain.EquityPoint{
			Timestamp: now,
			Value:     r.portfolio.Value(prices),
		})

		r.clock.Advance()
	}

	r.finalize(&result)
	result.Completed = true

	slog.Info("backtest finished",
		"run_id", runID,
		"ticks", len(result.EquityCurve),
		"trades", len(result.Trades),
		"final_value", result.FinalValue,
		"return_pct", result.TotalReturnPct(),
	)
	return result, nil
}

// submit is the order-submission capability handed to the strategy. It
// fetches the snapshot for the order's token at the current instant and
// hands the pair to the order manager.
func (r *Runner) submit(ctx context.Context, req domain.OrderRequest) (domain.OrderTicket, error) {
	if err := req.Validate(); err != nil {
		return domain.OrderTicket{Status: domain.StatusRejected, Reason: err.Error()}, err
	}
	now := r.clock.Now()
	book, err := r.data.FetchOrderBook(ctx, req.InstrumentID(), now)
	if err != nil {
		return domain.OrderTicket{}, fmt.Errorf("fetch book for %s: %w", req.InstrumentID(), err)
	}
	return r.manager.Submit(now, req, book)
}

// reevaluateResting fetches the latest snapshot per token with resting
// orders and lets the manager walk the set.
func (r *Runner) reevaluateResting(ctx context.Context, now time.Time) error {
	instruments := r.manager.RestingInstruments()
	if len(instruments) == 0 {
		return nil
	}
	books := make(map[string]domain.OrderBook, len(instruments))
	for _, id := range instruments {
		book, err := r.data.FetchOrderBook(ctx, id, now)
		if err != nil {
			return fmt.Errorf("fetch book for %s: %w", id, err)
		}
		books[id] = book
	}
	fills := r.manager.Reevaluate(now, books)
	if len(fills) > 0 {
		slog.Debug("resting orders filled", "fills", len(fills), "at", now.Format(time.RFC3339))
	}
	return nil
}

// positionPrices values every open position at the current instant. A NO
// holding on a yes/no venue prices as the complement of the quoted price.
func (r *Runner) positionPrices(ctx context.Context, now time.Time) (map[domain.PositionKey]float64, error) {
	positions := r.portfolio.Positions()
	if len(positions) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(positions))
	var tokenIDs []string
	for key := range positions {
		if !seen[key.TokenID] {
			seen[key.TokenID] = true
			tokenIDs = append(tokenIDs, key.TokenID)
		}
	}

	quoted, err := r.data.FetchPrices(ctx, tokenIDs, now)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	prices := make(map[domain.PositionKey]float64, len(positions))
	for key := range positions {
		p, ok := quoted[key.TokenID]
		if !ok {
			continue
		}
		if key.Outcome == "NO" {
			p = 1 - p
		}
		prices[key] = p
	}
	return prices, nil
}

// finalize stamps the portfolio totals into the result. The final value
// reuses the last equity point so the fatal path never issues new queries.
func (r *Runner) finalize(result *domain.BacktestResult) {
	result.Trades = r.portfolio.Trades()
	result.TotalFeesPaid = r.portfolio.TotalFeesPaid()
	result.TotalInterestEarned = r.portfolio.TotalInterestEarned()
	if n := len(result.EquityCurve); n > 0 {
		result.FinalValue = result.EquityCurve[n-1].Value
	} else {
		result.FinalValue = r.portfolio.Cash()
	}
}

// Resting exposes the live resting set, for inspection in tests and tools.
func (r *Runner) Resting() []domain.RestingOrder {
	return r.manager.Resting()
}

// tickData pins every data query to the tick's simulated instant. The
// strategy never chooses a timestamp, so it can never see past `at`.
type tickData struct {
	data ports.MarketData
	at   time.Time
}

func (t *tickData) Markets(ctx context.Context) ([]domain.Market, error) {
	return t.data.FetchMarkets(ctx, t.at)
}

func (t *tickData) OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	return t.data.FetchOrderBook(ctx, tokenID, t.at)
}

func (t *tickData) Prices(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	return t.data.FetchPrices(ctx, tokenIDs, t.at)
}
