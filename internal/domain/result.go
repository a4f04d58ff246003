package domain

import "time"

// EquityPoint es un punto de la curva de equity: un valor por tick.
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}

// BacktestResult es el resultado de un run completo de backtesting.
// Si el run terminó con un error fatal, Completed es false y el resultado
// contiene todo lo acumulado hasta el último tick que completó.
type BacktestResult struct {
	RunID               string
	StartTime           time.Time
	EndTime             time.Time
	Step                time.Duration
	InitialCash         float64
	FinalValue          float64
	EquityCurve         []EquityPoint
	Trades              []Fill
	TotalFeesPaid       float64
	TotalInterestEarned float64
	Completed           bool
}

// RunSummary es la fila ligera que se lista desde storage sin cargar
// la curva de equity ni los trades.
type RunSummary struct {
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	InitialCash float64
	FinalValue  float64
	TradeCount  int
	Completed   bool
	CreatedAt   time.Time
}

// TotalReturn devuelve el retorno absoluto del run.
func (r BacktestResult) TotalReturn() float64 {
	return r.FinalValue - r.InitialCash
}

// TotalReturnPct devuelve el retorno porcentual sobre el cash inicial.
func (r BacktestResult) TotalReturnPct() float64 {
	if r.InitialCash == 0 {
		return 0
	}
	return r.TotalReturn() / r.InitialCash * 100
}

// MaxDrawdownPct devuelve el drawdown máximo de la curva de equity en
// porcentaje respecto al pico previo. 0 si la curva nunca cae.
func (r BacktestResult) MaxDrawdownPct() float64 {
	var peak, maxDD float64
	for _, p := range r.EquityCurve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
