package backtest

import "time"

const (
	defaultAPY = 0.04
	// Kalshi no acumula interés por debajo de este balance neto.
	defaultMinInterestBalance = 250
)

// InterestAccrual credits daily interest on cash plus mark-to-market
// position value. Only meaningful for venues that pay yield on balances
// (Kalshi), disabled by default.
type InterestAccrual struct {
	enabled    bool
	apy        float64
	minBalance float64
	lastDay    time.Time // simulated calendar day of the last accrual
	total      float64
}

// NewInterestAccrual creates an accrual tracker anchored at the run start.
func NewInterestAccrual(enabled bool, apy, minBalance float64, start time.Time) *InterestAccrual {
	if apy <= 0 {
		apy = defaultAPY
	}
	if minBalance < 0 {
		minBalance = defaultMinInterestBalance
	}
	return &InterestAccrual{
		enabled:    enabled,
		apy:        apy,
		minBalance: minBalance,
		lastDay:    day(start),
	}
}

// Accrue computes the interest earned since the last accrued calendar day,
// by simulated time. Returns 0 unless `now` crossed at least one day
// boundary. Steps longer than a day accrue once per day crossed.
func (ia *InterestAccrual) Accrue(now time.Time, netValue float64) float64 {
	if !ia.enabled {
		return 0
	}
	today := day(now)
	if !today.After(ia.lastDay) {
		return 0
	}
	days := int(today.Sub(ia.lastDay).Hours() / 24)
	ia.lastDay = today

	if netValue < ia.minBalance {
		return 0
	}
	interest := netValue * ia.apy / 365 * float64(days)
	ia.total += interest
	return interest
}

// Total returns the interest accumulated over the run.
func (ia *InterestAccrual) Total() float64 { return ia.total }

func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
