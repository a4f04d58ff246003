package backtest

import (
	"math"

	"github.com/alejandrodnm/backbot/internal/domain"
)

const (
	// Polymarket US (QCEX): 0.01% taker sobre el notional, maker gratis.
	usTakerRate = 0.0001
	// Mercados crypto de 15 minutos: taker paga, maker recibe rebate.
	crypto15mTakerRate   = 0.001
	crypto15mMakerRebate = 0.0005
	// Kalshi: fee = ceil(0.07 × C × P × (1-P)).
	kalshiFeeRate = 0.07
)

// FeeConfig controls fee behaviour for a run.
type FeeConfig struct {
	// Enabled short-circuits every fee to 0 when false.
	Enabled bool
	// KalshiMakerPays applies the Kalshi fee to maker fills too. Upstream
	// docs are inconsistent about which side pays, so it stays configurable.
	KalshiMakerPays bool
}

// FeeEngine computes the fee for a single fill. Pure, no state beyond config.
type FeeEngine struct {
	cfg FeeConfig
}

// NewFeeEngine creates a fee engine with the given config.
func NewFeeEngine(cfg FeeConfig) *FeeEngine {
	return &FeeEngine{cfg: cfg}
}

// Fee returns the fee for a fill of `size` units at `price`. A negative
// return is a rebate credited to the portfolio.
func (e *FeeEngine) Fee(venue domain.Venue, segment domain.Segment, liq domain.Liquidity, price, size float64) float64 {
	if !e.cfg.Enabled {
		return 0
	}

	switch venue {
	case domain.VenueKalshi:
		if liq == domain.LiquidityMaker && !e.cfg.KalshiMakerPays {
			return 0
		}
		return math.Ceil(kalshiFeeRate * size * price * (1 - price))

	case domain.VenuePolymarket:
		notional := price * size
		switch segment {
		case domain.SegmentUS:
			if liq == domain.LiquidityTaker {
				return notional * usTakerRate
			}
			return 0
		case domain.SegmentCrypto15m:
			if liq == domain.LiquidityTaker {
				return notional * crypto15mTakerRate
			}
			return -notional * crypto15mMakerRebate
		default:
			// Plataforma global: sin fees.
			return 0
		}
	}

	return 0
}
