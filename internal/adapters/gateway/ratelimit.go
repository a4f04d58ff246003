package gateway

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Tier es el plan de acceso a la API de datos históricos.
type Tier string

const (
	TierFree       Tier = "free"
	TierDev        Tier = "dev"
	TierEnterprise Tier = "enterprise"
)

// Presupuestos por tier: requests por segundo y por ventana de 10 segundos.
var tierLimits = map[Tier]struct{ qps, per10s int }{
	TierFree: {qps: 1, per10s: 10},
	TierDev:  {qps: 100, per10s: 500},
	// Enterprise exige límites explícitos.
}

// RateLimiter aplica los dos presupuestos a la vez. La admisión es FIFO:
// quien excedería cualquiera de las dos ventanas espera cooperativamente
// hasta que el request más antiguo salga de la ventana correspondiente.
type RateLimiter struct {
	tier   Tier
	qps    *rate.Limiter
	per10s *rate.Limiter

	qpsLimit    int
	per10sLimit int
}

// NewRateLimiter crea el limiter del tier dado. qps y per10s a 0 usan los
// defaults del tier; enterprise los exige explícitos.
func NewRateLimiter(tier Tier, qps, per10s int) (*RateLimiter, error) {
	limits, known := tierLimits[tier]
	if !known && tier != TierEnterprise {
		return nil, fmt.Errorf("gateway.NewRateLimiter: unknown tier %q", tier)
	}
	if qps == 0 {
		qps = limits.qps
	}
	if per10s == 0 {
		per10s = limits.per10s
	}
	if qps <= 0 || per10s <= 0 {
		return nil, fmt.Errorf("gateway.NewRateLimiter: tier %q requires explicit qps and per_10s limits", tier)
	}

	return &RateLimiter{
		tier:        tier,
		qps:         rate.NewLimiter(rate.Limit(qps), qps),
		per10s:      rate.NewLimiter(rate.Limit(per10s)/10, per10s),
		qpsLimit:    qps,
		per10sLimit: per10s,
	}, nil
}

// Wait bloquea hasta que ambos presupuestos admiten un request más.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if err := l.per10s.Wait(ctx); err != nil {
		return err
	}
	return l.qps.Wait(ctx)
}

// Tier devuelve el tier configurado.
func (l *RateLimiter) Tier() Tier { return l.tier }

// Limits devuelve los presupuestos efectivos (qps, per_10s).
func (l *RateLimiter) Limits() (int, int) { return l.qpsLimit, l.per10sLimit }
