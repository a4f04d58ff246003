package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiterTierDefaults(t *testing.T) {
	tests := []struct {
		name       string
		tier       Tier
		wantQPS    int
		wantPer10s int
	}{
		{name: "free", tier: TierFree, wantQPS: 1, wantPer10s: 10},
		{name: "dev", tier: TierDev, wantQPS: 100, wantPer10s: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewRateLimiter(tt.tier, 0, 0)
			require.NoError(t, err)

			qps, per10s := l.Limits()
			assert.Equal(t, tt.wantQPS, qps)
			assert.Equal(t, tt.wantPer10s, per10s)
			assert.Equal(t, tt.tier, l.Tier())
		})
	}
}

func TestNewRateLimiterExplicitOverrides(t *testing.T) {
	l, err := NewRateLimiter(TierDev, 50, 300)
	require.NoError(t, err)

	qps, per10s := l.Limits()
	assert.Equal(t, 50, qps)
	assert.Equal(t, 300, per10s)
}

func TestNewRateLimiterEnterpriseRequiresExplicitLimits(t *testing.T) {
	_, err := NewRateLimiter(TierEnterprise, 0, 0)
	assert.Error(t, err)

	l, err := NewRateLimiter(TierEnterprise, 1000, 8000)
	require.NoError(t, err)
	qps, per10s := l.Limits()
	assert.Equal(t, 1000, qps)
	assert.Equal(t, 8000, per10s)
}

func TestNewRateLimiterUnknownTier(t *testing.T) {
	_, err := NewRateLimiter(Tier("platinum"), 0, 0)
	assert.Error(t, err)
}

func TestRateLimiterWaitWithinBudget(t *testing.T) {
	l, err := NewRateLimiter(TierDev, 0, 0)
	require.NoError(t, err)

	// El burst inicial cubre los primeros requests sin esperar.
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	l, err := NewRateLimiter(TierFree, 0, 0)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx)) // consume el burst de 1

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, l.Wait(cancelled))
}
