package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterestAccrual_DayBoundary(t *testing.T) {
	start := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	ia := NewInterestAccrual(true, 0.04, 250, start)

	// Mismo día: nada.
	assert.Equal(t, 0.0, ia.Accrue(start.Add(6*time.Hour), 10_000))

	// Primer tick que cruza la medianoche: un día de interés.
	got := ia.Accrue(start.Add(13*time.Hour), 10_000)
	assert.InDelta(t, 10_000*0.04/365, got, 1e-9)

	// El resto del día ya no acumula.
	assert.Equal(t, 0.0, ia.Accrue(start.Add(20*time.Hour), 10_000))
	assert.InDelta(t, 10_000*0.04/365, ia.Total(), 1e-9)
}

func TestInterestAccrual_MultiDayStep(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	ia := NewInterestAccrual(true, 0.04, 250, start)

	// Un paso de 3 días acumula 3 días de interés.
	got := ia.Accrue(start.Add(72*time.Hour), 10_000)
	assert.InDelta(t, 3*10_000*0.04/365, got, 1e-9)
}

func TestInterestAccrual_MinBalance(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	ia := NewInterestAccrual(true, 0.04, 250, start)

	assert.Equal(t, 0.0, ia.Accrue(start.Add(24*time.Hour), 200))
}

func TestInterestAccrual_Disabled(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	ia := NewInterestAccrual(false, 0.04, 250, start)

	assert.Equal(t, 0.0, ia.Accrue(start.Add(48*time.Hour), 10_000))
	assert.Equal(t, 0.0, ia.Total())
}
