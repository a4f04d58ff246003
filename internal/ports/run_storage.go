package ports

import (
	"context"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// RunStorage persiste los resultados de runs completados.
type RunStorage interface {
	// SaveRun guarda el resultado completo: resumen, trades y curva de equity.
	SaveRun(ctx context.Context, result domain.BacktestResult) error

	// ListRuns devuelve los resúmenes de todos los runs, más recientes primero.
	ListRuns(ctx context.Context) ([]domain.RunSummary, error)

	// GetRun recarga un resultado completo por su ID.
	GetRun(ctx context.Context, runID string) (domain.BacktestResult, error)
}
