package ports

import (
	"context"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// Reporter presenta el resultado de un run al usuario.
type Reporter interface {
	// Report muestra el resumen del run. En la implementación de consola,
	// imprime una tabla formateada con métricas y trades.
	Report(ctx context.Context, result domain.BacktestResult) error
}
