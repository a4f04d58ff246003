package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// MarketData es el gateway de datos históricos. Contrato: el resultado de
// cada consulta nunca incluye entidades posteriores a `at` — ni mercados
// creados después, ni outcomes de mercados aún no resueltos en ese instante.
type MarketData interface {
	// FetchMarkets devuelve los mercados que existían en el instante dado.
	FetchMarkets(ctx context.Context, at time.Time) ([]domain.Market, error)

	// FetchOrderBook devuelve el último snapshot del book en o antes de `at`.
	FetchOrderBook(ctx context.Context, tokenID string, at time.Time) (domain.OrderBook, error)

	// FetchPrices devuelve el precio mid de cada token en el instante dado.
	// Tokens sin book disponible se omiten del map.
	FetchPrices(ctx context.Context, tokenIDs []string, at time.Time) (map[string]float64, error)
}
