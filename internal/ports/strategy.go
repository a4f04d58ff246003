package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// TickData son las consultas de datos disponibles durante un tick.
// Todas van ancladas al instante simulado del tick — la estrategia no puede
// elegir el timestamp, lo que elimina el lookahead por construcción.
type TickData interface {
	Markets(ctx context.Context) ([]domain.Market, error)
	OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
	Prices(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}

// TickContext es lo que el runner expone a la estrategia en cada tick:
// el reloj simulado, una vista de solo lectura del portfolio, datos de
// mercado anclados al tick, y la capacidad de enviar órdenes.
type TickContext struct {
	Now       time.Time
	Portfolio domain.PortfolioView
	Data      TickData

	// Submit envía una orden y devuelve síncronamente su resultado:
	// fills inmediatos, rechazo, o el handle de una resting order.
	Submit func(ctx context.Context, req domain.OrderRequest) (domain.OrderTicket, error)

	// Cancel cancela una resting order por su ID.
	Cancel func(orderID string) error
}

// Strategy es la estrategia del usuario. El runner la invoca una vez por
// tick; cualquier orden se envía a través del TickContext.
type Strategy interface {
	OnTick(ctx context.Context, tick *TickContext) error
}
