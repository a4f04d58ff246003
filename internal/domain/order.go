package domain

import (
	"fmt"
	"time"
)

// Venue identifica la plataforma que origina el mercado.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// Segment es el sub-venue de Polymarket a efectos de fees.
type Segment string

const (
	SegmentGlobal    Segment = "global"
	SegmentUS        Segment = "us"
	SegmentCrypto15m Segment = "crypto15m"
)

// Side indica si la orden compra o vende el token.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType son los tipos de orden soportados por el simulador.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderGTC    OrderType = "GTC"
	OrderGTD    OrderType = "GTD"
	OrderFOK    OrderType = "FOK"
	OrderFAK    OrderType = "FAK"
)

// OrderStatus es el estado de una orden simulada.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusMatched         OrderStatus = "matched"
	StatusCancelled       OrderStatus = "cancelled"
	StatusExpired         OrderStatus = "expired"
	StatusRejected        OrderStatus = "rejected"
)

// Terminal devuelve true si el estado no admite más fills.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusMatched, StatusCancelled, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// Liquidity clasifica un fill como maker o taker para el cálculo de fees.
type Liquidity string

const (
	LiquidityMaker Liquidity = "maker"
	LiquidityTaker Liquidity = "taker"
)

// OrderRequest es la orden tal como la emite la estrategia.
// TokenID es el token_id de Polymarket o el ticker de Kalshi.
// Outcome ("YES"/"NO") solo aplica a venues cuyo book separa ambos lados.
type OrderRequest struct {
	TokenID    string
	Venue      Venue
	Segment    Segment
	Outcome    string
	Side       Side
	Type       OrderType
	Size       float64
	LimitPrice float64
	ExpiresAt  time.Time
}

// Validate comprueba la orden antes de cualquier matching.
// Una orden inválida se rechaza sin tocar estado.
func (r OrderRequest) Validate() error {
	if r.TokenID == "" {
		return fmt.Errorf("%w: missing token id", ErrInvalidOrder)
	}
	if r.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %v", ErrInvalidOrder, r.Size)
	}
	switch r.Type {
	case OrderMarket:
	case OrderGTC, OrderGTD, OrderFOK, OrderFAK:
		if r.LimitPrice <= 0 {
			return fmt.Errorf("%w: %s order requires a limit price", ErrInvalidOrder, r.Type)
		}
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, r.Type)
	}
	if r.Type == OrderGTD && r.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: GTD order requires an expiration time", ErrInvalidOrder)
	}
	switch r.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, r.Side)
	}
	return nil
}

// Resting devuelve true si un remanente de este tipo puede quedar en el book.
func (t OrderType) Resting() bool {
	return t == OrderGTC || t == OrderGTD
}

// PositionKey devuelve la clave de posición de la orden. En Kalshi los
// holdings YES y NO del mismo ticker no se netean entre sí, por eso el
// outcome forma parte de la clave.
func (r OrderRequest) PositionKey() PositionKey {
	return PositionKey{TokenID: r.TokenID, Outcome: r.Outcome}
}

// InstrumentID devuelve el identificador con el que se consulta el book de
// esta orden en el gateway: el token_id tal cual en Polymarket, o
// "TICKER:OUTCOME" en venues con book yes/no.
func (r OrderRequest) InstrumentID() string {
	if r.Outcome == "" {
		return r.TokenID
	}
	return r.TokenID + ":" + r.Outcome
}

// RestingOrder es una orden GTC/GTD con remanente esperando en el book.
type RestingOrder struct {
	ID          string
	Request     OrderRequest
	SubmittedAt time.Time
	Remaining   float64
	Status      OrderStatus
}

// Expired devuelve true si la orden es GTD y su expiración ya pasó.
func (o RestingOrder) Expired(now time.Time) bool {
	return o.Request.Type == OrderGTD && now.After(o.Request.ExpiresAt)
}

// Fill es la unidad atómica que se aplica al portfolio. Inmutable.
type Fill struct {
	OrderID   string
	TokenID   string
	Venue     Venue
	Segment   Segment
	Outcome   string
	Side      Side
	Price     float64
	Size      float64
	Fee       float64
	Liquidity Liquidity
	Timestamp time.Time
}

// Notional es el valor bruto del fill (precio × tamaño) sin fees.
func (f Fill) Notional() float64 {
	return f.Price * f.Size
}

// PositionKey devuelve la clave de posición que este fill modifica.
func (f Fill) PositionKey() PositionKey {
	return PositionKey{TokenID: f.TokenID, Outcome: f.Outcome}
}

// OrderTicket es el resultado síncrono de enviar una orden: fills inmediatos,
// rechazo, o el handle de una resting order pendiente.
type OrderTicket struct {
	OrderID   string
	Status    OrderStatus
	Fills     []Fill
	Remaining float64
	Reason    string
}

// FilledSize devuelve el tamaño total ejecutado en el ticket.
func (t OrderTicket) FilledSize() float64 {
	var total float64
	for _, f := range t.Fills {
		total += f.Size
	}
	return total
}

// AvgPrice devuelve el precio medio ponderado por tamaño de los fills.
// Devuelve 0 si no hubo fills.
func (t OrderTicket) AvgPrice() float64 {
	var size, notional float64
	for _, f := range t.Fills {
		size += f.Size
		notional += f.Notional()
	}
	if size == 0 {
		return 0
	}
	return notional / size
}
