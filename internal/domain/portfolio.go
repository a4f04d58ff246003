package domain

// PositionKey identifica una posición. Lados que no pueden netearse entre sí
// (YES y NO del mismo ticker en Kalshi) llevan claves distintas.
type PositionKey struct {
	TokenID string
	Outcome string
}

// Position es un holding abierto con su coste medio de entrada.
type Position struct {
	Key      PositionKey
	Venue    Venue
	Quantity float64
	AvgCost  float64 // precio medio de entrada, sin fees
}

// Value devuelve el valor mark-to-market de la posición al precio dado.
func (p Position) Value(price float64) float64 {
	return p.Quantity * price
}

// UnrealizedPnL devuelve el P&L latente contra el coste medio.
func (p Position) UnrealizedPnL(price float64) float64 {
	return p.Quantity * (price - p.AvgCost)
}

// PortfolioView es el snapshot de solo lectura que ve la estrategia cada tick.
type PortfolioView struct {
	Cash                float64
	Positions           map[PositionKey]Position
	Trades              []Fill
	TotalFeesPaid       float64
	TotalInterestEarned float64
}

// Position devuelve la posición para la clave dada, o zero value si no existe.
func (v PortfolioView) Position(key PositionKey) Position {
	return v.Positions[key]
}

// Quantity devuelve la cantidad en cartera para la clave dada.
func (v PortfolioView) Quantity(key PositionKey) float64 {
	return v.Positions[key].Quantity
}
