package gateway

// DTOs raw del gateway de datos históricos. Solo se usan dentro de este
// paquete; la conversión a domain entities se hace en mapping.go, que es
// el único punto donde se valida la forma de la respuesta.

// marketsResponse es la respuesta paginada de GET /markets.
type marketsResponse struct {
	Markets    []marketRaw `json:"markets"`
	NextCursor string      `json:"next_cursor"`
}

// marketRaw es un mercado binario tal como lo devuelve el gateway.
type marketRaw struct {
	ID           string           `json:"id"`
	Venue        string           `json:"venue"`
	Question     string           `json:"question"`
	Slug         string           `json:"slug"`
	StartTime    int64            `json:"start_time"` // unix segundos
	EndTime      int64            `json:"end_time"`
	ResolvedTime int64            `json:"resolved_time"` // 0 = sin resolver
	Result       string           `json:"result"`        // "YES"/"NO" si resuelto
	Active       bool             `json:"active"`
	Closed       bool             `json:"closed"`
	Tokens       []marketTokenRaw `json:"tokens"`
}

// marketTokenRaw es un lado (YES/NO) del mercado.
type marketTokenRaw struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
}

// orderbooksResponse es la respuesta de GET /orderbooks.
type orderbooksResponse struct {
	Snapshots []snapshotRaw `json:"snapshots"`
}

// snapshotRaw es un snapshot de book. Polymarket rellena bids/asks;
// Kalshi rellena yes/no con [precio_centavos, contratos].
type snapshotRaw struct {
	TokenID   string         `json:"token_id"`
	Timestamp int64          `json:"timestamp"` // unix milisegundos
	Bids      []bookLevelRaw `json:"bids"`
	Asks      []bookLevelRaw `json:"asks"`
	Yes       [][2]float64   `json:"yes"`
	No        [][2]float64   `json:"no"`
}

// bookLevelRaw es un nivel de precio con precio y tamaño como strings.
type bookLevelRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// pricesResponse es la respuesta de GET /prices.
type pricesResponse struct {
	Prices map[string]float64 `json:"prices"`
}
