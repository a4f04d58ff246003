package domain

import "time"

// Market representa un mercado de predicción binario tal como lo expone
// el gateway histórico. Para Polymarket cada token tiene su propio ID;
// para Kalshi el ticker identifica al mercado y el outcome va aparte.
type Market struct {
	ID        string
	Venue     Venue
	Question  string
	Slug      string
	StartDate time.Time // creación del mercado
	EndDate   time.Time // fecha de resolución prevista
	Resolved  bool      // true solo si la resolución es anterior al instante consultado
	Outcome   string    // "YES"/"NO" cuando Resolved, vacío en caso contrario
	Tokens    [2]Token
	Active    bool
	Closed    bool
}

// Token es uno de los dos lados del mercado (YES/NO).
type Token struct {
	TokenID string
	Outcome string  // "Yes" | "No"
	Price   float64 // último precio mid conocido
}

// YesToken devuelve el token YES del mercado.
func (m Market) YesToken() Token {
	for _, t := range m.Tokens {
		if t.Outcome == "Yes" {
			return t
		}
	}
	return m.Tokens[0]
}

// NoToken devuelve el token NO del mercado.
func (m Market) NoToken() Token {
	for _, t := range m.Tokens {
		if t.Outcome == "No" {
			return t
		}
	}
	return m.Tokens[1]
}

// ExistedAt devuelve true si el mercado ya existía en el instante dado.
func (m Market) ExistedAt(at time.Time) bool {
	return !m.StartDate.After(at)
}

// OpenAt devuelve true si el mercado estaba abierto (tradeable) en el instante dado.
func (m Market) OpenAt(at time.Time) bool {
	if m.StartDate.After(at) {
		return false
	}
	if !m.EndDate.IsZero() && !m.EndDate.After(at) {
		return false
	}
	return true
}
