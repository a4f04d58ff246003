package domain

import "errors"

// Errores centinela del core. Se comprueban con errors.Is.
var (
	// ErrInvalidOrder: la orden está malformada y se rechaza antes del matching.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientFunds: un fill de compra dejaría el cash en negativo.
	// Se reporta a la estrategia como rechazo, nunca como error fatal.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientPosition: una venta excede la posición disponible.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrMarketData: el gateway de datos falló tras agotar los retries.
	// Es fatal para el tick en curso.
	ErrMarketData = errors.New("market data error")

	// ErrOrderNotFound: cancelación de una orden que no está en el resting set.
	ErrOrderNotFound = errors.New("order not found")
)
