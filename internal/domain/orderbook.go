package domain

import (
	"strconv"
	"time"
)

// OrderBook es un snapshot histórico del libro de órdenes de un token.
type OrderBook struct {
	TokenID   string
	Timestamp time.Time
	Bids      []BookEntry // ordenados mayor a menor precio
	Asks      []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Midpoint devuelve el punto medio entre best bid y best ask.
func (ob OrderBook) Midpoint() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread devuelve el spread del book (ask - bid).
func (ob OrderBook) Spread() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// AskSizeAtOrBelow devuelve el volumen de asks a precio ≤ limit.
// Es la liquidez disponible para una compra limitada a ese precio.
func (ob OrderBook) AskSizeAtOrBelow(limit float64) float64 {
	var total float64
	for _, a := range ob.Asks {
		if a.Price > limit {
			break
		}
		total += a.Size
	}
	return total
}

// BidSizeAtOrAbove devuelve el volumen de bids a precio ≥ limit.
// Es la liquidez disponible para una venta limitada a ese precio.
func (ob OrderBook) BidSizeAtOrAbove(limit float64) float64 {
	var total float64
	for _, b := range ob.Bids {
		if b.Price < limit {
			break
		}
		total += b.Size
	}
	return total
}

// ConsumeAsks descuenta size del lado ask empezando por el mejor precio,
// sin pasar del límite. Devuelve un book nuevo; el original no se muta.
func (ob OrderBook) ConsumeAsks(size float64) OrderBook {
	out := ob
	out.Asks = consumeLevels(ob.Asks, size)
	return out
}

// ConsumeBids descuenta size del lado bid empezando por el mejor precio.
func (ob OrderBook) ConsumeBids(size float64) OrderBook {
	out := ob
	out.Bids = consumeLevels(ob.Bids, size)
	return out
}

func consumeLevels(levels []BookEntry, size float64) []BookEntry {
	out := make([]BookEntry, 0, len(levels))
	for _, l := range levels {
		if size >= l.Size {
			size -= l.Size
			continue
		}
		if size > 0 {
			l.Size -= size
			size = 0
		}
		out = append(out, l)
	}
	return out
}

// Empty devuelve true si el book no tiene niveles en ningún lado.
func (ob OrderBook) Empty() bool {
	return len(ob.Bids) == 0 && len(ob.Asks) == 0
}

// ParsePrice convierte un string de precio a float64.
// Usado en el mapping del gateway.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
