package gateway

import (
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// mapMarkets convierte los DTOs a domain.Market aplicando el contrato de
// no-lookahead: descarta mercados creados después de `at` y oculta el
// outcome de mercados que a ese instante aún no estaban resueltos.
func mapMarkets(raw []marketRaw, at time.Time) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		start := time.Unix(r.StartTime, 0).UTC()
		if start.After(at) {
			continue
		}
		markets = append(markets, mapMarket(r, at))
	}
	return markets
}

func mapMarket(r marketRaw, at time.Time) domain.Market {
	m := domain.Market{
		ID:        r.ID,
		Venue:     domain.Venue(r.Venue),
		Question:  r.Question,
		Slug:      r.Slug,
		StartDate: time.Unix(r.StartTime, 0).UTC(),
		Active:    r.Active,
		Closed:    r.Closed,
	}
	if r.EndTime > 0 {
		m.EndDate = time.Unix(r.EndTime, 0).UTC()
	}

	// El outcome solo es visible si la resolución ya había ocurrido.
	if r.ResolvedTime > 0 && !time.Unix(r.ResolvedTime, 0).After(at) {
		m.Resolved = true
		m.Outcome = r.Result
	}

	for i, t := range r.Tokens {
		if i >= 2 {
			break
		}
		m.Tokens[i] = domain.Token{
			TokenID: t.TokenID,
			Outcome: t.Outcome,
			Price:   t.Price,
		}
	}
	return m
}

// latestSnapshotAt devuelve el snapshot más reciente con timestamp ≤ at,
// o false si ninguno califica. Defensa local además del cap en el request.
func latestSnapshotAt(snapshots []snapshotRaw, at time.Time) (snapshotRaw, bool) {
	var best snapshotRaw
	var found bool
	limit := at.UnixMilli()
	for _, s := range snapshots {
		if s.Timestamp <= limit && (!found || s.Timestamp > best.Timestamp) {
			best = s
			found = true
		}
	}
	return best, found
}

// mapSnapshot normaliza un snapshot al domain.OrderBook del instrumento
// pedido. Los books de Kalshi llegan como lados yes/no en centavos; la
// vista YES toma sus bids del lado yes y deriva los asks de los bids del
// lado no (precio 1 - no), y la vista NO al revés.
func mapSnapshot(raw snapshotRaw, instrument string) domain.OrderBook {
	ob := domain.OrderBook{
		TokenID:   instrument,
		Timestamp: time.UnixMilli(raw.Timestamp).UTC(),
	}

	if len(raw.Yes) > 0 || len(raw.No) > 0 {
		own, opposite := raw.Yes, raw.No
		if outcomeOf(instrument) == "NO" {
			own, opposite = raw.No, raw.Yes
		}
		for _, level := range own {
			ob.Bids = append(ob.Bids, domain.BookEntry{Price: level[0] / 100, Size: level[1]})
		}
		for _, level := range opposite {
			ob.Asks = append(ob.Asks, domain.BookEntry{Price: 1 - level[0]/100, Size: level[1]})
		}
	} else {
		ob.Bids = mapBookLevels(raw.Bids)
		ob.Asks = mapBookLevels(raw.Asks)
	}

	sort.Slice(ob.Bids, func(i, j int) bool { return ob.Bids[i].Price > ob.Bids[j].Price })
	sort.Slice(ob.Asks, func(i, j int) bool { return ob.Asks[i].Price < ob.Asks[j].Price })
	return ob
}

// mapBookLevels convierte niveles raw (strings) a domain.BookEntry.
func mapBookLevels(raw []bookLevelRaw) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price := domain.ParsePrice(r.Price)
		size := domain.ParsePrice(r.Size)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}
	return entries
}

// outcomeOf extrae el sufijo ":YES"/":NO" de un instrument ID.
// Sin sufijo se asume la vista YES.
func outcomeOf(instrument string) string {
	if i := strings.LastIndex(instrument, ":"); i >= 0 {
		return strings.ToUpper(instrument[i+1:])
	}
	return "YES"
}

// tickerOf devuelve el instrument sin el sufijo de outcome.
func tickerOf(instrument string) string {
	if i := strings.LastIndex(instrument, ":"); i >= 0 {
		return instrument[:i]
	}
	return instrument
}
