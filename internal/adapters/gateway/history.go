package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// maxMarketPages acota la paginación de FetchMarkets.
const maxMarketPages = 20

// FetchMarkets devuelve los mercados existentes en el instante `at`,
// siguiendo la paginación por cursor. El parámetro at viaja en el request
// y además se re-filtra localmente en el mapping.
func (c *Client) FetchMarkets(ctx context.Context, at time.Time) ([]domain.Market, error) {
	var markets []domain.Market
	cursor := ""
	for page := 0; page < maxMarketPages; page++ {
		q := url.Values{}
		q.Set("at", strconv.FormatInt(at.Unix(), 10))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp marketsResponse
		endpoint := fmt.Sprintf("%s/markets?%s", c.baseURL, q.Encode())
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("gateway.FetchMarkets: %w", err)
		}

		markets = append(markets, mapMarkets(resp.Markets, at)...)
		if resp.NextCursor == "" {
			return markets, nil
		}
		cursor = resp.NextCursor
	}

	// Universo truncado: mejor avisar que devolverlo como si fuera completo.
	slog.Warn("market listing truncated",
		"pages", maxMarketPages,
		"markets", len(markets),
		"at", at.Format(time.RFC3339),
	)
	return markets, nil
}

// FetchOrderBook devuelve el último snapshot del book con timestamp ≤ at.
// El request capea end_time en `at` para que el gateway nunca pueda
// devolver datos futuros; latestSnapshotAt lo re-verifica localmente.
func (c *Client) FetchOrderBook(ctx context.Context, instrument string, at time.Time) (domain.OrderBook, error) {
	q := url.Values{}
	q.Set("token_id", tickerOf(instrument))
	q.Set("end_time", strconv.FormatInt(at.UnixMilli(), 10))
	q.Set("limit", "1")

	var resp orderbooksResponse
	endpoint := fmt.Sprintf("%s/orderbooks?%s", c.baseURL, q.Encode())
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("gateway.FetchOrderBook: %w", err)
	}

	raw, ok := latestSnapshotAt(resp.Snapshots, at)
	if !ok {
		// Sin snapshot a ese instante: book vacío con el timestamp pedido.
		return domain.OrderBook{TokenID: instrument, Timestamp: at}, nil
	}
	return mapSnapshot(raw, instrument), nil
}

// FetchPrices devuelve el último precio conocido a `at` para cada token.
func (c *Client) FetchPrices(ctx context.Context, tokenIDs []string, at time.Time) (map[string]float64, error) {
	if len(tokenIDs) == 0 {
		return map[string]float64{}, nil
	}

	q := url.Values{}
	q.Set("token_ids", strings.Join(tokenIDs, ","))
	q.Set("at", strconv.FormatInt(at.Unix(), 10))

	var resp pricesResponse
	endpoint := fmt.Sprintf("%s/prices?%s", c.baseURL, q.Encode())
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("gateway.FetchPrices: %w", err)
	}
	if resp.Prices == nil {
		return map[string]float64{}, nil
	}
	return resp.Prices, nil
}
