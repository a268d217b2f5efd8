package kalshi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// Name implementa ports.VenueGateway.
func (c *Client) Name() string { return "kalshi" }

// Close implementa ports.VenueGateway.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Kalshi expone un único contrato binario por mercado; el lado va codificado
// en el token (`TICKER:yes` / `TICKER:no`) para que cada instrumento tenga
// identidad propia aguas arriba.

func yesToken(ticker string) string { return ticker + ":yes" }
func noToken(ticker string) string  { return ticker + ":no" }

// splitToken recupera el ticker y el lado de un token. Un token sin sufijo
// se trata como YES por compatibilidad.
func splitToken(tokenID string) (string, domain.MarketSide) {
	if t, ok := strings.CutSuffix(tokenID, ":no"); ok {
		return t, domain.SideNo
	}
	if t, ok := strings.CutSuffix(tokenID, ":yes"); ok {
		return t, domain.SideYes
	}
	return tokenID, domain.SideYes
}

// SearchMarkets busca mercados abiertos cuyo título contenga el texto.
func (c *Client) SearchMarkets(ctx context.Context, query string) ([]domain.Market, error) {
	var resp struct {
		Markets []struct {
			Ticker string `json:"ticker"`
			Title  string `json:"title"`
		} `json:"markets"`
	}
	if err := c.do(ctx, c.reads, http.MethodGet, "/markets?status=open&limit=100", nil, &resp); err != nil {
		return nil, fmt.Errorf("kalshi.SearchMarkets: %w", err)
	}

	needle := strings.ToLower(query)
	var markets []domain.Market
	for _, m := range resp.Markets {
		if !strings.Contains(strings.ToLower(m.Title), needle) {
			continue
		}
		markets = append(markets, domain.Market{
			ID:       m.Ticker,
			Question: m.Title,
			Venue:    c.Name(),
			Outcomes: []string{"YES", "NO"},
			TokenIDs: []string{yesToken(m.Ticker), noToken(m.Ticker)},
		})
	}
	return markets, nil
}

// GetQuote devuelve el top of book del instrumento, convertido de centavos.
// El ask de un lado se deriva del bid del lado contrario.
func (c *Client) GetQuote(ctx context.Context, tokenID string) (domain.Quote, error) {
	ticker, side := splitToken(tokenID)
	path := fmt.Sprintf("/markets/%s/orderbook?depth=1", url.PathEscape(ticker))

	var resp struct {
		Orderbook struct {
			Yes [][]int `json:"yes"` // [price_cents, size]
			No  [][]int `json:"no"`
		} `json:"orderbook"`
	}
	if err := c.do(ctx, c.reads, http.MethodGet, path, nil, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("kalshi.GetQuote: %w", err)
	}

	var yesBid, noBid float64
	if len(resp.Orderbook.Yes) > 0 && len(resp.Orderbook.Yes[0]) > 0 {
		yesBid = centsToProb(resp.Orderbook.Yes[0][0])
	}
	if len(resp.Orderbook.No) > 0 && len(resp.Orderbook.No[0]) > 0 {
		noBid = centsToProb(resp.Orderbook.No[0][0])
	}

	var quote domain.Quote
	if side == domain.SideNo {
		quote.BestBid = noBid
		if yesBid > 0 {
			quote.BestAsk = 1 - yesBid
		}
		return quote, nil
	}
	quote.BestBid = yesBid
	if noBid > 0 {
		quote.BestAsk = 1 - noBid
	}
	return quote, nil
}

// PlaceOrder envía una orden límite sobre el lado que codifica el token,
// con el precio convertido a centavos.
func (c *Client) PlaceOrder(ctx context.Context, tokenID string, side domain.OrderSide, price, size float64) (domain.OrderHandle, error) {
	ticker, marketSide := splitToken(tokenID)

	count := int(size / price)
	if count < 1 {
		count = 1
	}
	body := map[string]any{
		"ticker": ticker,
		"action": strings.ToLower(string(side)),
		"type":   "limit",
		"count":  count,
	}
	if marketSide == domain.SideNo {
		body["side"] = "no"
		body["no_price"] = probToCents(price)
	} else {
		body["side"] = "yes"
		body["yes_price"] = probToCents(price)
	}

	var resp struct {
		Order struct {
			OrderID string `json:"order_id"`
			Status  string `json:"status"`
		} `json:"order"`
	}
	if err := c.do(ctx, c.writes, http.MethodPost, "/portfolio/orders", body, &resp); err != nil {
		return domain.OrderHandle{}, fmt.Errorf("kalshi.PlaceOrder: %w", err)
	}
	if resp.Order.OrderID == "" {
		return domain.OrderHandle{}, fmt.Errorf("kalshi.PlaceOrder: no order ID in response")
	}
	return domain.OrderHandle{
		OrderID: resp.Order.OrderID,
		Status:  mapStatus(resp.Order.Status),
	}, nil
}

// GetOrderStatus consulta el estado de una orden.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	path := "/portfolio/orders/" + url.PathEscape(orderID)

	var resp struct {
		Order struct {
			Status string `json:"status"`
		} `json:"order"`
	}
	if err := c.do(ctx, c.reads, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("kalshi.GetOrderStatus: %w", err)
	}
	return mapStatus(resp.Order.Status), nil
}

// CancelOrder cancela una orden en reposo.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	path := "/portfolio/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, c.writes, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("kalshi.CancelOrder: %w", err)
	}
	return nil
}

func mapStatus(s string) domain.OrderStatus {
	switch strings.ToLower(s) {
	case "executed", "filled":
		return domain.OrderFilled
	case "canceled", "cancelled", "expired":
		return domain.OrderCancelled
	default:
		return domain.OrderOpen
	}
}
