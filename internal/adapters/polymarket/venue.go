package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmarquez/pitchbot/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	bookPath         = "/book"
	orderPath        = "/order"
	dataOrderPath    = "/data/order"
)

// Name implements ports.VenueGateway.
func (c *Client) Name() string { return "polymarket" }

// Close implements ports.VenueGateway. The HTTP client holds no resources
// beyond pooled connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// SearchMarkets consulta Gamma por mercados activos que matcheen el texto.
func (c *Client) SearchMarkets(ctx context.Context, query string) ([]domain.Market, error) {
	u := fmt.Sprintf("%s%s?active=true&closed=false&search=%s",
		c.gammaBase, gammaMarketsPath, url.QueryEscape(query))

	var resp []gammaMarket
	if err := c.get(ctx, c.gammaLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("polymarket.SearchMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(resp))
	for _, gm := range resp {
		m := domain.Market{
			ID:       gm.ConditionID,
			Question: gm.Question,
			Venue:    c.Name(),
			Outcomes: gm.outcomes(),
			TokenIDs: gm.tokenIDs(),
		}
		if len(m.TokenIDs) == 0 {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// GetQuote returns the top of book for a token.
func (c *Client) GetQuote(ctx context.Context, tokenID string) (domain.Quote, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, bookPath, url.QueryEscape(tokenID))

	var book bookResponse
	if err := c.get(ctx, c.booksLimiter, u, &book); err != nil {
		return domain.Quote{}, fmt.Errorf("polymarket.GetQuote: %w", err)
	}
	return domain.Quote{
		BestBid: book.bestBid(),
		BestAsk: book.bestAsk(),
	}, nil
}

// PlaceOrder envía una orden límite. La respuesta es un acuse; el caller
// confirma fills a través de GetOrderStatus.
func (c *Client) PlaceOrder(ctx context.Context, tokenID string, side domain.OrderSide, price, size float64) (domain.OrderHandle, error) {
	body := orderRequest{
		TokenID: tokenID,
		Side:    string(side),
		Price:   price,
		Size:    size,
		Type:    "GTC",
	}

	var resp orderResponse
	if err := c.post(ctx, c.ordersLimiter, c.clobBase+orderPath, body, &resp); err != nil {
		return domain.OrderHandle{}, fmt.Errorf("polymarket.PlaceOrder: %w", err)
	}
	if !resp.Success || resp.OrderID == "" {
		return domain.OrderHandle{}, fmt.Errorf("polymarket.PlaceOrder: rejected: %s", resp.ErrorMsg)
	}
	return domain.OrderHandle{
		OrderID: resp.OrderID,
		Status:  mapOrderStatus(resp.Status),
	}, nil
}

// GetOrderStatus polls the venue-side state of an order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	u := fmt.Sprintf("%s%s/%s", c.clobBase, dataOrderPath, url.PathEscape(orderID))

	var resp orderStateResponse
	if err := c.get(ctx, c.ordersLimiter, u, &resp); err != nil {
		return "", fmt.Errorf("polymarket.GetOrderStatus: %w", err)
	}
	return mapOrderStatus(resp.Status), nil
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	body := map[string]string{"orderID": orderID}
	if err := c.post(ctx, c.ordersLimiter, c.clobBase+orderPath+"/cancel", body, nil); err != nil {
		return fmt.Errorf("polymarket.CancelOrder: %w", err)
	}
	return nil
}

// mapOrderStatus normaliza los estados del venue. "matched" y "filled"
// significan hecho; cualquier cosa aún trabajando mapea a open.
func mapOrderStatus(s string) domain.OrderStatus {
	switch strings.ToLower(s) {
	case "matched", "filled", "complete":
		return domain.OrderFilled
	case "cancelled", "canceled", "expired":
		return domain.OrderCancelled
	default:
		return domain.OrderOpen
	}
}
