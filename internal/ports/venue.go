package ports

import (
	"context"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// VenueGateway es un venue de mercados de predicción. Las implementaciones
// normalizan precios a probabilidades en [0,1] antes de cruzar esta frontera.
type VenueGateway interface {
	// Name identifica al venue en logs y posiciones.
	Name() string

	// SearchMarkets devuelve mercados activos que matchean una búsqueda de
	// texto libre (típicamente "<equipo> to win" o "<local> vs <visita>").
	SearchMarkets(ctx context.Context, query string) ([]domain.Market, error)

	// GetQuote devuelve el tope del libro de un instrumento.
	GetQuote(ctx context.Context, tokenID string) (domain.Quote, error)

	// PlaceOrder envía una orden límite. El handle devuelto es solo un
	// acuse; los fills se confirman vía GetOrderStatus.
	PlaceOrder(ctx context.Context, tokenID string, side domain.OrderSide, price, size float64) (domain.OrderHandle, error)

	// GetOrderStatus sondea al venue por el estado actual de la orden.
	GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error)

	// CancelOrder cancela una orden en reposo por su order ID.
	CancelOrder(ctx context.Context, orderID string) error

	// Close libera los recursos del cliente del venue.
	Close() error
}
