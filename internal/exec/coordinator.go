// Package exec convierte señales de trading en posiciones confirmadas por el
// exchange. El coordinador es dueño del ciclo de la orden: colocar, sondear el
// fill y cancelar al timeout, de modo que una orden sin confirmar nunca pueda
// volverse una posición trackeada.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmarquez/pitchbot/internal/domain"
	"github.com/dmarquez/pitchbot/internal/ports"
)

const (
	defaultFillPollInterval = 1 * time.Second
	defaultFillTimeout      = 10 * time.Second
)

// Config controla el coordinador de ejecución.
type Config struct {
	FillPollInterval time.Duration
	FillTimeout      time.Duration
	Simulation       bool
}

// DefaultConfig devuelve los valores de producción.
func DefaultConfig() Config {
	return Config{
		FillPollInterval: defaultFillPollInterval,
		FillTimeout:      defaultFillTimeout,
	}
}

func (c *Config) setDefaults() {
	if c.FillPollInterval <= 0 {
		c.FillPollInterval = defaultFillPollInterval
	}
	if c.FillTimeout <= 0 {
		c.FillTimeout = defaultFillTimeout
	}
}

// Coordinator enruta señales a los venues y confirma fills antes de
// comprometer posiciones. En modo simulación los fills son inmediatos y no se
// toca ningún venue.
type Coordinator struct {
	cfg    Config
	venues []ports.VenueGateway

	mu      sync.Mutex
	markets map[string]resolvedMarket // "<fixtureID>:<team>" -> market + venue
}

type resolvedMarket struct {
	market domain.Market
	venue  ports.VenueGateway
}

// New construye un coordinador sobre los venues dados, probados en orden.
func New(cfg Config, venues ...ports.VenueGateway) *Coordinator {
	cfg.setDefaults()
	return &Coordinator{
		cfg:     cfg,
		venues:  venues,
		markets: make(map[string]resolvedMarket),
	}
}

// Execute convierte una señal en una posición confirmada. Devuelve (nil, nil)
// cuando la orden se envió pero no se llenó dentro del timeout: la orden se
// cancela y no existe posición en ningún lado.
func (c *Coordinator) Execute(ctx context.Context, sig domain.TradeSignal) (*domain.Position, error) {
	if c.cfg.Simulation {
		return c.simulate(sig), nil
	}

	rm, tokenID, err := c.resolveInstrument(ctx, fixtureKey(sig.FixtureID, sig.Team), sig)
	if err != nil {
		return nil, fmt.Errorf("exec.Execute: resolve instrument: %w", err)
	}

	handle, err := rm.venue.PlaceOrder(ctx, tokenID, domain.OrderBuy, sig.EntryPrice, sig.SizeUSD)
	if err != nil {
		return nil, fmt.Errorf("exec.Execute: place order: %w", err)
	}
	slog.Info("exec: order submitted",
		"venue", rm.venue.Name(), "order", handle.OrderID, "signal", sig.ID,
		"price", sig.EntryPrice, "size_usd", sig.SizeUSD)

	filled, err := c.waitForFill(ctx, rm.venue, handle)
	if err != nil {
		return nil, fmt.Errorf("exec.Execute: confirm fill: %w", err)
	}
	if !filled {
		// Timeout sin fill. Cancelar para que no sobreviva exposición sin trackear.
		if cerr := rm.venue.CancelOrder(ctx, handle.OrderID); cerr != nil {
			slog.Error("exec: cancel after fill timeout failed",
				"venue", rm.venue.Name(), "order", handle.OrderID, "err", cerr)
			return nil, fmt.Errorf("exec.Execute: cancel unfilled order: %w", cerr)
		}
		slog.Warn("exec: order not filled in time, cancelled",
			"venue", rm.venue.Name(), "order", handle.OrderID)
		return nil, nil
	}

	pos := &domain.Position{
		ID:         handle.OrderID,
		Signal:     sig,
		Venue:      rm.venue.Name(),
		TokenID:    tokenID,
		EntryTime:  time.Now().UTC(),
		EntryPrice: sig.EntryPrice,
		Quantity:   sig.SizeUSD / sig.EntryPrice,
		LastPrice:  sig.EntryPrice,
		Status:     domain.PositionOpen,
	}
	slog.Info("exec: position opened",
		"venue", pos.Venue, "position", pos.ID, "entry", pos.EntryPrice, "qty", pos.Quantity)
	return pos, nil
}

// Close sale de una posición con una orden de venta y compromete la salida
// solo cuando el venue confirma el fill. Ante cualquier fallo la posición
// queda abierta para que el caller reintente en el próximo ciclo.
func (c *Coordinator) Close(ctx context.Context, pos *domain.Position, exitPrice float64, reason domain.CloseReason) error {
	if c.cfg.Simulation {
		settle(pos, exitPrice, reason)
		return nil
	}

	venue := c.venueByName(pos.Venue)
	if venue == nil {
		return fmt.Errorf("exec.Close: unknown venue %q", pos.Venue)
	}

	// Salir a lo que los compradores realmente pagan. Cae al precio del
	// caller cuando el libro está vacío.
	price := exitPrice
	if quote, err := venue.GetQuote(ctx, pos.TokenID); err == nil && quote.BestBid > 0 {
		price = quote.BestBid
	}

	handle, err := venue.PlaceOrder(ctx, pos.TokenID, domain.OrderSell, price, pos.Quantity*price)
	if err != nil {
		return fmt.Errorf("exec.Close: place sell order: %w", err)
	}

	filled, err := c.waitForFill(ctx, venue, handle)
	if err != nil {
		return fmt.Errorf("exec.Close: confirm fill: %w", err)
	}
	if !filled {
		if cerr := venue.CancelOrder(ctx, handle.OrderID); cerr != nil {
			slog.Error("exec: cancel unfilled exit failed",
				"venue", pos.Venue, "order", handle.OrderID, "err", cerr)
		}
		return fmt.Errorf("exec.Close: exit order not filled within %s", c.cfg.FillTimeout)
	}

	settle(pos, price, reason)
	slog.Info("exec: position closed",
		"venue", pos.Venue, "position", pos.ID, "reason", reason,
		"exit", price, "pnl", pos.PnL)
	return nil
}

// LastPrice devuelve el precio vendible actual (best bid) de una posición.
// ok es false en simulación o cuando no hay libro.
func (c *Coordinator) LastPrice(ctx context.Context, pos *domain.Position) (float64, bool) {
	if c.cfg.Simulation {
		return 0, false
	}
	venue := c.venueByName(pos.Venue)
	if venue == nil {
		return 0, false
	}
	quote, err := venue.GetQuote(ctx, pos.TokenID)
	if err != nil || quote.BestBid <= 0 {
		return 0, false
	}
	return quote.BestBid, true
}

// TeamWinPrice implementa la fuente de precios de las estrategias: el best
// ask del mercado del equipo, que es lo que pagaría una entrada.
func (c *Coordinator) TeamWinPrice(ctx context.Context, fixture domain.Fixture, team string) (float64, bool) {
	if c.cfg.Simulation {
		return 0, false
	}
	sig := domain.TradeSignal{FixtureID: fixture.ID, Team: team, Side: domain.SideYes}
	rm, tokenID, err := c.resolveInstrument(ctx, fixtureKey(fixture.ID, team), sig)
	if err != nil {
		return 0, false
	}
	quote, err := rm.venue.GetQuote(ctx, tokenID)
	if err != nil || quote.BestAsk <= 0 {
		return 0, false
	}
	return quote.BestAsk, true
}

// CloseVenues libera todos los clientes de venue.
func (c *Coordinator) CloseVenues() {
	for _, v := range c.venues {
		if err := v.Close(); err != nil {
			slog.Warn("exec: venue close failed", "venue", v.Name(), "err", err)
		}
	}
}

func (c *Coordinator) simulate(sig domain.TradeSignal) *domain.Position {
	pos := &domain.Position{
		ID:         sig.ID,
		Signal:     sig,
		Venue:      "simulation",
		EntryTime:  time.Now().UTC(),
		EntryPrice: sig.EntryPrice,
		Quantity:   sig.SizeUSD / sig.EntryPrice,
		LastPrice:  sig.EntryPrice,
		Status:     domain.PositionOpen,
	}
	slog.Info("exec: simulated fill", "position", pos.ID, "entry", pos.EntryPrice)
	return pos
}

// waitForFill sondea el estado de la orden a intervalo fijo hasta que se
// llena, el venue la cancela, o vence el timeout.
func (c *Coordinator) waitForFill(ctx context.Context, venue ports.VenueGateway, handle domain.OrderHandle) (bool, error) {
	if handle.Status == domain.OrderFilled {
		return true, nil
	}
	deadline := time.Now().Add(c.cfg.FillTimeout)
	ticker := time.NewTicker(c.cfg.FillPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
			status, err := venue.GetOrderStatus(ctx, handle.OrderID)
			if err != nil {
				slog.Warn("exec: order status poll failed",
					"venue", venue.Name(), "order", handle.OrderID, "err", err)
			} else {
				switch status {
				case domain.OrderFilled:
					return true, nil
				case domain.OrderCancelled:
					return false, nil
				}
			}
			if time.Now().After(deadline) {
				return false, nil
			}
		}
	}
}

// resolveInstrument encuentra (y cachea) el mercado y el token para operar
// "equipo gana", probando cada venue en orden.
func (c *Coordinator) resolveInstrument(ctx context.Context, key string, sig domain.TradeSignal) (resolvedMarket, string, error) {
	c.mu.Lock()
	rm, ok := c.markets[key]
	c.mu.Unlock()
	if ok {
		if tokenID, found := rm.market.TokenForSide(sig.Side); found {
			return rm, tokenID, nil
		}
	}

	query := fmt.Sprintf("%s to win", sig.Team)
	for _, venue := range c.venues {
		markets, err := venue.SearchMarkets(ctx, query)
		if err != nil {
			slog.Warn("exec: market search failed",
				"venue", venue.Name(), "query", query, "err", err)
			continue
		}
		for _, market := range markets {
			if !containsFold(market.Question, sig.Team) {
				continue
			}
			tokenID, found := market.TokenForSide(sig.Side)
			if !found {
				continue
			}
			rm = resolvedMarket{market: market, venue: venue}
			c.mu.Lock()
			c.markets[key] = rm
			c.mu.Unlock()
			return rm, tokenID, nil
		}
	}
	return resolvedMarket{}, "", fmt.Errorf("no market found for %q", query)
}

func (c *Coordinator) venueByName(name string) ports.VenueGateway {
	for _, v := range c.venues {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

func settle(pos *domain.Position, exitPrice float64, reason domain.CloseReason) {
	now := time.Now().UTC()
	pos.ExitTime = &now
	pos.ExitPrice = exitPrice
	pos.LastPrice = exitPrice
	pos.PnL = pos.SettleAt(exitPrice)
	pos.Status = reason.Status()
}

func fixtureKey(fixtureID int64, team string) string {
	return fmt.Sprintf("%d:%s", fixtureID, strings.ToLower(team))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
