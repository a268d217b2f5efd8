package strategy

import (
	"context"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// Nombres de estrategia, usados para acotar límites de posiciones.
const (
	NameMomentum    = "momentum"
	NameCompression = "compression"
)

// Quoter entrega precios en vivo del mercado "equipo gana". ok es false
// cuando no hay precio disponible (simulación, o sin mercado que matchee);
// en ese caso las estrategias caen a estimaciones deterministas.
type Quoter interface {
	TeamWinPrice(ctx context.Context, fixture domain.Fixture, team string) (price float64, ok bool)
}

// PositionBook es la vista de solo lectura de las posiciones confirmadas,
// propiedad del lifecycle manager.
type PositionBook interface {
	// OpenCount devuelve la cantidad de posiciones abiertas.
	OpenCount() int

	// HasOpen indica si la estrategia ya tiene una posición abierta sobre
	// el partido.
	HasOpen(strategy string, fixtureID int64) bool

	// DailyPnL devuelve el P&L realizado del día en curso.
	DailyPnL() float64
}
