package ports

import (
	"context"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// EngineReport es el snapshot periódico que renderiza el notifier.
type EngineReport struct {
	Uptime           string
	GoalsProcessed   int
	SignalsGenerated int
	OpenPositions    []*domain.Position
	ClosedPositions  []*domain.Position
	Momentum         domain.Stats
	Compression      domain.Stats
}

// Notifier presenta el estado del engine al operador.
type Notifier interface {
	// Report renderiza un snapshot periódico de estadísticas.
	Report(ctx context.Context, report EngineReport) error
}
