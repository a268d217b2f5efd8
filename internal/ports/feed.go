package ports

import (
	"context"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// SportsFeed es el transporte pull de datos de partido en vivo. La entrega
// es at-least-once y pueden faltar campos; el core tolera ambas cosas.
type SportsFeed interface {
	// GetLiveFixtures devuelve un snapshot de todos los partidos en juego
	// de las ligas soportadas.
	GetLiveFixtures(ctx context.Context) ([]domain.MatchUpdate, error)

	// GetPreMatchOdds devuelve probabilidades implícitas por equipo para
	// un partido, o error cuando el bookmaker no tiene.
	GetPreMatchOdds(ctx context.Context, fixtureID int64) (domain.PreMatchOdds, error)

	// Close libera los recursos del cliente del feed.
	Close() error
}

// PushFeed es el transporte push de datos en vivo: una suscripción de larga
// vida que entrega updates crudos hasta que el contexto se cancela o la
// conexión se pierde sin recuperación.
type PushFeed interface {
	// Listen conecta, se suscribe y reenvía updates parseados al handler
	// hasta que ctx termina. Retorna al agotarse los reintentos de
	// reconexión, señal para que el caller caiga a polling.
	Listen(ctx context.Context, handler func(domain.MatchUpdate)) error

	// Close derriba la conexión.
	Close() error
}
