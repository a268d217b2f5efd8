package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmarquez/pitchbot/internal/backoff"
	"github.com/dmarquez/pitchbot/internal/domain"
	"github.com/dmarquez/pitchbot/internal/ports"
)

const (
	defaultPollInterval  = 10 * time.Second
	defaultDedupCapacity = 1000
)

// GoalCallback consume un evento de gol deduplicado.
type GoalCallback func(domain.GoalEvent)

// UpdateCallback consume un snapshot de partido.
type UpdateCallback func(domain.MatchUpdate)

// Config controla el gateway de ingesta.
type Config struct {
	PollInterval  time.Duration
	DedupCapacity int
	Backoff       backoff.Policy
}

// DefaultConfig devuelve los valores de producción.
func DefaultConfig() Config {
	return Config{
		PollInterval:  defaultPollInterval,
		DedupCapacity: defaultDedupCapacity,
		Backoff:       backoff.Default(),
	}
}

// Gateway convierte un feed ruidoso at-least-once en un stream deduplicado de
// goles y snapshots. Prefiere el transporte push y cae a polling de intervalo
// fijo cuando el push no está disponible o se rinde.
type Gateway struct {
	feed ports.SportsFeed
	push ports.PushFeed // nil deshabilita el transporte push
	cfg  Config

	mu        sync.Mutex
	lastSeen  map[int64]domain.MatchUpdate
	seen      *dedupSet
	goalCbs   []GoalCallback
	updateCbs []UpdateCallback
	degraded  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New crea un gateway sobre los transportes dados. push puede ser nil.
func New(feed ports.SportsFeed, push ports.PushFeed, cfg Config) *Gateway {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.DedupCapacity <= 0 {
		cfg.DedupCapacity = defaultDedupCapacity
	}
	return &Gateway{
		feed:     feed,
		push:     push,
		cfg:      cfg,
		lastSeen: make(map[int64]domain.MatchUpdate),
		seen:     newDedupSet(cfg.DedupCapacity),
	}
}

// OnGoal registra un callback de gol. Para un mismo partido los callbacks se
// invocan en orden de detección; uno que falla nunca bloquea a los demás.
func (g *Gateway) OnGoal(cb GoalCallback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.goalCbs = append(g.goalCbs, cb)
}

// OnFixtureUpdate registra un callback de snapshot de partido.
func (g *Gateway) OnFixtureUpdate(cb UpdateCallback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateCbs = append(g.updateCbs, cb)
}

// Start lanza el loop de ingesta. Retorna de inmediato; Stop lo apaga y
// espera a que termine.
func (g *Gateway) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})
	go func() {
		defer close(g.done)
		g.run(ctx)
	}()
}

// Stop cancela el loop de ingesta y espera a que termine.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
		<-g.done
	}
}

// Degraded indica si el gateway cayó a polling.
func (g *Gateway) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.degraded
}

func (g *Gateway) run(ctx context.Context) {
	if g.push != nil {
		err := g.push.Listen(ctx, g.Ingest)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("ingest: push transport gave up, switching to polling", "err", err)
		g.mu.Lock()
		g.degraded = true
		g.mu.Unlock()
	}
	g.pollLoop(ctx)
}

func (g *Gateway) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	g.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("ingest: gateway stopped")
			return
		case <-ticker.C:
			g.pollOnce(ctx)
		}
	}
}

// pollOnce trae el set de partidos en vivo con reintentos acotados. Los
// fallos de transporte hacen backoff; agotado el schedule se abandona el ciclo
// y el siguiente tick arranca de cero.
func (g *Gateway) pollOnce(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		updates, err := g.feed.GetLiveFixtures(ctx)
		if err == nil {
			for _, u := range updates {
				g.Ingest(u)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if g.cfg.Backoff.Exhausted(attempt + 1) {
			slog.Error("ingest: poll retries exhausted, skipping cycle", "err", err, "attempts", attempt+1)
			return
		}
		slog.Warn("ingest: poll failed, backing off", "err", err, "attempt", attempt+1)
		if err := g.cfg.Backoff.Wait(ctx, attempt); err != nil {
			return
		}
	}
}

// Ingest procesa un snapshot crudo: despacha los callbacks de update, hace
// diff del marcador contra el último snapshot visto y emite a lo sumo un
// evento por gol físico. Subidas simultáneas de local y visitante producen
// dos eventos independientes, primero el local.
func (g *Gateway) Ingest(u domain.MatchUpdate) {
	if u.Fixture.ID == 0 {
		slog.Warn("ingest: dropping update without fixture ID")
		return
	}

	g.mu.Lock()
	prev, known := g.lastSeen[u.Fixture.ID]
	if u.Status.Terminal() {
		delete(g.lastSeen, u.Fixture.ID) // acota memoria: los partidos terminados salen del set
	} else {
		g.lastSeen[u.Fixture.ID] = u
	}
	updateCbs := g.updateCbs
	g.mu.Unlock()

	for _, cb := range updateCbs {
		g.safeUpdate(cb, u)
	}

	if !known {
		return
	}
	homeInc := u.HomeScore > prev.HomeScore
	awayInc := u.AwayScore > prev.AwayScore

	// El goleador solo se atribuye cuando sube un único marcador; con dos
	// subidas en el mismo snapshot no hay forma de saber de quién fue.
	scorer := u.Scorer
	if homeInc && awayInc {
		scorer = ""
	}
	if homeInc {
		g.emitGoal(u, domain.SideHome, scorer)
	}
	if awayInc {
		g.emitGoal(u, domain.SideAway, scorer)
	}
}

func (g *Gateway) emitGoal(u domain.MatchUpdate, side domain.TeamSide, scorer string) {
	goal := domain.GoalEvent{
		Fixture:   u.Fixture,
		Side:      side,
		Team:      u.Fixture.Team(side),
		Scorer:    scorer,
		Minute:    u.Minute,
		HomeScore: u.HomeScore,
		AwayScore: u.AwayScore,
		Timestamp: u.Timestamp,
	}

	g.mu.Lock()
	dup := g.seen.Seen(goal.Key())
	goalCbs := g.goalCbs
	g.mu.Unlock()

	if dup {
		slog.Debug("ingest: duplicate goal suppressed", "key", goal.Key())
		return
	}

	slog.Info("ingest: goal detected",
		"fixture", goal.Fixture.ID,
		"team", goal.Team,
		"minute", goal.Minute,
		"score", scoreline(goal.HomeScore, goal.AwayScore),
	)
	for _, cb := range goalCbs {
		g.safeGoal(cb, goal)
	}
}

// safeGoal aísla a un consumidor: un panic se loguea y el resto de los
// callbacks sigue corriendo.
func (g *Gateway) safeGoal(cb GoalCallback, goal domain.GoalEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ingest: goal callback panicked", "recover", r, "fixture", goal.Fixture.ID)
		}
	}()
	cb(goal)
}

func (g *Gateway) safeUpdate(cb UpdateCallback, u domain.MatchUpdate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ingest: update callback panicked", "recover", r, "fixture", u.Fixture.ID)
		}
	}()
	cb(u)
}

func scoreline(home, away int) string {
	return fmt.Sprintf("%d-%d", home, away)
}

// DedupLen expone el tamaño actual de la ventana de dedup, para monitoreo.
func (g *Gateway) DedupLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen.Len()
}
