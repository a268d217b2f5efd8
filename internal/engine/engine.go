// Package engine une feed, estrategias, ejecución y ciclo de vida en un solo
// proceso de trading: los goles disparan entradas de momentum, los ticks de
// partido disparan entradas de compresión tardía y los loops periódicos
// refrescan cuotas, partidos y reportes de operación.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmarquez/pitchbot/internal/domain"
	"github.com/dmarquez/pitchbot/internal/exec"
	"github.com/dmarquez/pitchbot/internal/ingest"
	"github.com/dmarquez/pitchbot/internal/lifecycle"
	"github.com/dmarquez/pitchbot/internal/ports"
	"github.com/dmarquez/pitchbot/internal/strategy"
)

const (
	defaultOddsRefreshInterval = 30 * time.Minute
	defaultLiveFixtureInterval = 30 * time.Second
	defaultStatsInterval       = 5 * time.Minute
)

// Config controla los loops periódicos del engine.
type Config struct {
	OddsRefreshInterval time.Duration
	LiveFixtureInterval time.Duration
	StatsInterval       time.Duration
}

// DefaultConfig devuelve los valores de producción.
func DefaultConfig() Config {
	return Config{
		OddsRefreshInterval: defaultOddsRefreshInterval,
		LiveFixtureInterval: defaultLiveFixtureInterval,
		StatsInterval:       defaultStatsInterval,
	}
}

func (c *Config) setDefaults() {
	if c.OddsRefreshInterval <= 0 {
		c.OddsRefreshInterval = defaultOddsRefreshInterval
	}
	if c.LiveFixtureInterval <= 0 {
		c.LiveFixtureInterval = defaultLiveFixtureInterval
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = defaultStatsInterval
	}
}

// Engine es el orquestador. Cada responsabilidad corre en su propia goroutine
// bajo un contexto compartido; el estado pertenece al componente que lo muta.
type Engine struct {
	cfg         Config
	feed        ports.SportsFeed
	gateway     *ingest.Gateway
	momentum    *strategy.Momentum
	compression *strategy.Compression
	coord       *exec.Coordinator
	positions   *lifecycle.Manager
	notifier    ports.Notifier
	events      ports.EventLog

	mu             sync.Mutex
	startedAt      time.Time
	goalsProcessed int
	signals        int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New cablea el engine. notifier y events pueden ser nil.
func New(
	cfg Config,
	feed ports.SportsFeed,
	gateway *ingest.Gateway,
	momentum *strategy.Momentum,
	compression *strategy.Compression,
	coord *exec.Coordinator,
	positions *lifecycle.Manager,
	notifier ports.Notifier,
	events ports.EventLog,
) *Engine {
	cfg.setDefaults()
	return &Engine{
		cfg:         cfg,
		feed:        feed,
		gateway:     gateway,
		momentum:    momentum,
		compression: compression,
		coord:       coord,
		positions:   positions,
		notifier:    notifier,
		events:      events,
	}
}

// Start lanza todos los loops y retorna. Stop los apaga en orden.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.startedAt = time.Now()

	e.gateway.OnGoal(func(goal domain.GoalEvent) { e.onGoal(ctx, goal) })
	e.gateway.OnFixtureUpdate(func(u domain.MatchUpdate) { e.onFixtureUpdate(ctx, u) })
	e.gateway.Start(ctx)

	e.wg.Add(4)
	go func() { defer e.wg.Done(); e.oddsLoop(ctx) }()
	go func() { defer e.wg.Done(); e.liveFixtureLoop(ctx) }()
	go func() { defer e.wg.Done(); e.statsLoop(ctx) }()
	go func() { defer e.wg.Done(); e.positions.Run(ctx) }()

	slog.Info("engine: started",
		"odds_interval", e.cfg.OddsRefreshInterval,
		"fixture_interval", e.cfg.LiveFixtureInterval,
		"stats_interval", e.cfg.StatsInterval,
	)
}

// Stop cancela los loops, los espera y libera los recursos de venues y del
// log de eventos.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.gateway.Stop()
	e.wg.Wait()
	e.coord.CloseVenues()
	if err := e.feed.Close(); err != nil {
		slog.Warn("engine: feed close failed", "err", err)
	}
	if e.events != nil {
		if err := e.events.Close(); err != nil {
			slog.Warn("engine: event log close failed", "err", err)
		}
	}
	slog.Info("engine: stopped", "uptime", time.Since(e.startedAt).Round(time.Second))
}

// onGoal es la vía de momentum: entra un gol deduplicado, sale a lo sumo una
// posición confirmada.
func (e *Engine) onGoal(ctx context.Context, goal domain.GoalEvent) {
	e.mu.Lock()
	e.goalsProcessed++
	e.mu.Unlock()
	e.logEvent(ctx, "goal", goal)

	sig := e.momentum.OnGoal(ctx, goal)
	if sig == nil {
		return
	}
	e.dispatchSignal(ctx, *sig)
}

// onFixtureUpdate enruta snapshots: los estados terminales liquidan posiciones
// y descartan cuotas cacheadas, los estados en vivo alimentan la compresión.
func (e *Engine) onFixtureUpdate(ctx context.Context, u domain.MatchUpdate) {
	if u.Status.Terminal() {
		e.positions.Resolve(ctx, u)
		e.momentum.Forget(u.Fixture.ID)
		e.logEvent(ctx, "fixture_final", u)
		return
	}

	opp := e.compression.OnFixtureTick(ctx, u)
	if opp == nil {
		return
	}
	// El mercado es siempre "¿ganará el local?"; un pronóstico NO cambia el
	// lado, nunca el sujeto del mercado.
	e.dispatchSignal(ctx, opp.Signal(u.Fixture.HomeTeam))
}

func (e *Engine) dispatchSignal(ctx context.Context, sig domain.TradeSignal) {
	e.mu.Lock()
	e.signals++
	e.mu.Unlock()
	e.positions.RecordSignal(sig.Strategy)
	e.logEvent(ctx, "signal", sig)

	pos, err := e.coord.Execute(ctx, sig)
	if err != nil {
		slog.Error("engine: execution failed", "signal", sig.ID, "err", err)
		return
	}
	if pos == nil {
		// Enviada pero sin fill; el coordinador ya la canceló.
		return
	}
	e.positions.Track(pos)
	e.logEvent(ctx, "position_opened", pos)
}

// oddsLoop captura las cuotas pre-partido. Se cachean una vez por partido;
// los refrescos nunca pisan el snapshot previo al pitido inicial.
func (e *Engine) oddsLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.OddsRefreshInterval)
	defer ticker.Stop()

	e.refreshOdds(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refreshOdds(ctx)
		}
	}
}

func (e *Engine) refreshOdds(ctx context.Context) {
	updates, err := e.feed.GetLiveFixtures(ctx)
	if err != nil {
		slog.Warn("engine: fixture fetch for odds failed", "err", err)
		return
	}
	for _, u := range updates {
		if _, ok := e.momentum.CachedOdds(u.Fixture.ID); ok {
			continue
		}
		odds, err := e.feed.GetPreMatchOdds(ctx, u.Fixture.ID)
		if err != nil {
			slog.Debug("engine: no pre-match odds", "fixture", u.Fixture.ID, "err", err)
			continue
		}
		e.momentum.CachePreMatchOdds(u.Fixture.ID, odds)
		e.logEvent(ctx, "odds_cached", map[string]any{
			"fixture": u.Fixture.ID, "odds": odds,
		})
	}
}

// liveFixtureLoop sondea partidos con su propia cadencia, independiente del
// transporte del gateway. Los snapshots pasan por el gateway para que la
// detección de goles y la deduplicación vivan en un solo sitio.
func (e *Engine) liveFixtureLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.LiveFixtureInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updates, err := e.feed.GetLiveFixtures(ctx)
			if err != nil {
				slog.Warn("engine: live fixture poll failed", "err", err)
				continue
			}
			for _, u := range updates {
				e.gateway.Ingest(u)
			}
		}
	}
}

func (e *Engine) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.report(ctx)
			return
		case <-ticker.C:
			e.report(ctx)
		}
	}
}

func (e *Engine) report(ctx context.Context) {
	if e.notifier == nil {
		return
	}
	open, closed := e.positions.Snapshot()
	e.mu.Lock()
	rep := ports.EngineReport{
		Uptime:           time.Since(e.startedAt).Round(time.Second).String(),
		GoalsProcessed:   e.goalsProcessed,
		SignalsGenerated: e.signals,
		OpenPositions:    open,
		ClosedPositions:  closed,
		Momentum:         e.positions.Stats(strategy.NameMomentum),
		Compression:      e.positions.Stats(strategy.NameCompression),
	}
	e.mu.Unlock()
	if err := e.notifier.Report(ctx, rep); err != nil {
		slog.Warn("engine: report failed", "err", err)
	}
}

// logEvent agrega al registro de auditoría. Un fallo se loguea y nunca
// interrumpe la vía que produjo el evento.
func (e *Engine) logEvent(ctx context.Context, typ string, payload any) {
	if e.events == nil {
		return
	}
	entry := ports.EventLogEntry{Timestamp: time.Now().UTC(), Type: typ, Payload: payload}
	if err := e.events.Append(ctx, entry); err != nil {
		slog.Warn("engine: event log append failed", "type", typ, "err", err)
	}
}
