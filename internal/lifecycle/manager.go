// Package lifecycle es dueño del libro de posiciones: trackea posiciones
// confirmadas, monitorea condiciones de salida y liquida en la resolución
// del partido.
package lifecycle

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dmarquez/pitchbot/internal/domain"
)

const (
	defaultMonitorInterval = 5 * time.Second

	// Cotas del random walk para el precio simulado.
	simStep     = 0.02
	simRevertAt = 0.90
	simFloor    = 0.01
	simCeil     = 0.99
)

// Closer ejecuta salidas de posición. Lo implementa el coordinador.
type Closer interface {
	Close(ctx context.Context, pos *domain.Position, exitPrice float64, reason domain.CloseReason) error
	LastPrice(ctx context.Context, pos *domain.Position) (float64, bool)
}

// Config controla el lifecycle manager.
type Config struct {
	MonitorInterval time.Duration
}

// DefaultConfig devuelve los valores de producción.
func DefaultConfig() Config {
	return Config{MonitorInterval: defaultMonitorInterval}
}

// Manager trackea cada posición confirmada desde la entrada hasta el cierre.
// Es el único dueño del estado de posiciones; las estrategias lo leen a
// través de la interfaz de libro y nunca lo mutan.
type Manager struct {
	cfg    Config
	closer Closer
	rng    *rand.Rand

	mu     sync.Mutex
	open   map[string]*domain.Position
	closed []*domain.Position
	stats  map[string]*domain.Stats
}

// New construye un manager. closer no puede ser nil.
func New(cfg Config, closer Closer) *Manager {
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = defaultMonitorInterval
	}
	return &Manager{
		cfg:    cfg,
		closer: closer,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		open:   make(map[string]*domain.Position),
		stats:  make(map[string]*domain.Stats),
	}
}

// Track registra una posición recién confirmada.
func (m *Manager) Track(pos *domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[pos.ID] = pos
	m.statsFor(pos.Signal.Strategy).TotalTrades++
	slog.Info("lifecycle: tracking position",
		"position", pos.ID, "strategy", pos.Signal.Strategy,
		"fixture", pos.Signal.FixtureID, "entry", pos.EntryPrice)
}

// RecordSignal cuenta una señal generada, se haya llenado o no.
func (m *Manager) RecordSignal(strategy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsFor(strategy).TotalSignals++
}

// Run monitorea las posiciones abiertas hasta que ctx se cancela.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("lifecycle: monitor stopped")
			return
		case <-ticker.C:
			m.monitorOnce(ctx)
		}
	}
}

// monitorOnce refresca precios de todas las posiciones abiertas y dispara
// salidas donde se tocó el target o el stop. Una salida fallida deja la
// posición abierta; el próximo ciclo reintenta.
func (m *Manager) monitorOnce(ctx context.Context) {
	for _, pos := range m.snapshotOpen() {
		price, ok := m.closer.LastPrice(ctx, pos)
		if !ok {
			price = m.simulatedPrice(pos)
		}

		m.mu.Lock()
		pos.LastPrice = price
		m.mu.Unlock()

		switch {
		case price >= pos.Signal.TargetPrice && pos.Signal.TargetPrice > 0:
			m.close(ctx, pos, price, domain.ReasonTakeProfit)
		case pos.Signal.StopPrice > 0 && price <= pos.Signal.StopPrice:
			m.close(ctx, pos, price, domain.ReasonStopLoss)
		}
	}
}

// Resolve liquida cada posición abierta de un partido cuando alcanza un
// estado terminal. Las posiciones del lado ganador liquidan a 1.0, el resto
// a 0.
func (m *Manager) Resolve(ctx context.Context, u domain.MatchUpdate) {
	if !u.Status.Terminal() {
		return
	}

	var winner string
	switch {
	case u.HomeScore > u.AwayScore:
		winner = u.Fixture.HomeTeam
	case u.AwayScore > u.HomeScore:
		winner = u.Fixture.AwayTeam
	}

	for _, pos := range m.snapshotOpen() {
		if pos.Signal.FixtureID != u.Fixture.ID {
			continue
		}
		subjectWon := winner != "" && strings.EqualFold(pos.Signal.Team, winner)
		exitPrice := 0.0
		if (pos.Signal.Side == domain.SideYes && subjectWon) ||
			(pos.Signal.Side == domain.SideNo && !subjectWon) {
			exitPrice = 1.0
		}
		m.close(ctx, pos, exitPrice, domain.ReasonResolved)
	}
}

func (m *Manager) close(ctx context.Context, pos *domain.Position, price float64, reason domain.CloseReason) {
	if err := m.closer.Close(ctx, pos, price, reason); err != nil {
		slog.Warn("lifecycle: close failed, will retry",
			"position", pos.ID, "reason", reason, "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, pos.ID)
	m.closed = append(m.closed, pos)
	m.statsFor(pos.Signal.Strategy).RecordClose(pos.PnL)
	slog.Info("lifecycle: position closed",
		"position", pos.ID, "reason", reason, "pnl", pos.PnL)
}

// simulatedPrice avanza un random walk con reversión a la media desde el
// último precio, usado cuando no hay libro en vivo.
func (m *Manager) simulatedPrice(pos *domain.Position) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	price := pos.LastPrice
	if price <= 0 {
		price = pos.EntryPrice
	}
	step := (m.rng.Float64()*2 - 1) * simStep
	if price > simRevertAt {
		step -= simStep / 2
	}
	if price < 1-simRevertAt {
		step += simStep / 2
	}
	price += step
	if price < simFloor {
		price = simFloor
	}
	if price > simCeil {
		price = simCeil
	}
	return price
}

func (m *Manager) snapshotOpen() []*domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Position, 0, len(m.open))
	for _, pos := range m.open {
		out = append(out, pos)
	}
	return out
}

// statsFor debe llamarse con el mutex tomado.
func (m *Manager) statsFor(strategy string) *domain.Stats {
	s, ok := m.stats[strategy]
	if !ok {
		s = &domain.Stats{}
		m.stats[strategy] = s
	}
	return s
}

// OpenCount implementa el libro de posiciones de las estrategias.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// HasOpen indica si la estrategia tiene una posición abierta en el partido.
func (m *Manager) HasOpen(strategy string, fixtureID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range m.open {
		if pos.Signal.Strategy == strategy && pos.Signal.FixtureID == fixtureID {
			return true
		}
	}
	return false
}

// DailyPnL devuelve el P&L realizado del día a través de las estrategias.
func (m *Manager) DailyPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, s := range m.stats {
		total += s.DailyPnL
	}
	return total
}

// Stats devuelve una copia de los agregados por estrategia.
func (m *Manager) Stats(strategy string) domain.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[strategy]; ok {
		return *s
	}
	return domain.Stats{}
}

// Snapshot devuelve copias de los sets abierto y cerrado, para reporting.
func (m *Manager) Snapshot() (open, closed []*domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	open = make([]*domain.Position, 0, len(m.open))
	for _, pos := range m.open {
		open = append(open, pos)
	}
	closed = append(closed, m.closed...)
	return open, closed
}
