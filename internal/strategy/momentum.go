package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// Tunables de la estrategia de momentum. Sobreescribibles vía MomentumConfig.
const (
	defaultUnderdogThreshold = 0.40
	defaultMomentumSize      = 50.0
	defaultMaxPositions      = 5
	defaultTakeProfitPct     = 15.0
	defaultStopLossPct       = 10.0
	defaultMaxDailyLoss      = 200.0

	// Los precios son probabilidades; entradas y targets nunca tocan 1.0.
	priceCeiling = 0.99
)

// MomentumConfig controla la estrategia de momentum del underdog.
type MomentumConfig struct {
	UnderdogThreshold float64 // probabilidad pre-partido máxima para contar como underdog
	MaxTradeSize      float64 // USD, escalado por la confianza
	MaxPositions      int     // a través de todas las estrategias
	TakeProfitPct     float64
	StopLossPct       float64
	MaxDailyLoss      float64 // número positivo, comparado contra -DailyPnL
}

// DefaultMomentumConfig devuelve los valores de producción.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		UnderdogThreshold: defaultUnderdogThreshold,
		MaxTradeSize:      defaultMomentumSize,
		MaxPositions:      defaultMaxPositions,
		TakeProfitPct:     defaultTakeProfitPct,
		StopLossPct:       defaultStopLossPct,
		MaxDailyLoss:      defaultMaxDailyLoss,
	}
}

func (c *MomentumConfig) setDefaults() {
	if c.UnderdogThreshold <= 0 {
		c.UnderdogThreshold = defaultUnderdogThreshold
	}
	if c.MaxTradeSize <= 0 {
		c.MaxTradeSize = defaultMomentumSize
	}
	if c.MaxPositions <= 0 {
		c.MaxPositions = defaultMaxPositions
	}
	if c.TakeProfitPct <= 0 {
		c.TakeProfitPct = defaultTakeProfitPct
	}
	if c.StopLossPct <= 0 {
		c.StopLossPct = defaultStopLossPct
	}
	if c.MaxDailyLoss <= 0 {
		c.MaxDailyLoss = defaultMaxDailyLoss
	}
}

// Momentum opera underdogs pre-partido en el momento en que toman la
// delantera. Mantiene un cache de cuotas capturadas antes del pitido inicial;
// un gol de un underdog cacheado que lo deja estrictamente arriba produce a
// lo sumo un TradeSignal por partido.
type Momentum struct {
	cfg    MomentumConfig
	quoter Quoter
	book   PositionBook

	mu   sync.Mutex
	odds map[int64]domain.PreMatchOdds
}

// NewMomentum construye la estrategia. quoter puede ser nil; las entradas
// caen entonces a la estimación determinista.
func NewMomentum(cfg MomentumConfig, quoter Quoter, book PositionBook) *Momentum {
	cfg.setDefaults()
	return &Momentum{
		cfg:    cfg,
		quoter: quoter,
		book:   book,
		odds:   make(map[int64]domain.PreMatchOdds),
	}
}

// CachePreMatchOdds guarda cuotas de un partido si aún no hay cacheadas. Las
// cuotas son un snapshot previo al pitido inicial: fetches posteriores del
// mismo partido nunca pisan el primero.
func (m *Momentum) CachePreMatchOdds(fixtureID int64, odds domain.PreMatchOdds) {
	if len(odds) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.odds[fixtureID]; ok {
		return
	}
	m.odds[fixtureID] = odds
	slog.Debug("momentum: cached pre-match odds", "fixture", fixtureID, "entries", len(odds))
}

// CachedOdds devuelve el snapshot cacheado de un partido, si existe.
func (m *Momentum) CachedOdds(fixtureID int64) (domain.PreMatchOdds, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.odds[fixtureID]
	return o, ok
}

// Forget descarta las cuotas cacheadas de un partido terminado.
func (m *Momentum) Forget(fixtureID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.odds, fixtureID)
}

// OnGoal evalúa un gol deduplicado y devuelve una señal cuando el equipo que
// marcó es un underdog cacheado que queda estrictamente arriba y todas las
// puertas de riesgo pasan. Devuelve nil cuando no corresponde operar.
func (m *Momentum) OnGoal(ctx context.Context, goal domain.GoalEvent) *domain.TradeSignal {
	odds, ok := m.CachedOdds(goal.Fixture.ID)
	if !ok {
		return nil
	}
	underdog, prob, ok := odds.Underdog(goal.Fixture)
	if !ok {
		return nil
	}
	if !equalTeams(goal.Team, underdog) {
		return nil
	}

	margin := goal.HomeScore - goal.AwayScore
	if goal.Side == domain.SideAway {
		margin = -margin
	}
	if margin <= 0 {
		// Empates y goles yendo abajo no son entradas de momentum.
		return nil
	}
	if prob > m.cfg.UnderdogThreshold {
		return nil
	}

	if m.book != nil {
		if m.book.OpenCount() >= m.cfg.MaxPositions {
			slog.Info("momentum: position limit reached, skipping", "fixture", goal.Fixture.ID)
			return nil
		}
		if m.book.DailyPnL() <= -m.cfg.MaxDailyLoss {
			slog.Warn("momentum: daily loss limit reached, skipping",
				"fixture", goal.Fixture.ID, "daily_pnl", m.book.DailyPnL())
			return nil
		}
		if m.book.HasOpen(NameMomentum, goal.Fixture.ID) {
			return nil
		}
	}

	entry := m.entryPrice(ctx, goal, prob, margin)
	confidence := domain.MomentumConfidence(prob, m.cfg.UnderdogThreshold, goal.Minute, margin)

	target := entry * (1 + m.cfg.TakeProfitPct/100)
	if target > priceCeiling {
		target = priceCeiling
	}
	stop := entry * (1 - m.cfg.StopLossPct/100)

	sig := &domain.TradeSignal{
		ID:          uuid.NewString(),
		Strategy:    NameMomentum,
		FixtureID:   goal.Fixture.ID,
		Team:        goal.Team,
		Side:        domain.SideYes,
		EntryPrice:  entry,
		TargetPrice: target,
		StopPrice:   stop,
		SizeUSD:     m.cfg.MaxTradeSize * confidence,
		Confidence:  confidence,
		Reason: fmt.Sprintf("underdog %s took the lead %d-%d at %d'",
			goal.Team, goal.HomeScore, goal.AwayScore, goal.Minute),
		CreatedAt: goal.Timestamp,
	}

	slog.Info("momentum: signal generated",
		"fixture", goal.Fixture.ID,
		"team", sig.Team,
		"entry", sig.EntryPrice,
		"target", sig.TargetPrice,
		"stop", sig.StopPrice,
		"confidence", sig.Confidence,
		"size_usd", sig.SizeUSD,
	)
	return sig
}

// entryPrice pide al venue un precio en vivo y cae a una estimación armada
// con cuotas pre-partido, minuto y margen cuando no hay quote de mercado.
func (m *Momentum) entryPrice(ctx context.Context, goal domain.GoalEvent, prob float64, margin int) float64 {
	if m.quoter != nil {
		if price, ok := m.quoter.TeamWinPrice(ctx, goal.Fixture, goal.Team); ok && price > 0 {
			return clampPrice(price)
		}
	}
	return fallbackEntry(prob, goal.Minute, margin)
}

// fallbackEntry estima el precio post-gol del nuevo líder: el mayor entre un
// piso derivado de las cuotas y un modelo lineal en minuto y margen.
func fallbackEntry(preMatchProb float64, minute, margin int) float64 {
	fromOdds := preMatchProb * 1.5
	fromState := 0.45 + float64(minute)/90*0.40 + float64(margin-1)*0.15
	entry := fromOdds
	if fromState > entry {
		entry = fromState
	}
	return clampPrice(entry)
}

func clampPrice(p float64) float64 {
	if p > priceCeiling {
		return priceCeiling
	}
	if p < 0.01 {
		return 0.01
	}
	return p
}

func equalTeams(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
