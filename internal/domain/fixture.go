package domain

import (
	"fmt"
	"time"
)

// MatchStatus es el código corto de estado de un partido, según el feed.
type MatchStatus string

const (
	StatusNotStarted MatchStatus = "NS"
	StatusFirstHalf  MatchStatus = "1H"
	StatusHalfTime   MatchStatus = "HT"
	StatusSecondHalf MatchStatus = "2H"
	StatusExtraTime  MatchStatus = "ET"
	StatusFinished   MatchStatus = "FT"
	StatusFinishedET MatchStatus = "AET"
	StatusFinishedPK MatchStatus = "PEN"
)

// Terminal indica si el partido terminó y no producirá más cambios de
// marcador.
func (s MatchStatus) Terminal() bool {
	return s == StatusFinished || s == StatusFinishedET || s == StatusFinishedPK
}

// Live indica si el reloj corre o está pausado a mitad de partido.
func (s MatchStatus) Live() bool {
	switch s {
	case StatusFirstHalf, StatusHalfTime, StatusSecondHalf, StatusExtraTime:
		return true
	}
	return false
}

// TeamSide identifica a qué lado del partido refiere un evento.
type TeamSide string

const (
	SideHome TeamSide = "home"
	SideAway TeamSide = "away"
)

// Fixture es un partido programado. Inmutable una vez observado; se
// referencia por ID.
type Fixture struct {
	ID         int64
	LeagueID   int64
	LeagueName string
	HomeTeam   string
	AwayTeam   string
}

// Team devuelve el nombre del equipo para el lado dado.
func (f Fixture) Team(side TeamSide) string {
	if side == SideHome {
		return f.HomeTeam
	}
	return f.AwayTeam
}

// MatchUpdate es el último estado conocido de un partido. Cada update
// reemplaza al anterior del mismo partido; los snapshots viejos se descartan.
type MatchUpdate struct {
	Fixture   Fixture
	HomeScore int
	AwayScore int
	Minute    int
	Status    MatchStatus
	// Scorer llega solo en los frames push de gol; el polling no lo trae.
	Scorer    string
	Timestamp time.Time
}

// LeadMargin devuelve marcador local menos visitante.
func (u MatchUpdate) LeadMargin() int {
	return u.HomeScore - u.AwayScore
}

// GoalEvent es una transición de marcador detectada, derivada del diff de
// MatchUpdates consecutivos. Scorer puede venir vacío con feeds degradados
// (el polling no trae eventos por jugador).
type GoalEvent struct {
	Fixture   Fixture
	Side      TeamSide
	Team      string
	Scorer    string
	Minute    int
	HomeScore int
	AwayScore int
	Timestamp time.Time
}

// Key es la clave de idempotencia para suprimir reentregas del feed. El par
// de marcador nuevo desambigua dos goles del mismo lado en el mismo minuto
// cuando el goleador es desconocido.
func (g GoalEvent) Key() string {
	who := g.Scorer
	if who == "" {
		who = g.Team
	}
	return fmt.Sprintf("%d:%d:%s:%d-%d", g.Fixture.ID, g.Minute, who, g.HomeScore, g.AwayScore)
}

// PreMatchOdds mapea nombre de equipo a probabilidad implícita de victoria,
// capturada una vez por partido antes del inicio y nunca refetcheada en vivo.
type PreMatchOdds map[string]float64

// Underdog devuelve el lado con la probabilidad implícita más baja. Las
// entradas de empate se ignoran; ok es false si ninguna entrada matchea.
func (o PreMatchOdds) Underdog(f Fixture) (team string, prob float64, ok bool) {
	mapped := o.ForFixture(f)
	for t, p := range mapped {
		if !ok || p < prob {
			team, prob, ok = t, p, true
		}
	}
	return team, prob, ok
}

// ForFixture resuelve cuotas con claves laxas ("Home", "Away", o nombres de
// equipo) a los nombres reales del partido. Las claves sin match (empate,
// totales) se descartan.
func (o PreMatchOdds) ForFixture(f Fixture) map[string]float64 {
	mapped := make(map[string]float64, 2)
	for key, p := range o {
		switch {
		case equalFold(key, "home") || containsFold(key, f.HomeTeam):
			mapped[f.HomeTeam] = p
		case equalFold(key, "away") || containsFold(key, f.AwayTeam):
			mapped[f.AwayTeam] = p
		}
	}
	return mapped
}
