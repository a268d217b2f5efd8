package sportsfeed

import (
	"time"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// fixturesResponse es la forma de /fixtures?live=all.
type fixturesResponse struct {
	Response []fixtureEntry `json:"response"`
}

type fixtureEntry struct {
	Fixture struct {
		ID     int64 `json:"id"`
		Status struct {
			Short   string `json:"short"`
			Elapsed int    `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

// toUpdate convierte un partido del wire al snapshot de dominio. Marcadores
// null (aún sin arrancar) se leen como cero.
func (f fixtureEntry) toUpdate(now time.Time) domain.MatchUpdate {
	home, away := 0, 0
	if f.Goals.Home != nil {
		home = *f.Goals.Home
	}
	if f.Goals.Away != nil {
		away = *f.Goals.Away
	}
	return domain.MatchUpdate{
		Fixture: domain.Fixture{
			ID:         f.Fixture.ID,
			LeagueID:   f.League.ID,
			LeagueName: f.League.Name,
			HomeTeam:   f.Teams.Home.Name,
			AwayTeam:   f.Teams.Away.Name,
		},
		HomeScore: home,
		AwayScore: away,
		Minute:    f.Fixture.Status.Elapsed,
		Status:    domain.MatchStatus(f.Fixture.Status.Short),
		Timestamp: now,
	}
}

// oddsResponse es la forma de /odds. Las cuotas llegan como strings
// decimales por bookmaker y apuesta.
type oddsResponse struct {
	Response []struct {
		Bookmakers []struct {
			Name string `json:"name"`
			Bets []struct {
				Name   string `json:"name"`
				Values []struct {
					Value string `json:"value"` // "Home", "Draw", "Away"
					Odd   string `json:"odd"`
				} `json:"values"`
			} `json:"bets"`
		} `json:"bookmakers"`
	} `json:"response"`
}
