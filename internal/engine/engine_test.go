package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarquez/pitchbot/internal/domain"
	"github.com/dmarquez/pitchbot/internal/exec"
	"github.com/dmarquez/pitchbot/internal/ingest"
	"github.com/dmarquez/pitchbot/internal/lifecycle"
	"github.com/dmarquez/pitchbot/internal/strategy"
)

type fakeFeed struct {
	fixtures []domain.MatchUpdate
	odds     domain.PreMatchOdds
}

func (f *fakeFeed) GetLiveFixtures(context.Context) ([]domain.MatchUpdate, error) {
	return f.fixtures, nil
}

func (f *fakeFeed) GetPreMatchOdds(context.Context, int64) (domain.PreMatchOdds, error) {
	return f.odds, nil
}

func (f *fakeFeed) Close() error { return nil }

func newSimEngine(feed *fakeFeed) (*Engine, *lifecycle.Manager, *strategy.Momentum) {
	coord := exec.New(exec.Config{Simulation: true})
	positions := lifecycle.New(lifecycle.DefaultConfig(), coord)
	momentum := strategy.NewMomentum(strategy.DefaultMomentumConfig(), coord, positions)
	compression := strategy.NewCompression(strategy.DefaultCompressionConfig(), coord, positions)
	gateway := ingest.New(feed, nil, ingest.DefaultConfig())
	eng := New(DefaultConfig(), feed, gateway, momentum, compression, coord, positions, nil, nil)
	return eng, positions, momentum
}

func goalFor(team string, home, away int) domain.GoalEvent {
	return domain.GoalEvent{
		Fixture:   domain.Fixture{ID: 42, HomeTeam: "Leeds", AwayTeam: "Chelsea"},
		Side:      domain.SideHome,
		Team:      team,
		Minute:    30,
		HomeScore: home,
		AwayScore: away,
		Timestamp: time.Now(),
	}
}

func TestGoalToPositionPipeline(t *testing.T) {
	eng, positions, momentum := newSimEngine(&fakeFeed{})
	momentum.CachePreMatchOdds(42, domain.PreMatchOdds{"Home": 0.25, "Away": 0.60})

	eng.onGoal(context.Background(), goalFor("Leeds", 1, 0))

	assert.Equal(t, 1, positions.OpenCount(), "a qualifying goal must end as a tracked simulated position")
	assert.True(t, positions.HasOpen(strategy.NameMomentum, 42))
	assert.Equal(t, 1, eng.goalsProcessed)
	assert.Equal(t, 1, eng.signals)
}

func TestGoalWithoutOddsGeneratesNothing(t *testing.T) {
	eng, positions, _ := newSimEngine(&fakeFeed{})

	eng.onGoal(context.Background(), goalFor("Leeds", 1, 0))

	assert.Zero(t, positions.OpenCount())
	assert.Equal(t, 1, eng.goalsProcessed, "the goal still counts as processed")
	assert.Zero(t, eng.signals)
}

func TestTerminalUpdateResolvesAndForgets(t *testing.T) {
	eng, positions, momentum := newSimEngine(&fakeFeed{})
	momentum.CachePreMatchOdds(42, domain.PreMatchOdds{"Home": 0.25, "Away": 0.60})
	eng.onGoal(context.Background(), goalFor("Leeds", 1, 0))
	assert.Equal(t, 1, positions.OpenCount())

	eng.onFixtureUpdate(context.Background(), domain.MatchUpdate{
		Fixture:   domain.Fixture{ID: 42, HomeTeam: "Leeds", AwayTeam: "Chelsea"},
		HomeScore: 1,
		AwayScore: 0,
		Minute:    90,
		Status:    domain.StatusFinished,
	})

	assert.Zero(t, positions.OpenCount(), "terminal fixtures settle every open position")
	_, ok := momentum.CachedOdds(42)
	assert.False(t, ok, "cached odds are dropped once the fixture finishes")

	_, closed := positions.Snapshot()
	if assert.Len(t, closed, 1) {
		assert.Equal(t, 1.0, closed[0].ExitPrice, "the underdog won, the YES side settles at 1.0")
		assert.Greater(t, closed[0].PnL, 0.0)
	}
}

func TestAwayLeadClipSettlesAtFullValue(t *testing.T) {
	// Con el visitante ganando, el clip compra NO sobre el mercado del
	// local; el acierto debe liquidar a 1.0, no a 0.
	eng, positions, _ := newSimEngine(&fakeFeed{})

	eng.onFixtureUpdate(context.Background(), domain.MatchUpdate{
		Fixture:   domain.Fixture{ID: 42, HomeTeam: "Leeds", AwayTeam: "Chelsea"},
		HomeScore: 0,
		AwayScore: 2,
		Minute:    85,
		Status:    domain.StatusSecondHalf,
		Timestamp: time.Now(),
	})

	assert.Equal(t, 1, positions.OpenCount())
	open, _ := positions.Snapshot()
	if assert.Len(t, open, 1) {
		assert.Equal(t, "Leeds", open[0].Signal.Team,
			"the clip stays on the home-win market it was priced against")
		assert.Equal(t, domain.SideNo, open[0].Signal.Side)
	}

	eng.onFixtureUpdate(context.Background(), domain.MatchUpdate{
		Fixture:   domain.Fixture{ID: 42, HomeTeam: "Leeds", AwayTeam: "Chelsea"},
		HomeScore: 0,
		AwayScore: 2,
		Minute:    90,
		Status:    domain.StatusFinished,
	})

	assert.Zero(t, positions.OpenCount())
	_, closed := positions.Snapshot()
	if assert.Len(t, closed, 1) {
		assert.Equal(t, 1.0, closed[0].ExitPrice,
			"a correct NO prediction settles at full value")
		assert.Greater(t, closed[0].PnL, 0.0)
	}
}

func TestLateCompressionTickOpensClip(t *testing.T) {
	eng, positions, _ := newSimEngine(&fakeFeed{})

	eng.onFixtureUpdate(context.Background(), domain.MatchUpdate{
		Fixture:   domain.Fixture{ID: 42, HomeTeam: "Leeds", AwayTeam: "Chelsea"},
		HomeScore: 2,
		AwayScore: 0,
		Minute:    85,
		Status:    domain.StatusSecondHalf,
		Timestamp: time.Now(),
	})

	assert.Equal(t, 1, positions.OpenCount())
	assert.True(t, positions.HasOpen(strategy.NameCompression, 42))
}
