package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarquez/pitchbot/internal/domain"
)

func update(fixtureID int64, home, away, minute int, status domain.MatchStatus) domain.MatchUpdate {
	return domain.MatchUpdate{
		Fixture: domain.Fixture{
			ID:       fixtureID,
			HomeTeam: "Leeds",
			AwayTeam: "Chelsea",
		},
		HomeScore: home,
		AwayScore: away,
		Minute:    minute,
		Status:    status,
		Timestamp: time.Now(),
	}
}

func newTestGateway() *Gateway {
	return New(nil, nil, DefaultConfig())
}

func TestIngestEmitsGoalOnScoreIncrease(t *testing.T) {
	g := newTestGateway()
	var goals []domain.GoalEvent
	g.OnGoal(func(e domain.GoalEvent) { goals = append(goals, e) })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	g.Ingest(update(1, 1, 0, 23, domain.StatusFirstHalf))

	assert.Len(t, goals, 1)
	assert.Equal(t, "Leeds", goals[0].Team)
	assert.Equal(t, 23, goals[0].Minute)
}

func TestIngestFirstSnapshotEmitsNothing(t *testing.T) {
	// A fixture first seen at 2-1 yields no goal events; there is no
	// baseline to diff against.
	g := newTestGateway()
	var goals int
	g.OnGoal(func(domain.GoalEvent) { goals++ })

	g.Ingest(update(1, 2, 1, 60, domain.StatusSecondHalf))

	assert.Zero(t, goals)
}

func TestIngestDuplicateSnapshotSuppressed(t *testing.T) {
	g := newTestGateway()
	var goals int
	g.OnGoal(func(domain.GoalEvent) { goals++ })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	g.Ingest(update(1, 1, 0, 23, domain.StatusFirstHalf))
	// The feed redelivers the same snapshot.
	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	g.Ingest(update(1, 1, 0, 23, domain.StatusFirstHalf))

	assert.Equal(t, 1, goals, "redelivered goal must be deduplicated")
}

func TestIngestSimultaneousGoalsHomeFirst(t *testing.T) {
	g := newTestGateway()
	var goals []domain.GoalEvent
	g.OnGoal(func(e domain.GoalEvent) { goals = append(goals, e) })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	g.Ingest(update(1, 1, 1, 11, domain.StatusFirstHalf))

	assert.Len(t, goals, 2)
	assert.Equal(t, domain.SideHome, goals[0].Side)
	assert.Equal(t, domain.SideAway, goals[1].Side)
}

func TestIngestThreadsScorerIntoGoal(t *testing.T) {
	g := newTestGateway()
	var goals []domain.GoalEvent
	g.OnGoal(func(e domain.GoalEvent) { goals = append(goals, e) })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	u := update(1, 1, 0, 23, domain.StatusFirstHalf)
	u.Scorer = "Bamford"
	g.Ingest(u)

	if assert.Len(t, goals, 1) {
		assert.Equal(t, "Bamford", goals[0].Scorer)
		assert.Contains(t, goals[0].Key(), "Bamford", "el goleador entra en la clave de idempotencia")
	}
}

func TestIngestSimultaneousGoalsDropScorer(t *testing.T) {
	// Con dos subidas en el mismo snapshot no se puede atribuir el goleador.
	g := newTestGateway()
	var goals []domain.GoalEvent
	g.OnGoal(func(e domain.GoalEvent) { goals = append(goals, e) })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	u := update(1, 1, 1, 11, domain.StatusFirstHalf)
	u.Scorer = "Bamford"
	g.Ingest(u)

	if assert.Len(t, goals, 2) {
		assert.Empty(t, goals[0].Scorer)
		assert.Empty(t, goals[1].Scorer)
	}
}

func TestIngestTerminalFixtureLeavesState(t *testing.T) {
	g := newTestGateway()
	g.Ingest(update(1, 1, 0, 50, domain.StatusSecondHalf))
	g.Ingest(update(1, 1, 0, 90, domain.StatusFinished))

	g.mu.Lock()
	_, known := g.lastSeen[1]
	g.mu.Unlock()
	assert.False(t, known, "finished fixtures must leave the snapshot set")
}

func TestIngestDispatchesUpdates(t *testing.T) {
	g := newTestGateway()
	var updates int
	g.OnFixtureUpdate(func(domain.MatchUpdate) { updates++ })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	g.Ingest(update(1, 0, 0, 11, domain.StatusFirstHalf))

	assert.Equal(t, 2, updates)
}

func TestIngestPanickingCallbackIsolated(t *testing.T) {
	g := newTestGateway()
	var reached bool
	g.OnGoal(func(domain.GoalEvent) { panic("consumer bug") })
	g.OnGoal(func(domain.GoalEvent) { reached = true })

	g.Ingest(update(1, 0, 0, 10, domain.StatusFirstHalf))
	assert.NotPanics(t, func() {
		g.Ingest(update(1, 1, 0, 12, domain.StatusFirstHalf))
	})

	assert.True(t, reached, "a panicking callback must not block the others")
}

func TestIngestDropsUpdateWithoutFixtureID(t *testing.T) {
	g := newTestGateway()
	var updates int
	g.OnFixtureUpdate(func(domain.MatchUpdate) { updates++ })

	g.Ingest(domain.MatchUpdate{})

	assert.Zero(t, updates)
}
