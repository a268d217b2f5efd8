package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarquez/pitchbot/internal/domain"
)

type fakeQuoter struct {
	price float64
	ok    bool
}

func (q fakeQuoter) TeamWinPrice(context.Context, domain.Fixture, string) (float64, bool) {
	return q.price, q.ok
}

type fakeBook struct {
	open    int
	hasOpen bool
	daily   float64
}

func (b fakeBook) OpenCount() int             { return b.open }
func (b fakeBook) HasOpen(string, int64) bool { return b.hasOpen }
func (b fakeBook) DailyPnL() float64          { return b.daily }

func testFixture() domain.Fixture {
	return domain.Fixture{ID: 42, HomeTeam: "Leeds", AwayTeam: "Chelsea"}
}

func underdogGoal(home, away, minute int) domain.GoalEvent {
	return domain.GoalEvent{
		Fixture:   testFixture(),
		Side:      domain.SideHome,
		Team:      "Leeds",
		Minute:    minute,
		HomeScore: home,
		AwayScore: away,
		Timestamp: time.Now(),
	}
}

func testOdds() domain.PreMatchOdds {
	return domain.PreMatchOdds{"Home": 0.25, "Away": 0.60, "Draw": 0.15}
}

func TestOnGoalUnderdogTakesLead(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{price: 0.55, ok: true}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())

	sig := m.OnGoal(context.Background(), underdogGoal(1, 0, 30))

	if assert.NotNil(t, sig) {
		assert.Equal(t, NameMomentum, sig.Strategy)
		assert.Equal(t, "Leeds", sig.Team)
		assert.Equal(t, domain.SideYes, sig.Side)
		assert.Equal(t, 0.55, sig.EntryPrice)
		assert.Greater(t, sig.TargetPrice, sig.EntryPrice)
		assert.Less(t, sig.StopPrice, sig.EntryPrice)
		assert.Greater(t, sig.Confidence, 0.0)
		assert.LessOrEqual(t, sig.Confidence, 1.0)
		assert.InDelta(t, 50*sig.Confidence, sig.SizeUSD, 1e-9)
		assert.NotEmpty(t, sig.ID)
	}
}

func TestOnGoalNoCachedOdds(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{})

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(1, 0, 30)))
}

func TestOnGoalFavoriteScores(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())

	goal := underdogGoal(0, 1, 30)
	goal.Side = domain.SideAway
	goal.Team = "Chelsea"

	assert.Nil(t, m.OnGoal(context.Background(), goal), "the favorite scoring is not a momentum entry")
}

func TestOnGoalEqualizerIgnored(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(1, 1, 30)),
		"an equalizer leaves the underdog level, not leading")
}

func TestOnGoalUnderdogStillTrailing(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(1, 2, 30)))
}

func TestOnGoalUnderdogAboveThreshold(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.UnderdogThreshold = 0.20
	m := NewMomentum(cfg, fakeQuoter{}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds()) // underdog prob 0.25 > 0.20

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(1, 0, 30)))
}

func TestOnGoalPositionLimitBlocks(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{open: 5})
	m.CachePreMatchOdds(42, testOdds())

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(1, 0, 30)))
}

func TestOnGoalDailyLossLimitBlocks(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{daily: -200})
	m.CachePreMatchOdds(42, testOdds())

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(1, 0, 30)))
}

func TestOnGoalExistingPositionBlocks(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{hasOpen: true})
	m.CachePreMatchOdds(42, testOdds())

	assert.Nil(t, m.OnGoal(context.Background(), underdogGoal(2, 0, 60)))
}

func TestOnGoalTargetNeverExceedsCeiling(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{price: 0.95, ok: true}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())

	sig := m.OnGoal(context.Background(), underdogGoal(3, 0, 80))

	if assert.NotNil(t, sig) {
		assert.LessOrEqual(t, sig.TargetPrice, 0.99)
	}
}

func TestOnGoalFallbackEntryWithoutQuote(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{ok: false}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())

	sig := m.OnGoal(context.Background(), underdogGoal(1, 0, 60))

	if assert.NotNil(t, sig) {
		// max(0.25*1.5, 0.45 + 60/90*0.40 + 0) = max(0.375, 0.7167)
		assert.InDelta(t, 0.45+60.0/90*0.40, sig.EntryPrice, 1e-9)
		assert.LessOrEqual(t, sig.EntryPrice, 0.99)
	}
}

func TestCachePreMatchOddsNeverOverwrites(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{})
	m.CachePreMatchOdds(42, domain.PreMatchOdds{"Home": 0.25, "Away": 0.60})
	m.CachePreMatchOdds(42, domain.PreMatchOdds{"Home": 0.90, "Away": 0.05})

	odds, ok := m.CachedOdds(42)
	assert.True(t, ok)
	assert.Equal(t, 0.25, odds["Home"], "the pre-kickoff snapshot must win")
}

func TestForgetDropsOdds(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig(), fakeQuoter{}, fakeBook{})
	m.CachePreMatchOdds(42, testOdds())
	m.Forget(42)

	_, ok := m.CachedOdds(42)
	assert.False(t, ok)
}

func TestFallbackEntryClampedToCeiling(t *testing.T) {
	assert.LessOrEqual(t, fallbackEntry(0.39, 90, 5), 0.99)
	assert.GreaterOrEqual(t, fallbackEntry(0.01, 1, 1), 0.01)
}
