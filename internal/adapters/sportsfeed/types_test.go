package sportsfeed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarquez/pitchbot/internal/domain"
)

const liveFixtureJSON = `{
  "response": [{
    "fixture": {"id": 1001, "status": {"short": "2H", "elapsed": 67}},
    "league": {"id": 39, "name": "Premier League"},
    "teams": {"home": {"name": "Leeds"}, "away": {"name": "Chelsea"}},
    "goals": {"home": 2, "away": 1}
  }]
}`

func TestFixtureEntryToUpdate(t *testing.T) {
	var resp fixturesResponse
	require.NoError(t, json.Unmarshal([]byte(liveFixtureJSON), &resp))
	require.Len(t, resp.Response, 1)

	now := time.Now().UTC()
	u := resp.Response[0].toUpdate(now)

	assert.Equal(t, int64(1001), u.Fixture.ID)
	assert.Equal(t, int64(39), u.Fixture.LeagueID)
	assert.Equal(t, "Leeds", u.Fixture.HomeTeam)
	assert.Equal(t, "Chelsea", u.Fixture.AwayTeam)
	assert.Equal(t, 2, u.HomeScore)
	assert.Equal(t, 1, u.AwayScore)
	assert.Equal(t, 67, u.Minute)
	assert.Equal(t, domain.StatusSecondHalf, u.Status)
	assert.Equal(t, now, u.Timestamp)
}

func TestFixtureEntryNullScoresReadAsZero(t *testing.T) {
	raw := `{"response": [{"fixture": {"id": 7, "status": {"short": "NS"}}, "goals": {"home": null, "away": null}}]}`
	var resp fixturesResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	u := resp.Response[0].toUpdate(time.Now())

	assert.Zero(t, u.HomeScore)
	assert.Zero(t, u.AwayScore)
	assert.Equal(t, domain.StatusNotStarted, u.Status)
}

func TestWSParseFixtureUpdate(t *testing.T) {
	w := NewWSFeed(WSConfig{URL: "wss://example.test/feed"})
	raw := []byte(`{
	  "type": "goal",
	  "data": {
	    "fixture_id": 1001, "league_id": 39, "league_name": "Premier League",
	    "home_team": "Leeds", "away_team": "Chelsea",
	    "home_score": 1, "away_score": 0, "minute": 23, "status": "1H",
	    "scorer": "Bamford"
	  }
	}`)

	u, ok := w.parse(raw)

	assert.True(t, ok)
	assert.Equal(t, int64(1001), u.Fixture.ID)
	assert.Equal(t, 1, u.HomeScore)
	assert.Equal(t, domain.StatusFirstHalf, u.Status)
	assert.Equal(t, "Bamford", u.Scorer, "el frame push trae el goleador")
}

func TestWSParseSkipsNonFixtureFrames(t *testing.T) {
	w := NewWSFeed(WSConfig{URL: "wss://example.test/feed"})

	_, ok := w.parse([]byte(`{"type":"subscribed"}`))
	assert.False(t, ok)

	_, ok = w.parse([]byte(`{"type":"goal","data":{}}`))
	assert.False(t, ok, "frames without a fixture ID are dropped")

	_, ok = w.parse([]byte(`not json`))
	assert.False(t, ok)
}
