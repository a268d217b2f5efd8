// Package sportsfeed adapta una API de datos de fútbol a los ports del feed:
// un cliente HTTP de polling para partidos y cuotas pre-partido, y una
// suscripción websocket para entrega de goles con baja latencia.
package sportsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmarquez/pitchbot/internal/domain"
)

const (
	defaultBase = "https://v3.football.api-sports.io"

	// Amigable con el tier gratuito: como mucho ~1 request por segundo.
	requestsPerSec = 1
	requestBurst   = 3

	fixturesPath = "/fixtures"
	oddsPath     = "/odds"

	matchWinnerBet = "Match Winner"
)

// Config controla el cliente del feed.
type Config struct {
	BaseURL   string
	APIKey    string
	LeagueIDs []int64 // vacío significa todas las ligas
}

// Client implementa ports.SportsFeed sobre HTTP.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
	leagues map[int64]struct{}
}

// NewClient crea un cliente del feed.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	leagues := make(map[int64]struct{}, len(cfg.LeagueIDs))
	for _, id := range cfg.LeagueIDs {
		leagues[id] = struct{}{}
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		cfg:     cfg,
		limiter: rate.NewLimiter(requestsPerSec, requestBurst),
		leagues: leagues,
	}
}

// Close implementa ports.SportsFeed.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// GetLiveFixtures devuelve un snapshot de todos los partidos en juego,
// filtrado a las ligas configuradas.
func (c *Client) GetLiveFixtures(ctx context.Context) ([]domain.MatchUpdate, error) {
	var resp fixturesResponse
	if err := c.get(ctx, fixturesPath+"?live=all", &resp); err != nil {
		return nil, fmt.Errorf("sportsfeed.GetLiveFixtures: %w", err)
	}

	now := time.Now().UTC()
	updates := make([]domain.MatchUpdate, 0, len(resp.Response))
	for _, fx := range resp.Response {
		if len(c.leagues) > 0 {
			if _, ok := c.leagues[fx.League.ID]; !ok {
				continue
			}
		}
		updates = append(updates, fx.toUpdate(now))
	}
	return updates, nil
}

// GetPreMatchOdds trae las cuotas match-winner del bookmaker para un partido
// y convierte cuotas decimales a probabilidades implícitas.
func (c *Client) GetPreMatchOdds(ctx context.Context, fixtureID int64) (domain.PreMatchOdds, error) {
	path := fmt.Sprintf("%s?fixture=%d&bet=1", oddsPath, fixtureID)

	var resp oddsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("sportsfeed.GetPreMatchOdds: fixture %d: %w", fixtureID, err)
	}

	odds := make(domain.PreMatchOdds)
	for _, entry := range resp.Response {
		for _, bookmaker := range entry.Bookmakers {
			for _, bet := range bookmaker.Bets {
				if bet.Name != matchWinnerBet {
					continue
				}
				for _, v := range bet.Values {
					decimal, err := strconv.ParseFloat(v.Odd, 64)
					if err != nil || decimal <= 1 {
						continue
					}
					odds[v.Value] = 1 / decimal
				}
			}
			if len(odds) > 0 {
				break // gana el primer bookmaker con libro match-winner
			}
		}
		if len(odds) > 0 {
			break
		}
	}
	if len(odds) == 0 {
		return nil, fmt.Errorf("sportsfeed.GetPreMatchOdds: fixture %d: no match-winner odds", fixtureID)
	}
	return odds, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apisports-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
