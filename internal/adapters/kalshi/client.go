// Package kalshi adapta la API de trading de Kalshi al port de venue.
// Kalshi cotiza precios en centavos enteros; todo se normaliza a
// probabilidades en [0,1] antes de cruzar la frontera del port.
package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://trading-api.kalshi.com/trade-api/v2"

	// Kalshi permite 10 lecturas/s en el tier básico; quedarse por debajo.
	readRatePerSec  = 8
	writeRatePerSec = 2

	loginPath = "/login"
)

// Client es el cliente HTTP de Kalshi. La autenticación es un token de
// sesión obtenido con email/password y adjuntado a cada request.
type Client struct {
	http   *http.Client
	base   string
	email  string
	pass   string
	reads  *rate.Limiter
	writes *rate.Limiter

	mu    sync.Mutex
	token string
}

// NewClient crea un Client. Un base vacío cae a producción.
func NewClient(base, email, password string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:   &http.Client{Timeout: 10 * time.Second},
		base:   base,
		email:  email,
		pass:   password,
		reads:  rate.NewLimiter(readRatePerSec, 4),
		writes: rate.NewLimiter(writeRatePerSec, 1),
	}
}

// login intercambia credenciales por un token de sesión. Se llama lazy en
// el primer request autenticado y de nuevo tras un 401.
func (c *Client) login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"email": c.email, "password": c.pass})
	if err != nil {
		return fmt.Errorf("kalshi.login: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("kalshi.login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kalshi.login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("kalshi.login: status %d: %s", resp.StatusCode, string(b))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("kalshi.login: decode: %w", err)
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return nil
}

func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	if err := c.login(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

// do corre un request autenticado, reintentando una vez tras relogin en 401.
func (c *Client) do(ctx context.Context, limiter *rate.Limiter, method, path string, body, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		token, err := c.sessionToken(ctx)
		if err != nil {
			return err
		}

		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal body: %w", err)
			}
			reader = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			continue
		}
		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(b))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return fmt.Errorf("%s %s: unauthorized after relogin", method, path)
}

// centsToProb convierte un precio en centavos enteros a probabilidad.
func centsToProb(cents int) float64 {
	return float64(cents) / 100
}

// probToCents convierte una probabilidad al centavo entero más cercano.
func probToCents(p float64) int {
	return int(p*100 + 0.5)
}
