// Package polymarket adapta las APIs CLOB y Gamma de Polymarket al port de
// venue. Los precios ya vienen como probabilidades en [0,1] por el wire.
package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"

	// Rate limits al 60% de los techos documentados.
	// CLOB /book: 500/10s -> 30/s
	booksRatePerSec = 30
	// Gamma /markets: 300/10s -> 18/s
	gammaRatePerSec = 18
	// Endpoints de órdenes del CLOB: bajo a propósito, las órdenes son raras.
	ordersRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el cliente HTTP de Polymarket con rate limiting y reintentos.
type Client struct {
	http          *http.Client
	clobBase      string
	gammaBase     string
	apiKey        string
	gammaLimiter  *rate.Limiter
	booksLimiter  *rate.Limiter
	ordersLimiter *rate.Limiter
}

// NewClient crea un Client para los base URLs dados. Bases vacíos caen a los
// endpoints de producción; apiKey puede ser vacío para uso de solo lectura.
func NewClient(clobBase, gammaBase, apiKey string) *Client {
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	return &Client{
		http:          &http.Client{Timeout: 10 * time.Second},
		clobBase:      clobBase,
		gammaBase:     gammaBase,
		apiKey:        apiKey,
		gammaLimiter:  rate.NewLimiter(gammaRatePerSec, 10),
		booksLimiter:  rate.NewLimiter(booksRatePerSec, 5),
		ordersLimiter: rate.NewLimiter(ordersRatePerSec, 2),
	}
}

// get performs a GET with rate limiting and retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return c.http.Do(req)
	}, out)
}

// post performs a JSON POST with rate limiting and retries.
func (c *Client) post(ctx context.Context, limiter *rate.Limiter, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.setHeaders(req)
		return c.http.Do(req)
	}, out)
}

// del performs a DELETE with rate limiting and retries.
func (c *Client) del(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return c.http.Do(req)
	}, out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// doWithRetry runs the request with exponential backoff. 429s and 5xx retry,
// 4xx fail immediately with the response body in the error.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("polymarket: rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, honoring the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
