// Package backoff provee la política de reintentos compartida por la
// ingesta del feed, los clientes de venue y el sondeo de fills: demora
// exponencial con tope y jitter aleatorio, testeable sin timers reales.
package backoff

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy describe un schedule de backoff exponencial acotado.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	JitterFrac  float64 // fracción de la demora agregada como jitter
}

// Default devuelve el schedule del gateway de ingesta: 10 intentos desde
// 2s, duplicando, con tope de 60s y hasta 25% de jitter.
func Default() Policy {
	return Policy{
		MaxAttempts: 10,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
		JitterFrac:  0.25,
	}
}

// Delay devuelve la demora exponencial con tope para un intento con base
// cero, antes del jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	mult := p.Multiplier
	if mult <= 1 {
		mult = 2
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Exhausted indica si el contador de intentos con base cero agotó el
// schedule.
func (p Policy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// Wait duerme la demora del intento más el jitter, retornando antes con el
// error del contexto si este se cancela.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	d := p.Delay(attempt)
	if p.JitterFrac > 0 {
		d += time.Duration(rand.Float64() * p.JitterFrac * float64(d))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
