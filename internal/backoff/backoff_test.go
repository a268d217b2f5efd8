package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayGrowsAndCaps(t *testing.T) {
	p := Policy{BaseDelay: time.Second, Multiplier: 2, MaxDelay: 10 * time.Second}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 10*time.Second, p.Delay(6), "delay must cap at MaxDelay")
}

func TestDelayNegativeAttempt(t *testing.T) {
	p := Default()
	assert.Equal(t, p.Delay(0), p.Delay(-3))
}

func TestExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 3}

	assert.False(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))
	assert.False(t, Policy{}.Exhausted(1000), "zero MaxAttempts means unbounded")
}

func TestWaitHonorsCancellation(t *testing.T) {
	p := Policy{BaseDelay: time.Minute, Multiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, 0)

	assert.ErrorIs(t, err, context.Canceled)
}
