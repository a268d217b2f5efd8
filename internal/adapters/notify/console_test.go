package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarquez/pitchbot/internal/domain"
	"github.com/dmarquez/pitchbot/internal/ports"
)

func sampleReport() ports.EngineReport {
	now := time.Now()
	return ports.EngineReport{
		Uptime:           "1h30m0s",
		GoalsProcessed:   7,
		SignalsGenerated: 3,
		OpenPositions: []*domain.Position{{
			ID:         "p1",
			Signal:     domain.TradeSignal{Strategy: "momentum", Team: "Leeds", SizeUSD: 50},
			EntryPrice: 0.55,
			LastPrice:  0.60,
			Status:     domain.PositionOpen,
		}},
		ClosedPositions: []*domain.Position{{
			ID:         "p2",
			Signal:     domain.TradeSignal{Strategy: "compression", Team: "Chelsea", SizeUSD: 25},
			EntryPrice: 0.80,
			LastPrice:  1.0,
			ExitPrice:  1.0,
			ExitTime:   &now,
			PnL:        6.25,
			Status:     domain.ClosedResolved,
		}},
		Momentum:    domain.Stats{TotalSignals: 2, TotalTrades: 1},
		Compression: domain.Stats{TotalSignals: 1, TotalTrades: 1, WinningTrades: 1, TotalPnL: 6.25, DailyPnL: 6.25, WinRate: 1},
	}
}

func TestReportCompact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	assert.NoError(t, c.Report(context.Background(), sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "goals:7")
	assert.Contains(t, out, "signals:3")
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "compression")
	assert.NotContains(t, out, "Leeds", "compact mode has no position table")
}

func TestReportTableListsPositions(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	assert.NoError(t, c.Report(context.Background(), sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Leeds")
	assert.Contains(t, out, "Chelsea")
	assert.Contains(t, out, "OPEN")
	assert.Contains(t, out, "CLOSED")
}

func TestReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	assert.NoError(t, c.Report(context.Background(), ports.EngineReport{Uptime: "5s"}))

	assert.Contains(t, buf.String(), "open:0 closed:0")
}
