// Package notify renderiza los reportes del engine para el operador.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/dmarquez/pitchbot/internal/domain"
	"github.com/dmarquez/pitchbot/internal/ports"
)

const maxQuestionLen = 30

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notifier que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notifier para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Report renderiza el snapshot periódico de estadísticas.
func (c *Console) Report(_ context.Context, rep ports.EngineReport) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] up %s — goals:%d signals:%d open:%d closed:%d\n",
		now, rep.Uptime, rep.GoalsProcessed, rep.SignalsGenerated,
		len(rep.OpenPositions), len(rep.ClosedPositions))

	c.printStrategy("momentum", rep.Momentum)
	c.printStrategy("compression", rep.Compression)

	if c.table && len(rep.OpenPositions)+len(rep.ClosedPositions) > 0 {
		c.printPositions(rep.OpenPositions, rep.ClosedPositions)
	}
	return nil
}

func (c *Console) printStrategy(name string, s domain.Stats) {
	if s.TotalSignals == 0 && s.TotalTrades == 0 {
		return
	}
	fmt.Fprintf(c.out, "  %-12s signals:%d trades:%d W/L:%d/%d win%%:%.0f pnl:$%.2f day:$%.2f\n",
		name, s.TotalSignals, s.TotalTrades, s.WinningTrades, s.LosingTrades,
		s.WinRate*100, s.TotalPnL, s.DailyPnL)
}

func (c *Console) printPositions(open, closed []*domain.Position) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Status", "Strategy", "Team", "Entry", "Last", "Exit", "PnL", "Reason")

	for _, p := range open {
		table.Append(
			"OPEN",
			p.Signal.Strategy,
			domain.TruncateStr(p.Signal.Team, maxQuestionLen),
			fmt.Sprintf("%.3f", p.EntryPrice),
			fmt.Sprintf("%.3f", p.LastPrice),
			"-",
			fmt.Sprintf("%+.2f", unrealized(p)),
			"-",
		)
	}
	for _, p := range closed {
		table.Append(
			"CLOSED",
			p.Signal.Strategy,
			domain.TruncateStr(p.Signal.Team, maxQuestionLen),
			fmt.Sprintf("%.3f", p.EntryPrice),
			fmt.Sprintf("%.3f", p.LastPrice),
			fmt.Sprintf("%.3f", p.ExitPrice),
			fmt.Sprintf("%+.2f", p.PnL),
			string(p.Status),
		)
	}
	table.Render()
}

// unrealized marca una posición abierta a su último precio observado.
func unrealized(p *domain.Position) float64 {
	if p.LastPrice <= 0 {
		return 0
	}
	return p.SettleAt(p.LastPrice)
}
