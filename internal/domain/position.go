package domain

import "time"

// PositionStatus es el estado de ciclo de vida de una posición interna.
type PositionStatus string

const (
	PositionOpen     PositionStatus = "open"
	ClosedTakeProfit PositionStatus = "closed_take_profit"
	ClosedStopLoss   PositionStatus = "closed_stop_loss"
	ClosedResolved   PositionStatus = "closed_resolved"
)

// CloseReason nombra por qué se disparó la salida de una posición.
type CloseReason string

const (
	ReasonTakeProfit CloseReason = "TAKE_PROFIT"
	ReasonStopLoss   CloseReason = "STOP_LOSS"
	ReasonResolved   CloseReason = "RESOLVED"
)

// Status mapea el motivo de salida al estado terminal de la posición.
func (r CloseReason) Status() PositionStatus {
	switch r {
	case ReasonTakeProfit:
		return ClosedTakeProfit
	case ReasonStopLoss:
		return ClosedStopLoss
	default:
		return ClosedResolved
	}
}

// Position es el registro autoritativo de una apuesta confirmada por el
// exchange. Se crea solo cuando el venue confirma el fill, nunca al enviar.
type Position struct {
	ID         string // order ID del venue si está disponible, si no un UUID local
	Signal     TradeSignal
	Venue      string
	TokenID    string
	EntryTime  time.Time
	EntryPrice float64
	Quantity   float64 // shares compradas: SizeUSD / EntryPrice
	LastPrice  float64
	Status     PositionStatus
	ExitTime   *time.Time
	ExitPrice  float64
	PnL        float64
}

// Open indica si la posición todavía tiene exposición en el exchange.
func (p *Position) Open() bool {
	return p.Status == PositionOpen
}

// SettleAt calcula el P&L realizado para una salida al precio dado.
func (p *Position) SettleAt(exitPrice float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (exitPrice - p.EntryPrice) / p.EntryPrice * p.Signal.SizeUSD
}

// Stats agrega resultados de trading confirmados. Se actualiza solo con
// fills y cierres confirmados.
type Stats struct {
	TotalSignals  int
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	TotalPnL      float64
	DailyPnL      float64
	WinRate       float64
}

// RecordClose incorpora un cierre confirmado a los agregados.
func (s *Stats) RecordClose(pnl float64) {
	s.TotalPnL += pnl
	s.DailyPnL += pnl
	if pnl > 0 {
		s.WinningTrades++
	} else {
		s.LosingTrades++
	}
	if total := s.WinningTrades + s.LosingTrades; total > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(total)
	}
}
