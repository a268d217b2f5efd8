package domain

import "time"

// MarketSide es el lado binario de resultado de un mercado de predicción.
type MarketSide string

const (
	SideYes MarketSide = "YES"
	SideNo  MarketSide = "NO"
)

// TradeSignal es la salida de la estrategia de momentum: una entrada
// direccional con precios de target y stop. Inmutable una vez creada.
type TradeSignal struct {
	ID          string
	Strategy    string
	FixtureID   int64
	Team        string
	Side        MarketSide
	EntryPrice  float64
	TargetPrice float64
	StopPrice   float64
	SizeUSD     float64
	Confidence  float64
	Reason      string
	CreatedAt   time.Time
}

// ClippingOpportunity es la salida de la compresión tardía: un mercado
// cercano a resolverse cuyo precio no convergió al resultado pronosticado.
// Inmutable una vez creada.
type ClippingOpportunity struct {
	ID                  string
	MarketID            string
	Question            string
	FixtureID           int64
	YesPrice            float64
	NoPrice             float64
	ExpectedOutcome     MarketSide
	Confidence          float64
	ExpectedProfitPct   float64
	SecondsToResolution int
	RecommendedPrice    float64
	RecommendedSize     float64
	DetectedAt          time.Time
}

// Signal convierte la oportunidad en la forma de señal que consume el
// coordinador de ejecución. Un clip no tiene stop: cabalga hasta resolverse.
func (c ClippingOpportunity) Signal(team string) TradeSignal {
	return TradeSignal{
		ID:          c.ID,
		Strategy:    "compression",
		FixtureID:   c.FixtureID,
		Team:        team,
		Side:        c.ExpectedOutcome,
		EntryPrice:  c.RecommendedPrice,
		TargetPrice: 1.0,
		StopPrice:   0,
		SizeUSD:     c.RecommendedSize,
		Confidence:  c.Confidence,
		Reason:      "late compression: " + c.Question,
		CreatedAt:   c.DetectedAt,
	}
}
