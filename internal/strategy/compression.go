package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmarquez/pitchbot/internal/domain"
)

// Tunables de la estrategia de compresión tardía.
const (
	defaultMinClipConfidence = 0.90
	defaultClipSize          = 25.0
	defaultMinProfitPct      = 2.0
	defaultMaxSecondsToClose = 900

	// Quotes en o por debajo de esto se tratan como libro vacío.
	minQuotablePrice = 0.001

	// Precio asumido cuando el venue todavía no tiene libro para el mercado.
	neutralPrice = 0.50
)

// CompressionConfig controla la estrategia de compresión tardía.
type CompressionConfig struct {
	MinConfidence     float64
	MaxTradeSize      float64
	MinProfitPct      float64
	MaxSecondsToClose int
	Sport             string
}

// DefaultCompressionConfig devuelve los valores de producción.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinConfidence:     defaultMinClipConfidence,
		MaxTradeSize:      defaultClipSize,
		MinProfitPct:      defaultMinProfitPct,
		MaxSecondsToClose: defaultMaxSecondsToClose,
		Sport:             "soccer",
	}
}

func (c *CompressionConfig) setDefaults() {
	if c.MinConfidence <= 0 {
		c.MinConfidence = defaultMinClipConfidence
	}
	if c.MaxTradeSize <= 0 {
		c.MaxTradeSize = defaultClipSize
	}
	if c.MinProfitPct <= 0 {
		c.MinProfitPct = defaultMinProfitPct
	}
	if c.MaxSecondsToClose <= 0 {
		c.MaxSecondsToClose = defaultMaxSecondsToClose
	}
	if c.Sport == "" {
		c.Sport = "soccer"
	}
}

// Compression caza mercados que no convergieron al resultado casi seguro en
// los minutos finales de un partido. Trabaja sobre el mercado "¿gana el
// local?": una ventaja local predice YES, cualquier otra cosa predice NO.
// Un empate en la resolución hace que "gana el local" resuelva NO.
type Compression struct {
	cfg    CompressionConfig
	quoter Quoter
	book   PositionBook
}

// NewCompression construye la estrategia. quoter puede ser nil; los precios
// asumen entonces un libro neutro.
func NewCompression(cfg CompressionConfig, quoter Quoter, book PositionBook) *Compression {
	cfg.setDefaults()
	return &Compression{cfg: cfg, quoter: quoter, book: book}
}

// OnFixtureTick inspecciona un snapshot en vivo y devuelve una oportunidad
// cuando el mercado todavía deja margen rentable contra el resultado
// pronosticado. Devuelve nil si el partido aún está lejos de resolverse, si
// fallan las puertas de confianza o beneficio, o si ya hay un clip abierto.
func (c *Compression) OnFixtureTick(ctx context.Context, u domain.MatchUpdate) *domain.ClippingOpportunity {
	if !u.Status.Live() {
		return nil
	}

	seconds := domain.SecondsRemaining(u.Minute, u.Status)
	if seconds > c.cfg.MaxSecondsToClose {
		return nil
	}
	if c.book != nil && c.book.HasOpen(NameCompression, u.Fixture.ID) {
		return nil
	}

	margin := u.LeadMargin()
	outcome := domain.SideYes
	absMargin := margin
	if margin < 0 {
		outcome = domain.SideNo
		absMargin = -margin
	} else if margin == 0 {
		// "Gana el local" resuelve NO con empate.
		outcome = domain.SideNo
	}

	confidence := domain.LeadConfidence(c.cfg.Sport, absMargin, seconds)
	if confidence < c.cfg.MinConfidence {
		return nil
	}

	yesPrice := neutralPrice
	if c.quoter != nil {
		if p, ok := c.quoter.TeamWinPrice(ctx, u.Fixture, u.Fixture.HomeTeam); ok && p > 0 {
			yesPrice = p
		}
	}
	noPrice := 1.0 - yesPrice

	price := yesPrice
	if outcome == domain.SideNo {
		price = noPrice
	}
	if price <= minQuotablePrice {
		return nil
	}

	profit := domain.ExpectedProfitPct(price)
	if profit < c.cfg.MinProfitPct {
		return nil
	}

	opp := &domain.ClippingOpportunity{
		ID:       uuid.NewString(),
		MarketID: fmt.Sprintf("fixture_%d", u.Fixture.ID),
		Question: fmt.Sprintf("Will %s win?", u.Fixture.HomeTeam),

		FixtureID:           u.Fixture.ID,
		YesPrice:            yesPrice,
		NoPrice:             noPrice,
		ExpectedOutcome:     outcome,
		Confidence:          confidence,
		ExpectedProfitPct:   profit,
		SecondsToResolution: seconds,
		RecommendedPrice:    price,
		RecommendedSize:     c.cfg.MaxTradeSize * confidence,
		DetectedAt:          time.Now().UTC(),
	}

	slog.Info("compression: opportunity detected",
		"fixture", u.Fixture.ID,
		"question", opp.Question,
		"outcome", opp.ExpectedOutcome,
		"price", opp.RecommendedPrice,
		"confidence", opp.Confidence,
		"profit_pct", opp.ExpectedProfitPct,
		"seconds_left", opp.SecondsToResolution,
	)
	return opp
}
