package polymarket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmarquez/pitchbot/internal/domain"
)

func TestGammaMarketDecodesNestedArrays(t *testing.T) {
	gm := gammaMarket{
		ConditionID:  "cond-1",
		Question:     "Will Leeds win?",
		OutcomesRaw:  `["Yes","No"]`,
		ClobTokenIDs: `["tok-yes","tok-no"]`,
	}

	assert.Equal(t, []string{"Yes", "No"}, gm.outcomes())
	assert.Equal(t, []string{"tok-yes", "tok-no"}, gm.tokenIDs())
}

func TestGammaMarketMalformedArrays(t *testing.T) {
	gm := gammaMarket{OutcomesRaw: "not json", ClobTokenIDs: ""}

	assert.Nil(t, gm.outcomes())
	assert.Nil(t, gm.tokenIDs())
}

func TestBookTopOfBook(t *testing.T) {
	book := bookResponse{
		Bids: []bookLevel{{Price: "0.52"}, {Price: "0.55"}, {Price: "0.40"}},
		Asks: []bookLevel{{Price: "0.61"}, {Price: "0.58"}, {Price: "0.70"}},
	}

	assert.Equal(t, 0.55, book.bestBid(), "best bid is the highest")
	assert.Equal(t, 0.58, book.bestAsk(), "best ask is the lowest")
}

func TestBookEmptySides(t *testing.T) {
	assert.Equal(t, 0.0, bookResponse{}.bestBid())
	assert.Equal(t, 0.0, bookResponse{}.bestAsk())
	assert.Equal(t, 0.0, bookResponse{Asks: []bookLevel{{Price: "junk"}}}.bestAsk())
}

func TestMapOrderStatus(t *testing.T) {
	assert.Equal(t, domain.OrderFilled, mapOrderStatus("MATCHED"))
	assert.Equal(t, domain.OrderFilled, mapOrderStatus("filled"))
	assert.Equal(t, domain.OrderCancelled, mapOrderStatus("canceled"))
	assert.Equal(t, domain.OrderCancelled, mapOrderStatus("expired"))
	assert.Equal(t, domain.OrderOpen, mapOrderStatus("live"))
	assert.Equal(t, domain.OrderOpen, mapOrderStatus(""))
}
