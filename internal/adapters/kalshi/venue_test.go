package kalshi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarquez/pitchbot/internal/domain"
)

func TestTokenEncoding(t *testing.T) {
	assert.Equal(t, "GAME-X:yes", yesToken("GAME-X"))
	assert.Equal(t, "GAME-X:no", noToken("GAME-X"))

	ticker, side := splitToken("GAME-X:no")
	assert.Equal(t, "GAME-X", ticker)
	assert.Equal(t, domain.SideNo, side)

	ticker, side = splitToken("GAME-X:yes")
	assert.Equal(t, "GAME-X", ticker)
	assert.Equal(t, domain.SideYes, side)

	ticker, side = splitToken("GAME-X")
	assert.Equal(t, "GAME-X", ticker)
	assert.Equal(t, domain.SideYes, side, "un token sin sufijo se asume YES")
}

// newTestClient levanta un servidor falso con login incluido y devuelve un
// cliente apuntando a él.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == loginPath {
			json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "bot@example.com", "secret")
}

func TestSearchMarketsPublishesSidedTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"markets": []map[string]string{
				{"ticker": "LEEDS-WIN", "title": "Will Leeds win?"},
				{"ticker": "OTHER", "title": "Unrelated market"},
			},
		})
	})

	markets, err := c.SearchMarkets(context.Background(), "leeds")
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, []string{"LEEDS-WIN:yes", "LEEDS-WIN:no"}, markets[0].TokenIDs)
	assert.Equal(t, []string{"YES", "NO"}, markets[0].Outcomes)
}

func TestPlaceOrderSubmitsNoSide(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]string{"order_id": "ord-1", "status": "resting"},
		})
	})

	handle, err := c.PlaceOrder(context.Background(), "LEEDS-WIN:no", domain.OrderBuy, 0.85, 25)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", handle.OrderID)
	assert.Equal(t, domain.OrderOpen, handle.Status)

	assert.Equal(t, "LEEDS-WIN", got["ticker"])
	assert.Equal(t, "no", got["side"], "a NO instrument must trade the no side")
	assert.Equal(t, float64(85), got["no_price"], "the price goes in no_price, in cents")
	_, hasYes := got["yes_price"]
	assert.False(t, hasYes)
}

func TestPlaceOrderSubmitsYesSide(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]string{"order_id": "ord-2", "status": "executed"},
		})
	})

	handle, err := c.PlaceOrder(context.Background(), "LEEDS-WIN:yes", domain.OrderBuy, 0.40, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFilled, handle.Status)

	assert.Equal(t, "yes", got["side"])
	assert.Equal(t, float64(40), got["yes_price"])
	_, hasNo := got["no_price"]
	assert.False(t, hasNo)
}

func TestGetQuotePerSide(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"orderbook": map[string][][]int{
				"yes": {{35, 100}},
				"no":  {{60, 50}},
			},
		})
	})

	yes, err := c.GetQuote(context.Background(), "LEEDS-WIN:yes")
	require.NoError(t, err)
	assert.InDelta(t, 0.35, yes.BestBid, 1e-9)
	assert.InDelta(t, 0.40, yes.BestAsk, 1e-9, "el ask YES sale del bid del libro NO")

	no, err := c.GetQuote(context.Background(), "LEEDS-WIN:no")
	require.NoError(t, err)
	assert.InDelta(t, 0.60, no.BestBid, 1e-9)
	assert.InDelta(t, 0.65, no.BestAsk, 1e-9, "el ask NO sale del bid del libro YES")
}
