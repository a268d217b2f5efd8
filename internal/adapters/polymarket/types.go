package polymarket

import (
	"encoding/json"
	"strconv"
)

// gammaMarket is the Gamma /markets shape. Outcomes and token IDs arrive as
// JSON-encoded string arrays inside string fields.
type gammaMarket struct {
	ConditionID  string `json:"conditionId"`
	Question     string `json:"question"`
	OutcomesRaw  string `json:"outcomes"`
	ClobTokenIDs string `json:"clobTokenIds"`
}

func (g gammaMarket) outcomes() []string { return decodeStringArray(g.OutcomesRaw) }
func (g gammaMarket) tokenIDs() []string { return decodeStringArray(g.ClobTokenIDs) }

func decodeStringArray(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// bookResponse is the CLOB /book shape. Price levels are decimal strings.
type bookResponse struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

type bookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// bestBid returns the highest bid, 0 when the side is empty.
func (b bookResponse) bestBid() float64 {
	best := 0.0
	for _, lvl := range b.Bids {
		if p, err := strconv.ParseFloat(lvl.Price, 64); err == nil && p > best {
			best = p
		}
	}
	return best
}

// bestAsk returns the lowest ask, 0 when the side is empty.
func (b bookResponse) bestAsk() float64 {
	best := 0.0
	for _, lvl := range b.Asks {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || p <= 0 {
			continue
		}
		if best == 0 || p < best {
			best = p
		}
	}
	return best
}

type orderRequest struct {
	TokenID string  `json:"token_id"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
	Type    string  `json:"type"`
}

type orderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	ErrorMsg string `json:"errorMsg"`
}

type orderStateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
