package domain

// Market es un mercado operable del venue para un resultado de partido.
type Market struct {
	ID       string
	Question string
	Venue    string
	Outcomes []string
	TokenIDs []string
}

// TokenForSide resuelve el instrumento operable para un lado del mercado.
// Usa las etiquetas explícitas de resultado cuando el venue las provee, y si
// no cae a la posición: índice 0 es YES, índice 1 es NO.
func (m Market) TokenForSide(side MarketSide) (string, bool) {
	if len(m.TokenIDs) == 0 {
		return "", false
	}
	for i, outcome := range m.Outcomes {
		if i < len(m.TokenIDs) && equalFold(outcome, string(side)) {
			return m.TokenIDs[i], true
		}
	}
	idx := 0
	if side == SideNo {
		idx = 1
	}
	if idx >= len(m.TokenIDs) {
		return "", false
	}
	return m.TokenIDs[idx], true
}

// Quote es el tope del libro de un mercado. Los precios son probabilidades
// en [0,1]; los venues que cotizan en centavos se normalizan en el adapter.
type Quote struct {
	BestBid float64
	BestAsk float64
}

// Valid indica si ambos lados del libro están cotizados.
func (q Quote) Valid() bool {
	return q.BestBid > 0 && q.BestAsk > 0
}

// Mid devuelve el punto medio, o 0 cuando falta algún lado.
func (q Quote) Mid() float64 {
	if !q.Valid() {
		return 0
	}
	return (q.BestBid + q.BestAsk) / 2
}

// OrderSide es la dirección de una orden. El token del instrumento ya
// codifica YES o NO; buy abre exposición, sell la cierra.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// OrderStatus es el estado de ciclo de vida que reporta el venue.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderHandle es el acuse del venue para una orden enviada. Un acuse no es
// un fill: las posiciones se comprometen solo cuando el sondeo de estado
// confirma OrderFilled.
type OrderHandle struct {
	OrderID string
	Status  OrderStatus
}
