package domain

// Fórmulas de confianza de ambas estrategias. Funciones puras para poder
// testearlas sin feed ni venue de por medio.

const (
	factorFloor  = 0.3
	factorCeil   = 1.0
	middleStart  = 30
	middleEnd    = 70
	lateTaper    = 20
)

// Escalones de confianza de fútbol para la tabla de compresión.
const (
	confidenceMax      = 0.99
	confidenceVeryHigh = 0.98
	confidenceHigh     = 0.95
	confidenceMedium   = 0.90
	confidenceModerate = 0.85
	confidenceLow      = 0.70
	confidenceNeutral  = 0.50
)

// Umbrales de segundos restantes para la tabla de compresión.
const (
	timeLate     = 600
	timeVeryLate = 300
	timeCritical = 120
)

// Puntos esperados por segundo de juego, usados para dimensionar el swing
// plausible del final en deportes de puntos.
const (
	basketballPointsPerSec = 0.04
	baseballPointsPerSec   = 0.003
	minExpectedSwing       = 0.5
)

func clampFactor(v float64) float64 {
	if v < factorFloor {
		return factorFloor
	}
	if v > factorCeil {
		return factorCeil
	}
	return v
}

// MomentumConfidence puntúa a un underdog que acaba de tomar la delantera
// como el producto de tres factores independientes, cada uno acotado a
// [0.3, 1.0]:
//
//   - fuerza de cuotas: underdogs más fuertes (mayor probabilidad pre-partido,
//     siempre bajo el umbral) puntúan más que los long shots;
//   - tiempo de partido: confianza plena en el tercio medio, decayendo en los
//     extremos;
//   - margen: ventajas más grandes puntúan más alto.
func MomentumConfidence(preMatchProb, threshold float64, minute, leadMargin int) float64 {
	if threshold <= 0 {
		return factorFloor
	}
	odds := clampFactor(factorFloor + (factorCeil-factorFloor)*(preMatchProb/threshold))

	var timeF float64
	switch {
	case minute < middleStart:
		timeF = 0.7 + float64(minute)/middleStart*0.3
	case minute < middleEnd:
		timeF = 1.0
	default:
		timeF = 1.0 - float64(minute-middleEnd)/lateTaper*0.5
	}
	timeF = clampFactor(timeF)

	margin := clampFactor(0.7 + float64(leadMargin)*0.15)

	return clampFactor(odds * timeF * margin)
}

// LeadConfidence estima qué tan seguro es que la ventaja actual sobreviva
// los segundos restantes, por deporte. Fútbol usa una tabla sobre (margen,
// segundos); los deportes de puntos comparan el margen contra el swing de
// anotación esperado para el tiempo que queda.
func LeadConfidence(sport string, leadMargin, secondsRemaining int) float64 {
	switch sport {
	case "soccer", "football":
		return soccerLeadConfidence(leadMargin, secondsRemaining)
	case "basketball":
		return swingConfidence(basketballPointsPerSec, leadMargin, secondsRemaining)
	case "baseball":
		return swingConfidence(baseballPointsPerSec, leadMargin, secondsRemaining)
	default:
		return confidenceNeutral
	}
}

func soccerLeadConfidence(leadMargin, secondsRemaining int) float64 {
	switch {
	case leadMargin >= 3:
		return confidenceMax
	case leadMargin == 2:
		switch {
		case secondsRemaining < timeVeryLate:
			return confidenceVeryHigh
		case secondsRemaining < timeLate:
			return confidenceHigh
		default:
			return confidenceMedium
		}
	case leadMargin == 1:
		switch {
		case secondsRemaining < timeCritical:
			return confidenceHigh
		case secondsRemaining < timeVeryLate:
			return confidenceModerate
		default:
			return confidenceLow
		}
	case leadMargin == 0:
		// Un empate tardío significa "nadie gana" con confianza escalada por tiempo.
		if secondsRemaining < timeCritical {
			return confidenceHigh
		}
		return confidenceNeutral
	default:
		return confidenceNeutral
	}
}

// swingConfidence pone un piso al swing esperado para que un reloj casi
// agotado nunca produzca sobreconfianza por un swing cercano a cero.
func swingConfidence(pointsPerSec float64, leadMargin, secondsRemaining int) float64 {
	swing := pointsPerSec * float64(secondsRemaining) * 2
	if swing < minExpectedSwing {
		swing = minExpectedSwing
	}
	margin := float64(leadMargin)
	switch {
	case margin > swing*1.5:
		return confidenceVeryHigh
	case margin > swing:
		return confidenceMedium
	default:
		return 0.60
	}
}

// ExpectedProfitPct devuelve la ganancia porcentual de llevar el precio a
// 1.0. El caller debe rechazar precios casi nulos antes de llamar; la guarda
// de acá es una segunda línea contra la división por cero.
func ExpectedProfitPct(price float64) float64 {
	if price <= 0.001 {
		return 0
	}
	return (1.0 - price) / price * 100
}
