package domain

// Estimación de segundos hasta la resolución a partir del par (minuto,
// estado) del feed.
//
// El descuento es incognoscible desde el feed, así que pasado el minuto 90 la
// estimación asume un buffer fijo y luego se sostiene en un piso conservador.
// El piso coincide con el umbral de confianza crítica, para que el descuento
// profundo nunca se lea como certeza de "quedan segundos". La estimación es
// monótona no creciente en el minuto para un estado fijo.

const (
	regularMinutes  = 90
	extraMinutes    = 120
	stoppageBuffer  = 13 // minutos de adición asumidos pasado el 90'
	stoppageFloorS  = timeCritical
	extraTimeFloorS = 60
)

// SecondsRemaining estima los segundos hasta que el partido resuelve.
func SecondsRemaining(minute int, status MatchStatus) int {
	if status.Terminal() {
		return 0
	}
	switch status {
	case StatusNotStarted:
		return regularMinutes * 60
	case StatusHalfTime:
		return (regularMinutes - 45) * 60
	case StatusExtraTime:
		m := minute
		if m < regularMinutes {
			m = regularMinutes
		}
		s := (extraMinutes - m) * 60
		if s < extraTimeFloorS {
			s = extraTimeFloorS
		}
		return s
	default:
		if minute >= regularMinutes {
			s := (regularMinutes + stoppageBuffer - minute) * 60
			if s < stoppageFloorS {
				s = stoppageFloorS
			}
			return s
		}
		// Nunca declarar menos segundos que el buffer de descuento mientras
		// corre el tiempo regular, para que la estimación siga monótona al
		// cruzar el minuto 90 en vez de saltar cuando arranca la adición.
		s := (regularMinutes - minute) * 60
		if s < stoppageBuffer*60 {
			s = stoppageBuffer * 60
		}
		return s
	}
}
