package ingest

// dedupSet es un set acotado, ordenado por inserción, de claves de eventos
// vistas recientemente. Al desbordar recorta la mitad más vieja, así las
// claves más recientes siempre sobreviven. Es del gateway y solo se muta
// desde su vía de despacho.
type dedupSet struct {
	capacity int
	keys     map[string]struct{}
	order    []string
}

func newDedupSet(capacity int) *dedupSet {
	if capacity < 2 {
		capacity = 2
	}
	return &dedupSet{
		capacity: capacity,
		keys:     make(map[string]struct{}, capacity),
	}
}

// Seen registra la clave e indica si ya estaba presente.
func (s *dedupSet) Seen(key string) bool {
	if _, ok := s.keys[key]; ok {
		return true
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)

	if len(s.keys) > s.capacity {
		trim := len(s.order) - s.capacity/2
		for _, old := range s.order[:trim] {
			delete(s.keys, old)
		}
		s.order = append(s.order[:0:0], s.order[trim:]...)
	}
	return false
}

// Len devuelve la cantidad de claves retenidas.
func (s *dedupSet) Len() int {
	return len(s.keys)
}
