package ports

import (
	"context"
	"time"
)

// EventLogEntry es un registro de auditoría: qué pasó y cuándo. Payload es
// un valor arbitrario serializable a JSON.
type EventLogEntry struct {
	Timestamp time.Time
	Type      string
	Payload   any
}

// EventLog es el registro de auditoría append-only. Sirve para replay y
// análisis, nunca para recuperar estado en memoria: los restarts arrancan
// en frío.
type EventLog interface {
	// Append registra un evento. Los errores los loguea el caller y nunca
	// interrumpen la unidad de trabajo que produjo el evento.
	Append(ctx context.Context, entry EventLogEntry) error

	// Export vuelca los eventos buffereados a almacenamiento durable.
	Export(ctx context.Context) error

	// Close exporta y libera el log.
	Close() error
}
