// Package storage persiste el registro de eventos append-only en SQLite.
//
// Estrategia:
//   - una tabla `events`, solo inserts, indexada por tiempo y tipo;
//   - las escrituras se bufferean en memoria y se vuelcan en una sola
//     transacción, así la vía caliente (gol -> señal -> orden) nunca espera
//     al disco;
//   - el log es solo para replay y análisis. Los restarts arrancan en frío
//     y nunca leen estado desde acá.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dmarquez/pitchbot/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at DATETIME NOT NULL,
    type       TEXT     NOT NULL,
    payload    TEXT     NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_events_at   ON events(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`

const (
	defaultFlushEvery = 50
	retention         = 30 * 24 * time.Hour
)

// EventLog implementa ports.EventLog sobre SQLite (Go puro, sin CGo).
type EventLog struct {
	db *sql.DB

	mu      sync.Mutex
	pending []ports.EventLogEntry
	flushAt int
}

// NewEventLog abre (o crea) la base en path, aplica el esquema y poda las
// entradas más viejas que la ventana de retención.
func NewEventLog(path string) (*EventLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewEventLog: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewEventLog: apply schema: %w", err)
	}

	cutoff := time.Now().UTC().Add(-retention)
	if _, err := db.Exec(`DELETE FROM events WHERE created_at < ?`, cutoff); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewEventLog: prune: %w", err)
	}

	return &EventLog{db: db, flushAt: defaultFlushEvery}, nil
}

// Append bufferea un evento, volcando a disco cuando el buffer se llena.
func (l *EventLog) Append(ctx context.Context, entry ports.EventLogEntry) error {
	l.mu.Lock()
	l.pending = append(l.pending, entry)
	full := len(l.pending) >= l.flushAt
	l.mu.Unlock()

	if full {
		return l.Export(ctx)
	}
	return nil
}

// Export vuelca todos los eventos buffereados en una transacción.
func (l *EventLog) Export(ctx context.Context) error {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.requeue(batch)
		return fmt.Errorf("storage.Export: begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (created_at, type, payload) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		l.requeue(batch)
		return fmt.Errorf("storage.Export: prepare: %w", err)
	}
	defer stmt.Close()

	for _, entry := range batch {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
		}
		if _, err := stmt.ExecContext(ctx, entry.Timestamp, entry.Type, string(payload)); err != nil {
			tx.Rollback()
			l.requeue(batch)
			return fmt.Errorf("storage.Export: insert %s: %w", entry.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		l.requeue(batch)
		return fmt.Errorf("storage.Export: commit: %w", err)
	}
	return nil
}

// Close vuelca lo que haya buffereado y cierra la base.
func (l *EventLog) Close() error {
	if err := l.Export(context.Background()); err != nil {
		l.db.Close()
		return fmt.Errorf("storage.Close: final export: %w", err)
	}
	return l.db.Close()
}

// Count devuelve la cantidad de eventos persistidos del tipo dado, o de
// todos los eventos cuando typ está vacío.
func (l *EventLog) Count(ctx context.Context, typ string) (int, error) {
	var n int
	var err error
	if typ == "" {
		err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	} else {
		err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type = ?`, typ).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("storage.Count: %w", err)
	}
	return n, nil
}

// requeue devuelve un batch fallido al frente del buffer para que el
// próximo export lo reintente.
func (l *EventLog) requeue(batch []ports.EventLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(batch, l.pending...)
}
