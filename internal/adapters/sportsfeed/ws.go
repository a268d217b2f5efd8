package sportsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmarquez/pitchbot/internal/backoff"
	"github.com/dmarquez/pitchbot/internal/domain"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadDeadline     = 90 * time.Second
	wsPingInterval     = 30 * time.Second
)

// WSConfig controla el push feed por websocket.
type WSConfig struct {
	URL       string
	APIKey    string
	LeagueIDs []int64
	Backoff   backoff.Policy
}

// WSFeed implementa ports.PushFeed sobre una suscripción websocket. Cuando
// la conexión se cae reconecta con backoff; agotado el schedule Listen
// retorna y el caller cae a polling.
type WSFeed struct {
	cfg     WSConfig
	leagues map[int64]struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSFeed crea un push feed. cfg.URL es obligatorio.
func NewWSFeed(cfg WSConfig) *WSFeed {
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff = backoff.Default()
	}
	leagues := make(map[int64]struct{}, len(cfg.LeagueIDs))
	for _, id := range cfg.LeagueIDs {
		leagues[id] = struct{}{}
	}
	return &WSFeed{cfg: cfg, leagues: leagues}
}

// Listen conecta, se suscribe y reenvía updates parseados al handler hasta
// que ctx termina o se agotan los reintentos de reconexión.
func (w *WSFeed) Listen(ctx context.Context, handler func(domain.MatchUpdate)) error {
	for attempt := 0; ; {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := w.connect(ctx)
		if err != nil {
			if w.cfg.Backoff.Exhausted(attempt + 1) {
				return fmt.Errorf("sportsfeed.Listen: reconnects exhausted: %w", err)
			}
			slog.Warn("sportsfeed: websocket connect failed, backing off",
				"err", err, "attempt", attempt+1)
			if werr := w.cfg.Backoff.Wait(ctx, attempt); werr != nil {
				return werr
			}
			attempt++
			continue
		}
		attempt = 0 // una conexión exitosa resetea el schedule

		err = w.readLoop(ctx, conn, handler)
		w.closeConn()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("sportsfeed: websocket connection lost, reconnecting", "err", err)
	}
}

// Close derriba la conexión, desbloqueando cualquier lectura en vuelo.
func (w *WSFeed) Close() error {
	w.closeConn()
	return nil
}

func (w *WSFeed) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	sub := wsSubscribe{Action: "subscribe", Channel: "fixtures", APIKey: w.cfg.APIKey, Leagues: w.cfg.LeagueIDs}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	slog.Info("sportsfeed: websocket connected", "url", w.cfg.URL)
	return conn, nil
}

func (w *WSFeed) closeConn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}

// readLoop bombea mensajes hasta que la conexión se rompe o ctx se cancela.
// Un pinger mantiene viva la conexión; pongs ausentes vencen el deadline de
// lectura.
func (w *WSFeed) readLoop(ctx context.Context, conn *websocket.Conn, handler func(domain.MatchUpdate)) error {
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go w.pingLoop(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		update, ok := w.parse(raw)
		if !ok {
			continue
		}
		if len(w.leagues) > 0 {
			if _, found := w.leagues[update.Fixture.LeagueID]; !found {
				continue
			}
		}
		handler(update)
	}
}

func (w *WSFeed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(wsHandshakeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// parse decodifica un frame crudo. Los frames que no son updates de partido
// (acks, heartbeats) se saltean en silencio; los malformados se loguean y se
// saltean.
func (w *WSFeed) parse(raw []byte) (domain.MatchUpdate, bool) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Debug("sportsfeed: dropping malformed frame", "err", err)
		return domain.MatchUpdate{}, false
	}
	if msg.Type != "fixture_update" && msg.Type != "goal" {
		return domain.MatchUpdate{}, false
	}
	if msg.Data.FixtureID == 0 {
		slog.Debug("sportsfeed: dropping frame without fixture ID", "type", msg.Type)
		return domain.MatchUpdate{}, false
	}

	return domain.MatchUpdate{
		Fixture: domain.Fixture{
			ID:         msg.Data.FixtureID,
			LeagueID:   msg.Data.LeagueID,
			LeagueName: msg.Data.LeagueName,
			HomeTeam:   msg.Data.HomeTeam,
			AwayTeam:   msg.Data.AwayTeam,
		},
		HomeScore: msg.Data.HomeScore,
		AwayScore: msg.Data.AwayScore,
		Minute:    msg.Data.Minute,
		Status:    domain.MatchStatus(msg.Data.Status),
		Scorer:    msg.Data.Scorer,
		Timestamp: time.Now().UTC(),
	}, true
}

type wsSubscribe struct {
	Action  string  `json:"action"`
	Channel string  `json:"channel"`
	APIKey  string  `json:"api_key"`
	Leagues []int64 `json:"leagues,omitempty"`
}

type wsMessage struct {
	Type string `json:"type"`
	Data struct {
		FixtureID  int64  `json:"fixture_id"`
		LeagueID   int64  `json:"league_id"`
		LeagueName string `json:"league_name"`
		HomeTeam   string `json:"home_team"`
		AwayTeam   string `json:"away_team"`
		HomeScore  int    `json:"home_score"`
		AwayScore  int    `json:"away_score"`
		Minute     int    `json:"minute"`
		Status     string `json:"status"`
		Scorer     string `json:"scorer"`
	} `json:"data"`
}
