// Package monitoring streams served predictions to connected dashboards and
// keeps a bounded in-memory window of recent events.
package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// PredictionEvent is one served prediction as broadcast on the feed.
type PredictionEvent struct {
	Seq                int64     `json:"seq"`
	PredictedStudyTime string    `json:"predicted_study_time"`
	ConfidenceLevel    string    `json:"confidence_level"`
	KeyFactors         []string  `json:"key_influencing_factors"`
	Recommendation     string    `json:"recommendation"`
	FallbackModel      bool      `json:"fallback_model"`
	Timestamp          time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed is a websocket hub in the register/unregister/broadcast style. A
// slow client gets dropped rather than blocking the broadcast loop.
type Feed struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	closeOnce  sync.Once

	upgrader websocket.Upgrader
	logger   *zap.Logger

	recent *lru.Cache[int64, PredictionEvent]
	seq    atomic.Int64
}

// NewFeed creates a feed keeping the last recentSize events in memory.
func NewFeed(recentSize int, logger *zap.Logger) (*Feed, error) {
	if recentSize <= 0 {
		recentSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	recent, err := lru.New[int64, PredictionEvent](recentSize)
	if err != nil {
		return nil, err
	}
	return &Feed{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		recent: recent,
	}, nil
}

// Run owns the client map. Call once in its own goroutine.
func (f *Feed) Run() {
	for {
		select {
		case c := <-f.register:
			f.clients[c] = true
			f.logger.Debug("feed client connected", zap.Int("total", len(f.clients)))

		case c := <-f.unregister:
			if _, ok := f.clients[c]; ok {
				delete(f.clients, c)
				close(c.send)
			}
			f.logger.Debug("feed client disconnected", zap.Int("total", len(f.clients)))

		case message := <-f.broadcast:
			for c := range f.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(f.clients, c)
				}
			}

		case <-f.done:
			for c := range f.clients {
				close(c.send)
				delete(f.clients, c)
			}
			return
		}
	}
}

func (f *Feed) Stop() {
	f.closeOnce.Do(func() { close(f.done) })
}

// Publish records the event and broadcasts it. Never blocks the caller; a
// full broadcast queue drops the message.
func (f *Feed) Publish(event PredictionEvent) {
	event.Seq = f.seq.Add(1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	f.recent.Add(event.Seq, event)

	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("marshal prediction event", zap.Error(err))
		return
	}
	select {
	case f.broadcast <- payload:
	default:
		f.logger.Warn("feed broadcast queue full, dropping event")
	}
}

// Recent returns up to limit of the newest events, newest first.
func (f *Feed) Recent(limit int) []PredictionEvent {
	if limit <= 0 {
		limit = 20
	}
	keys := f.recent.Keys() // oldest to newest
	events := make([]PredictionEvent, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(events) < limit; i-- {
		if event, ok := f.recent.Peek(keys[i]); ok {
			events = append(events, event)
		}
	}
	return events
}

// HandleWebSocket upgrades the connection and attaches it to the feed.
func (f *Feed) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}
	f.register <- c

	go c.writePump()
	go c.readPump(f)
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump(f *Feed) {
	defer func() {
		f.unregister <- c
		c.conn.Close()
	}()

	// the feed is one-way; reads only service control frames and detect
	// closed connections
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
