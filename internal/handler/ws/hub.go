package ws

import (
	"net/http"
	"sync"
	"time"

	models "FinCast/internal/domain/models"
	xlogger "FinCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ForecastMessage is pushed to subscribers each time an hour is persisted.
type ForecastMessage struct {
	Type      string            `json:"type"`
	Symbol    string            `json:"symbol"`
	OpenTime  int64             `json:"open_time"`
	Forecasts []models.Forecast `json:"forecasts"`
	SentAt    time.Time         `json:"sent_at"`
}

type client struct {
	conn   *websocket.Conn
	symbol string // empty subscribes to all symbols
	send   chan ForecastMessage
}

// Hub fans persisted forecast sets out to websocket subscribers. Slow
// clients are dropped rather than allowed to backpressure the scheduler.
type Hub struct {
	logger *xlogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(logger *xlogger.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/forecasts", h.Serve)
}

// Serve upgrades the connection and streams forecast sets until the client
// disconnects. An optional ?symbol= query filters to one symbol.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{
		conn:   conn,
		symbol: c.QueryParam("symbol"),
		send:   make(chan ForecastMessage, 16),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		xlogger.String("symbol", cl.symbol),
		xlogger.Int("clients", total),
	)

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// Broadcast queues a persisted forecast set for every matching subscriber.
// It never blocks: a client with a full queue is disconnected.
func (h *Hub) Broadcast(symbol string, forecasts []models.Forecast) {
	if len(forecasts) == 0 {
		return
	}
	msg := ForecastMessage{
		Type:      "forecasts",
		Symbol:    symbol,
		OpenTime:  forecasts[0].OpenTime,
		Forecasts: forecasts,
		SentAt:    time.Now().UTC(),
	}

	h.mu.RLock()
	var stale []*client
	for cl := range h.clients {
		if cl.symbol != "" && cl.symbol != symbol {
			continue
		}
		select {
		case cl.send <- msg:
		default:
			stale = append(stale, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range stale {
		h.logger.Warn("dropping slow websocket client", xlogger.String("symbol", cl.symbol))
		h.remove(cl)
	}
}

// Close disconnects all clients; further Broadcast calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		close(cl.send)
	}
}

func (h *Hub) writeLoop(cl *client) {
	defer cl.conn.Close()
	for msg := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := cl.conn.WriteJSON(msg); err != nil {
			h.remove(cl)
			return
		}
	}
}

func (h *Hub) readLoop(cl *client) {
	// Inbound payloads are ignored; the loop exists to notice disconnects.
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			h.remove(cl)
			return
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
	}
	h.mu.Unlock()
	if ok {
		close(cl.send)
		cl.conn.Close()
	}
}
