package scope

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// sendBuffer — ёмкость очереди кадров одного подписчика.
	sendBuffer = 256

	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	pingPeriod   = 30 * time.Second
)

// Frame — один отсчёт осциллографа.
type Frame struct {
	Scope  string    `json:"scope"`
	Port   string    `json:"port"`
	Step   int       `json:"step"`
	Values []float64 `json:"values"`
	At     time.Time `json:"at"`
}

// Hub раздаёт кадры осциллографов подписчикам websocket.
//
// Publish не блокируется: медленный подписчик теряет кадры,
// когда его очередь заполнена.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	closed  bool

	dropped atomic.Int64
}

type subscriber struct {
	conn  *websocket.Conn
	scope string // пустая строка — все осциллографы
	send  chan []byte
	once  sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// NewHub создаёт хаб.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP переводит соединение на websocket и подписывает его.
// Параметр запроса scope ограничивает подписку одним осциллографом.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("scope upgrade failed", "error", err)
		return
	}

	sub := &subscriber{
		conn:  conn,
		scope: r.URL.Query().Get("scope"),
		send:  make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[sub] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("scope client connected", "remote", r.RemoteAddr, "scope", sub.scope, "clients", count)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// readLoop читает управляющие кадры до разрыва соединения.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		_ = sub.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer sub.conn.Close()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.clients[sub]
	delete(h.clients, sub)
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		sub.close()
		h.logger.Info("scope client disconnected", "scope", sub.scope, "clients", count)
	}
}

// Publish рассылает кадр подписчикам.
func (h *Hub) Publish(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Warn("scope frame marshal failed", "scope", f.Scope, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.clients {
		if sub.scope != "" && sub.scope != f.Scope {
			continue
		}
		select {
		case sub.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients возвращает число подписчиков.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped возвращает число кадров, потерянных из-за переполнения очередей.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close отключает всех подписчиков. Новые подключения отклоняются.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.clients {
		sub.close()
		delete(h.clients, sub)
	}
}
