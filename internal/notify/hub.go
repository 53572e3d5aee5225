package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

const (
	hubQueueSize = 128
	writeTimeout = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans session events out to websocket clients. As a session.Sink it
// only queues; Run does the writes so a slow client never stalls the loop.
type Hub struct {
	log   *logrus.Entry
	queue chan Event

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	last    *Event
	dropped int
}

// NewHub creates an empty hub.
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		log:     log,
		queue:   make(chan Event, hubQueueSize),
		clients: make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) ConnectionChanged(n session.Notice) {
	ev := connectionEvent(n)
	h.mu.Lock()
	h.last = &ev
	h.mu.Unlock()
	h.enqueue(ev)
}

func (h *Hub) ReadingReceived(r packet.SensorReading, intent hit.Intent) {
	h.enqueue(readingEvent(r, intent))
}

func (h *Hub) enqueue(ev Event) {
	select {
	case h.queue <- ev:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// Run broadcasts queued events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.queue:
			h.Broadcast(ev)
		}
	}
}

// ServeHTTP upgrades the request and registers the client. The current
// connection state is sent first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	if last != nil {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(last); err != nil {
			conn.Close()
			return
		}
	}

	h.AddClient(conn)
	h.log.Debugf("Feed client %s connected", conn.RemoteAddr())

	// Read until the client goes away so close frames are handled.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				h.RemoveClient(conn)
				return
			}
		}
	}()
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Broadcast writes ev to every client, dropping the ones that fail.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	var failedMu sync.Mutex
	var failed []*websocket.Conn

	for _, conn := range clients {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			c.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WriteJSON(ev); err != nil {
				failedMu.Lock()
				failed = append(failed, c)
				failedMu.Unlock()
			}
		}(conn)
	}
	wg.Wait()

	for _, conn := range failed {
		h.RemoveClient(conn)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
