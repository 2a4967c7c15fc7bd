package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is one progress update mirrored to connected dashboard clients.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Broadcaster is a local websocket server that mirrors Spinner events
// to any connected out-of-process dashboard (§4.J). Grounded on the
// teacher's streaming client (pkg/progress/streaming.go), inverted: the
// CLI process is the event source here, not the consumer, since a CLI
// invocation has no server counterpart to poll.
//
// Publish never blocks a pipeline stage: the event channel is buffered
// and drops the oldest pending event on backpressure (§5).
type Broadcaster struct {
	upgrader websocket.Upgrader
	events   chan Event

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

const eventBufferSize = 64

// NewBroadcaster constructs a Broadcaster. Mount it as an http.Handler
// (ServeHTTP) to accept dashboard connections and call Run to start
// fanning events out.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		events:  make(chan Event, eventBufferSize),
		clients: map[*websocket.Conn]struct{}{},
	}
}

// ServeHTTP upgrades a dashboard's HTTP connection to a websocket and
// registers it to receive future events.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()
}

// Publish enqueues an event for delivery, dropping the oldest queued
// event rather than blocking the caller when the buffer is full.
func (b *Broadcaster) Publish(e Event) {
	select {
	case b.events <- e:
	default:
		select {
		case <-b.events:
		default:
		}
		select {
		case b.events <- e:
		default:
		}
	}
}

// Run drains published events to every connected client until stop is
// closed. Intended to run in its own goroutine (§5).
func (b *Broadcaster) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case e := <-b.events:
			b.broadcast(e)
		}
	}
}

func (b *Broadcaster) broadcast(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("progress: failed to marshal event: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}
