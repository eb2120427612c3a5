// Package eventstream forwards RenderQ's internal event bus to connected
// HTTP clients over Server-Sent Events: one goroutine per client, best-effort
// delivery, silently dropping a client whose connection has gone away.
package eventstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/log"
)

// Client is one connected event-stream consumer.
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}
}

// Broadcaster owns the set of connected clients and forwards every event
// published on the bus to each of them. It is constructed once at
// coordinator start and passed by reference, never a package-level global.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*Client
	bus     *events.Bus
	sub     events.Subscriber
	stopCh  chan struct{}
}

// NewBroadcaster creates a Broadcaster subscribed to bus.
func NewBroadcaster(bus *events.Bus) *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*Client),
		bus:     bus,
		sub:     bus.Subscribe(),
		stopCh:  make(chan struct{}),
	}
}

// Start begins forwarding bus events to connected clients.
func (b *Broadcaster) Start() {
	go b.run()
}

// Stop unsubscribes from the bus and stops forwarding. Connected clients are
// left to observe their request context being cancelled.
func (b *Broadcaster) Stop() {
	close(b.stopCh)
	b.bus.Unsubscribe(b.sub)
}

func (b *Broadcaster) run() {
	for {
		select {
		case event := <-b.sub:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broadcaster) broadcast(event *events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Logger.Error().Err(err).Msg("failed to marshal event for stream")
		return
	}

	var failed []string
	b.mu.RLock()
	for id, client := range b.clients {
		if !writeFrame(client, payload) {
			log.Logger.Debug().Str("client_id", id).Msg("dropping unresponsive event stream client")
			failed = append(failed, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range failed {
		b.RemoveClient(id)
	}
}

func writeFrame(client *Client, payload []byte) bool {
	if _, err := fmt.Fprintf(client.Writer, "data: %s\n\n", payload); err != nil {
		return false
	}
	client.Flusher.Flush()
	return true
}

// AddClient registers w as a new SSE client and writes the SSE response
// headers. Returns an error if w does not support flushing.
func (b *Broadcaster) AddClient(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("eventstream: response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &Client{
		ID:      uuid.NewString(),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[client.ID] = client
	b.mu.Unlock()

	return client, nil
}

// RemoveClient unregisters a client by id, closing its Done channel.
func (b *Broadcaster) RemoveClient(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, ok := b.clients[id]
	if !ok {
		return
	}
	close(client.Done)
	delete(b.clients, id)
}

// ClientCount returns the number of currently connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// KeepAlive sends a periodic ping frame to every connected client so
// intermediate proxies don't time out the connection; this is the
// coordinator side of the "client keepalive pings are echoed" contract —
// clients treat any frame, ping included, as liveness and may re-arm their
// own idle timers from it.
func (b *Broadcaster) KeepAlive(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			event := &events.Event{Type: "ping", Data: nil, Timestamp: time.Now()}
			b.broadcast(event)
		}
	}
}
