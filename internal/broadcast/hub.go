// Package broadcast implements the per-showing publish/subscribe
// channel that pushes hold/release/booked events to connected clients.
// Delivery is best-effort and at-most-once: the authoritative seat
// state always comes from the database via the availability resolver,
// and a client that reconnects is expected to refetch it.
package broadcast

import (
    "encoding/json"
    "log"
    "sync"
)

// Event types pushed to subscribers of a showing's topic.
const (
    EventSeatsHeld    = "seats.held"
    EventSeatsReleased = "seats.released"
    EventSeatsBooked  = "seats.booked"
)

// Event is the wire envelope delivered to subscribers.  HolderID is
// only present on held events so competing clients can distinguish
// their own holds from foreign ones.
type Event struct {
    Type      string   `json:"type"`
    ShowingID uint64   `json:"showing_id"`
    SeatIDs   []uint64 `json:"seat_ids"`
    HolderID  uint64   `json:"holder_id,omitempty"`
}

// Client is one connected realtime session.  Send is drained by the
// transport goroutine; the hub never blocks on it.
type Client struct {
    ID        string
    Send      chan []byte
    showingID uint64
}

// Hub fans events out to the clients subscribed to each showing.  A
// client subscribes to at most one showing at a time, which matches
// the seat-picker UI: navigating to another showing resubscribes.
type Hub struct {
    mu      sync.RWMutex
    clients map[string]*Client
}

// NewHub returns an empty hub.
func NewHub() *Hub {
    return &Hub{clients: make(map[string]*Client)}
}

// Register adds a client to the hub.  The client receives nothing
// until it subscribes to a showing.
func (h *Hub) Register(c *Client) {
    h.mu.Lock()
    defer h.mu.Unlock()
    h.clients[c.ID] = c
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
    h.mu.Lock()
    defer h.mu.Unlock()
    if _, ok := h.clients[c.ID]; !ok {
        return
    }
    delete(h.clients, c.ID)
    close(c.Send)
}

// Subscribe points the client at a showing's topic; showing ID zero
// unsubscribes.
func (h *Hub) Subscribe(c *Client, showingID uint64) {
    h.mu.Lock()
    defer h.mu.Unlock()
    c.showingID = showingID
}

// Publish delivers the event to every client subscribed to its
// showing.  Sends never block: a client whose buffer is full has the
// message dropped, because it will re-derive truth from storage anyway.
func (h *Hub) Publish(ev Event) {
    payload, err := json.Marshal(ev)
    if err != nil {
        log.Printf("broadcast: marshal event failed: %v", err)
        return
    }
    h.mu.RLock()
    defer h.mu.RUnlock()
    for _, c := range h.clients {
        if c.showingID != ev.ShowingID {
            continue
        }
        select {
        case c.Send <- payload:
        default:
            log.Printf("broadcast: drop event for client %s", c.ID)
        }
    }
}

// SubscribeMessage is what clients send over the realtime transport to
// pick a showing topic.
type SubscribeMessage struct {
    Action    string `json:"action"`
    ShowingID uint64 `json:"showing_id"`
}

// ParseSubscribe decodes a client frame.  It returns false for frames
// that are not subscribe/unsubscribe commands; unknown frames are
// ignored by the session loop.
func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
    var msg SubscribeMessage
    if err := json.Unmarshal(data, &msg); err != nil {
        return SubscribeMessage{}, false
    }
    if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
        return SubscribeMessage{}, false
    }
    return msg, true
}
