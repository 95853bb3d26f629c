package broadcast

import (
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
    return &Client{ID: id, Send: make(chan []byte, 4)}
}

func TestPublishReachesOnlySubscribersOfShowing(t *testing.T) {
    h := NewHub()
    a := newTestClient("a")
    b := newTestClient("b")
    h.Register(a)
    h.Register(b)
    h.Subscribe(a, 7)
    h.Subscribe(b, 8)

    h.Publish(Event{Type: EventSeatsHeld, ShowingID: 7, SeatIDs: []uint64{1, 2}, HolderID: 42})

    require.Len(t, a.Send, 1)
    assert.Len(t, b.Send, 0)

    var got Event
    require.NoError(t, json.Unmarshal(<-a.Send, &got))
    assert.Equal(t, EventSeatsHeld, got.Type)
    assert.Equal(t, uint64(7), got.ShowingID)
    assert.Equal(t, []uint64{1, 2}, got.SeatIDs)
    assert.Equal(t, uint64(42), got.HolderID)
}

func TestPublishDropsWhenClientBufferFull(t *testing.T) {
    h := NewHub()
    c := &Client{ID: "slow", Send: make(chan []byte, 1)}
    h.Register(c)
    h.Subscribe(c, 3)

    h.Publish(Event{Type: EventSeatsReleased, ShowingID: 3, SeatIDs: []uint64{5}})
    h.Publish(Event{Type: EventSeatsBooked, ShowingID: 3, SeatIDs: []uint64{5}})

    // Second event dropped instead of blocking the publisher.
    assert.Len(t, c.Send, 1)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
    h := NewHub()
    c := newTestClient("c")
    h.Register(c)
    h.Subscribe(c, 9)
    h.Subscribe(c, 0)

    h.Publish(Event{Type: EventSeatsBooked, ShowingID: 9, SeatIDs: []uint64{1}})
    assert.Len(t, c.Send, 0)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
    h := NewHub()
    c := newTestClient("d")
    h.Register(c)
    h.Unregister(c)
    _, open := <-c.Send
    assert.False(t, open)
    // Double unregister must not panic on the closed channel.
    h.Unregister(c)
}

func TestParseSubscribe(t *testing.T) {
    msg, ok := ParseSubscribe([]byte(`{"action":"subscribe","showing_id":12}`))
    require.True(t, ok)
    assert.Equal(t, uint64(12), msg.ShowingID)

    _, ok = ParseSubscribe([]byte(`{"action":"ping"}`))
    assert.False(t, ok)

    _, ok = ParseSubscribe([]byte(`not json`))
    assert.False(t, ok)
}
