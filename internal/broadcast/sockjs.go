package broadcast

import (
    "net/http"

    "github.com/google/uuid"
    "github.com/igm/sockjs-go/sockjs"
)

// Handler returns the SockJS endpoint for the realtime channel.  Each
// session becomes one hub client; frames from the client are only ever
// subscribe/unsubscribe commands.  Disconnecting does NOT release the
// client's holds: checkout legitimately navigates away to a gateway's
// hosted page, so reservation liveness is decoupled from connection
// liveness and holds lapse by TTL alone.
func Handler(prefix string, h *Hub) http.Handler {
    return sockjs.NewHandler(prefix, sockjs.DefaultOptions, func(session sockjs.Session) {
        client := &Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
        h.Register(client)
        defer h.Unregister(client)

        go func() {
            for msg := range client.Send {
                _ = session.Send(string(msg))
            }
        }()

        for {
            msg, err := session.Recv()
            if err != nil {
                return
            }
            parsed, ok := ParseSubscribe([]byte(msg))
            if !ok {
                continue
            }
            if parsed.Action == "unsubscribe" {
                h.Subscribe(client, 0)
                continue
            }
            h.Subscribe(client, parsed.ShowingID)
        }
    })
}
