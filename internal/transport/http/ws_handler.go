package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// serveLeaderboardWS streams global leaderboard snapshots: the current one
// on connect, then a fresh one each time any attempt completes.
func (h *Handler) serveLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel, err := h.hub.Subscribe(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[map[string]string]{
			Type:    "error",
			Payload: map[string]string{"message": err.Error()},
		})
		return
	}
	defer cancel()

	done := make(chan struct{})

	// Reads are discarded; the socket is one-way. The read loop exists to
	// detect the peer closing the connection.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: update}); err != nil {
				h.log.WithError(err).Debug("ws write error")
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
