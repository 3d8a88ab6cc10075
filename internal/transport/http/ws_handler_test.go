package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"quiz-attempt-service/internal/domain"
)

func TestLeaderboardStream(t *testing.T) {
	h, attempts := newTestHandler(t)
	server := httptest.NewServer(h.Router())
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Initial snapshot on connect: no completions yet.
	lb := readLeaderboard(t, conn)
	require.Empty(t, lb.Entries)

	// Complete an attempt; the stream should push a fresh snapshot.
	ctx := context.Background()
	attempt, err := attempts.StartAttempt(ctx, "alice", "quiz-1", domain.ModeNormal)
	require.NoError(t, err)
	_, err = attempts.SubmitAnswer(ctx, attempt.ID, "q1", "o2")
	require.NoError(t, err)
	_, _, err = attempts.CompleteAttempt(ctx, attempt.ID)
	require.NoError(t, err)

	lb = readLeaderboard(t, conn)
	require.Len(t, lb.Entries, 1)
	require.Equal(t, "alice", lb.Entries[0].Username)
	require.Equal(t, 1, lb.Entries[0].TotalScore)
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "leaderboard", msg.Type)

	var lb domain.Leaderboard
	require.NoError(t, json.Unmarshal(msg.Payload, &lb))
	return lb
}
