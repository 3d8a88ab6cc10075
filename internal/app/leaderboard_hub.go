package app

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// LeaderboardHub fans freshly recomputed global leaderboards out to
// subscribers. Attempt completion triggers Notify; slow subscribers only
// ever miss intermediate snapshots, never the latest one.
type LeaderboardHub struct {
	service *LeaderboardService

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(service *LeaderboardService) *LeaderboardHub {
	return &LeaderboardHub{
		service:     service,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel that receives leaderboard snapshots, starting
// with the current one. The caller must invoke the returned cancel function
// to avoid leaks.
func (h *LeaderboardHub) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := h.service.GetGlobalLeaderboard(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	// Enqueued under the lock so a concurrent Notify cannot queue a newer
	// snapshot ahead of the initial one.
	ch <- initial
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}

// Notify recomputes the global leaderboard and broadcasts it. Stale queued
// snapshots are dropped so a slow subscriber cannot block the broadcast.
func (h *LeaderboardHub) Notify(ctx context.Context) error {
	lb, err := h.service.GetGlobalLeaderboard(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return nil
}
