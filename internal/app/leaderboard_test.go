package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newLeaderboardFixture() (*app.LeaderboardService, *memory.AttemptStore) {
	store := memory.NewAttemptStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": testQuiz(),
	}), 5*time.Minute)
	service := app.NewLeaderboardService(store, quizRepo, 1).WithClock(func() time.Time { return fixedNow })
	return service, store
}

func seedCompleted(t *testing.T, store *memory.AttemptStore, id, user, quiz string, score int, completedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	attempt := domain.Attempt{
		ID:            id,
		QuizID:        quiz,
		UserID:        user,
		Status:        domain.AttemptActive,
		Mode:          domain.ModeNormal,
		QuestionOrder: []string{"q1", "q2", "q3", "q4", "q5"},
		Answers:       []domain.Answer{},
		StartedAt:     completedAt.Add(-time.Minute),
	}
	require.NoError(t, store.CreateActive(ctx, attempt))

	attempt.Status = domain.AttemptCompleted
	attempt.CompletedAt = &completedAt
	attempt.Score = &score
	require.NoError(t, store.Update(ctx, attempt))
}

func TestGlobalLeaderboardRanking(t *testing.T) {
	service, store := newLeaderboardFixture()
	base := fixedNow.Add(-time.Hour)

	seedCompleted(t, store, "a1", "carol", "quiz-1", 5, base)
	seedCompleted(t, store, "a2", "alice", "quiz-1", 10, base.Add(time.Minute))
	seedCompleted(t, store, "a3", "bob", "quiz-2", 10, base.Add(2*time.Minute))

	lb, err := service.GetGlobalLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, lb.Entries, 3)
	assert.Equal(t, fixedNow, lb.GeneratedAt)

	// alice and bob tie at 10 and share rank 1 (alice first by name);
	// carol resumes at rank 3 = tied rank + count tied.
	assert.Equal(t, "alice", lb.Entries[0].Username)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, "bob", lb.Entries[1].Username)
	assert.Equal(t, 1, lb.Entries[1].Rank)
	assert.Equal(t, "carol", lb.Entries[2].Username)
	assert.Equal(t, 3, lb.Entries[2].Rank)
}

func TestGlobalLeaderboardCountsDistinctQuizzes(t *testing.T) {
	service, store := newLeaderboardFixture()
	base := fixedNow.Add(-time.Hour)

	seedCompleted(t, store, "a1", "alice", "quiz-1", 3, base)
	seedCompleted(t, store, "a2", "alice", "quiz-1", 5, base.Add(time.Minute))
	seedCompleted(t, store, "a3", "alice", "quiz-2", 4, base.Add(2*time.Minute))

	lb, err := service.GetGlobalLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)

	entry := lb.Entries[0]
	// Both quiz-1 scores count toward the total; quiz-1 counts once.
	assert.Equal(t, 12, entry.TotalScore)
	assert.Equal(t, 2, entry.QuizzesCompleted)
	assert.InDelta(t, 6.0, entry.AverageScore, 1e-9)
}

func TestGlobalLeaderboardEmpty(t *testing.T) {
	service, _ := newLeaderboardFixture()

	lb, err := service.GetGlobalLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lb.Entries)
	assert.Equal(t, fixedNow, lb.GeneratedAt)
}

func TestQuizLeaderboardBestAttemptWins(t *testing.T) {
	service, store := newLeaderboardFixture()
	base := fixedNow.Add(-time.Hour)

	// alice completes quiz-1 twice, 3/5 then 4/5; only the best counts.
	seedCompleted(t, store, "a1", "alice", "quiz-1", 3, base)
	seedCompleted(t, store, "a2", "alice", "quiz-1", 4, base.Add(10*time.Minute))
	seedCompleted(t, store, "a3", "bob", "quiz-1", 4, base.Add(20*time.Minute))

	lb, err := service.GetQuizLeaderboard(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", lb.QuizID)
	assert.Equal(t, "Test Quiz", lb.QuizTitle)
	require.Len(t, lb.Entries, 2)

	// Both hold 4/5 = 80%; alice completed earlier so she lists first,
	// and the equal percentage shares rank 1.
	assert.Equal(t, "alice", lb.Entries[0].Username)
	assert.Equal(t, 4, lb.Entries[0].Score)
	assert.Equal(t, 5, lb.Entries[0].MaxScore)
	assert.InDelta(t, 80.0, lb.Entries[0].Percentage, 1e-9)
	assert.Equal(t, 1, lb.Entries[0].Rank)

	assert.Equal(t, "bob", lb.Entries[1].Username)
	assert.Equal(t, 1, lb.Entries[1].Rank)
}

func TestQuizLeaderboardRanksByPercentage(t *testing.T) {
	service, store := newLeaderboardFixture()
	base := fixedNow.Add(-time.Hour)

	seedCompleted(t, store, "a1", "alice", "quiz-1", 5, base)
	seedCompleted(t, store, "a2", "bob", "quiz-1", 3, base.Add(time.Minute))
	seedCompleted(t, store, "a3", "carol", "quiz-1", 3, base.Add(2*time.Minute))
	seedCompleted(t, store, "a4", "dave", "quiz-1", 1, base.Add(3*time.Minute))

	lb, err := service.GetQuizLeaderboard(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Len(t, lb.Entries, 4)

	assert.Equal(t, []int{1, 2, 2, 4}, []int{
		lb.Entries[0].Rank, lb.Entries[1].Rank, lb.Entries[2].Rank, lb.Entries[3].Rank,
	})
	// bob ties carol at 60% and completed first.
	assert.Equal(t, "bob", lb.Entries[1].Username)
	assert.Equal(t, "carol", lb.Entries[2].Username)
}

func TestQuizLeaderboardUnknownQuiz(t *testing.T) {
	service, _ := newLeaderboardFixture()

	_, err := service.GetQuizLeaderboard(context.Background(), "quiz-404")
	assert.True(t, errors.Is(err, domain.ErrQuizNotFound), "expected quiz not found, got %v", err)
}

func TestLeaderboardHubBroadcastsOnNotify(t *testing.T) {
	service, store := newLeaderboardFixture()
	hub := app.NewLeaderboardHub(service)

	ctx := context.Background()
	updates, cancel, err := hub.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	initial := <-updates
	assert.Empty(t, initial.Entries)

	seedCompleted(t, store, "a1", "alice", "quiz-1", 5, fixedNow.Add(-time.Hour))
	require.NoError(t, hub.Notify(ctx))

	update := <-updates
	require.Len(t, update.Entries, 1)
	assert.Equal(t, "alice", update.Entries[0].Username)
}

func TestLeaderboardHubSnapshotsNeverGoBackwards(t *testing.T) {
	service, store := newLeaderboardFixture()
	hub := app.NewLeaderboardHub(service)
	ctx := context.Background()

	users := []string{"alice", "bob", "carol", "dave"}

	// Subscribers race the broadcasts below. Each one must see its initial
	// snapshot before any later broadcast, so the entry count it observes
	// can only grow.
	const subscribers = 8
	var wg sync.WaitGroup
	violations := make(chan string, subscribers)
	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updates, cancel, err := hub.Subscribe(ctx)
			if err != nil {
				violations <- fmt.Sprintf("subscribe: %v", err)
				return
			}
			defer cancel()

			last := -1
			timeout := time.After(5 * time.Second)
			for {
				select {
				case lb := <-updates:
					if len(lb.Entries) < last {
						violations <- fmt.Sprintf("saw %d entries after %d", len(lb.Entries), last)
						return
					}
					last = len(lb.Entries)
					if last == len(users) {
						return
					}
				case <-timeout:
					violations <- fmt.Sprintf("timed out at %d entries", last)
					return
				}
			}
		}()
	}

	for i, user := range users {
		seedCompleted(t, store, fmt.Sprintf("a%d", i), user, "quiz-1", 5, fixedNow.Add(-time.Hour))
		require.NoError(t, hub.Notify(ctx))
	}

	wg.Wait()
	close(violations)
	for v := range violations {
		t.Error(v)
	}
}
