package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

type activeKey struct {
	userID string
	quizID string
}

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// A single mutex covers both the attempt map and the active index, which
// makes the check-and-create in CreateActive atomic.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
	active   map[activeKey]string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]domain.Attempt),
		active:   make(map[activeKey]string),
	}
}

func (s *AttemptStore) CreateActive(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := activeKey{userID: attempt.UserID, quizID: attempt.QuizID}
	if _, ok := s.active[key]; ok {
		return domain.ErrActiveAttemptExists
	}
	s.active[key] = attempt.ID
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) GetActive(_ context.Context, userID, quizID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[activeKey{userID: userID, quizID: quizID}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(s.attempts[id]), nil
}

func (s *AttemptStore) Update(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.attempts[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	// Completed attempts are frozen at the storage layer as well.
	if stored.Status == domain.AttemptCompleted {
		return domain.ErrAttemptCompleted
	}

	s.attempts[attempt.ID] = cloneAttempt(attempt)
	if attempt.Status == domain.AttemptCompleted {
		delete(s.active, activeKey{userID: attempt.UserID, quizID: attempt.QuizID})
	}
	return nil
}

func (s *AttemptStore) ListCompleted(_ context.Context) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.Status == domain.AttemptCompleted {
			completed = append(completed, cloneAttempt(attempt))
		}
	}
	return completed, nil
}

func (s *AttemptStore) ListCompletedByQuiz(_ context.Context, quizID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.Status == domain.AttemptCompleted && attempt.QuizID == quizID {
			completed = append(completed, cloneAttempt(attempt))
		}
	}
	return completed, nil
}

// cloneAttempt keeps stored attempts isolated from caller mutation.
func cloneAttempt(a domain.Attempt) domain.Attempt {
	clone := a
	clone.QuestionOrder = append([]string(nil), a.QuestionOrder...)
	clone.Answers = append([]domain.Answer(nil), a.Answers...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		clone.CompletedAt = &t
	}
	if a.Score != nil {
		v := *a.Score
		clone.Score = &v
	}
	return clone
}
