package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore is a Redis-backed implementation of app.AttemptRepository.
//
// Layout:
//
//	attempt:{id}                        JSON document of the attempt
//	attempt:active:{userID}:{quizID}    active attempt ID, created with SETNX
//	attempt:completed                   set of completed attempt IDs
//	attempt:completed:quiz:{quizID}     set of completed attempt IDs per quiz
//
// SETNX on the active key resolves the check-and-create race: exactly one
// of two concurrent starts for the same (user, quiz) pair wins.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) CreateActive(ctx context.Context, attempt domain.Attempt) error {
	created, err := s.client.SetNX(ctx, activeKey(attempt.UserID, attempt.QuizID), attempt.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("mark active attempt: %w", err)
	}
	if !created {
		return domain.ErrActiveAttemptExists
	}

	if err := s.writeAttempt(ctx, attempt); err != nil {
		// Roll the claim back so a later start is not locked out forever.
		_ = s.client.Del(ctx, activeKey(attempt.UserID, attempt.QuizID)).Err()
		return err
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	raw, err := s.client.Get(ctx, attemptKey(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}

	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) GetActive(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	id, err := s.client.Get(ctx, activeKey(userID, quizID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("resolve active attempt: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *AttemptStore) Update(ctx context.Context, attempt domain.Attempt) error {
	stored, err := s.Get(ctx, attempt.ID)
	if err != nil {
		return err
	}
	if stored.Status == domain.AttemptCompleted {
		return domain.ErrAttemptCompleted
	}

	if err := s.writeAttempt(ctx, attempt); err != nil {
		return err
	}
	if attempt.Status == domain.AttemptCompleted {
		pipe := s.client.Pipeline()
		pipe.Del(ctx, activeKey(attempt.UserID, attempt.QuizID))
		pipe.SAdd(ctx, completedKey, attempt.ID)
		pipe.SAdd(ctx, completedQuizKey(attempt.QuizID), attempt.ID)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("index completed attempt: %w", err)
		}
	}
	return nil
}

func (s *AttemptStore) ListCompleted(ctx context.Context) ([]domain.Attempt, error) {
	return s.listSet(ctx, completedKey)
}

func (s *AttemptStore) ListCompletedByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.listSet(ctx, completedQuizKey(quizID))
}

func (s *AttemptStore) listSet(ctx context.Context, setKey string) ([]domain.Attempt, error) {
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list completed attempts: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Attempt{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = attemptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load completed attempts: %w", err)
	}

	attempts := make([]domain.Attempt, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var attempt domain.Attempt
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal completed attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (s *AttemptStore) writeAttempt(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, attemptKey(attempt.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("store attempt: %w", err)
	}
	return nil
}

const completedKey = "attempt:completed"

func attemptKey(attemptID string) string {
	return "attempt:" + attemptID
}

func activeKey(userID, quizID string) string {
	return "attempt:active:" + userID + ":" + quizID
}

func completedQuizKey(quizID string) string {
	return "attempt:completed:quiz:" + quizID
}
