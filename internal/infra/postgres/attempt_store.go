package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-service/internal/domain"
)

const uniqueViolation = "23505"

// AttemptStore is a Postgres-backed implementation of app.AttemptRepository.
// The single-active-attempt invariant is enforced by a partial unique index
// on (user_id, quiz_id) WHERE status = 'active'; concurrent creates for the
// same pair resolve deterministically through the constraint.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) CreateActive(ctx context.Context, attempt domain.Attempt) error {
	order, answers, err := marshalParts(attempt)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO attempts (id, quiz_id, user_id, status, mode, question_order, answers, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.ID, attempt.QuizID, attempt.UserID, string(attempt.Status), string(attempt.Mode),
		order, answers, attempt.StartedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrActiveAttemptExists
	}
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.scanOne(s.pool.QueryRow(ctx, selectAttempt+` WHERE id=$1`, attemptID))
}

func (s *AttemptStore) GetActive(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	return s.scanOne(s.pool.QueryRow(ctx,
		selectAttempt+` WHERE user_id=$1 AND quiz_id=$2 AND status='active'`, userID, quizID))
}

// Update persists answer appends and the completion transition. The WHERE
// clause on status freezes completed rows at the storage layer.
func (s *AttemptStore) Update(ctx context.Context, attempt domain.Attempt) error {
	order, answers, err := marshalParts(attempt)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE attempts
		SET status=$2, question_order=$3, answers=$4, completed_at=$5, score=$6
		WHERE id=$1 AND status='active'`,
		attempt.ID, string(attempt.Status), order, answers, attempt.CompletedAt, attempt.Score,
	)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attempts WHERE id=$1)`, attempt.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check attempt: %w", err)
		}
		if exists {
			return domain.ErrAttemptCompleted
		}
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) ListCompleted(ctx context.Context) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, selectAttempt+` WHERE status='completed'`)
	if err != nil {
		return nil, fmt.Errorf("list completed attempts: %w", err)
	}
	return s.scanMany(rows)
}

func (s *AttemptStore) ListCompletedByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, selectAttempt+` WHERE status='completed' AND quiz_id=$1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list completed attempts: %w", err)
	}
	return s.scanMany(rows)
}

const selectAttempt = `
	SELECT id, quiz_id, user_id, status, mode, question_order, answers, started_at, completed_at, score
	FROM attempts`

func (s *AttemptStore) scanOne(row pgx.Row) (domain.Attempt, error) {
	var (
		attempt     domain.Attempt
		status      string
		mode        string
		order       []byte
		answers     []byte
		completedAt *time.Time
		score       *int
	)
	err := row.Scan(&attempt.ID, &attempt.QuizID, &attempt.UserID, &status, &mode,
		&order, &answers, &attempt.StartedAt, &completedAt, &score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}

	attempt.Status = domain.AttemptStatus(status)
	attempt.Mode = domain.QuizMode(mode)
	attempt.CompletedAt = completedAt
	attempt.Score = score
	if err := json.Unmarshal(order, &attempt.QuestionOrder); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal question order: %w", err)
	}
	if err := json.Unmarshal(answers, &attempt.Answers); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) scanMany(rows pgx.Rows) ([]domain.Attempt, error) {
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		attempt, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func marshalParts(attempt domain.Attempt) ([]byte, []byte, error) {
	order, err := json.Marshal(attempt.QuestionOrder)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal question order: %w", err)
	}
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal answers: %w", err)
	}
	return order, answers, nil
}
