package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// AttemptRepository abstracts how attempts are stored (in-memory, Redis, Postgres).
//
// CreateActive must be atomic with respect to the one-active-attempt-per-
// (user, quiz) invariant: concurrent creates for the same pair must yield
// exactly one success and ErrActiveAttemptExists for the rest.
type AttemptRepository interface {
	CreateActive(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, attemptID string) (domain.Attempt, error)
	GetActive(ctx context.Context, userID, quizID string) (domain.Attempt, error)
	Update(ctx context.Context, attempt domain.Attempt) error
	ListCompleted(ctx context.Context) ([]domain.Attempt, error)
	ListCompletedByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCatalog lists all available quizzes for the catalog endpoints.
type QuizCatalog interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// AttemptService owns the attempt lifecycle: start, answer, complete.
type AttemptService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	points   int
	now      func() time.Time
	newID    func() string

	// onComplete fires after a successful completion transition.
	onComplete func(attempt domain.Attempt)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, pointsPerQuestion int) *AttemptService {
	if pointsPerQuestion <= 0 {
		pointsPerQuestion = 1
	}
	return &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		points:   pointsPerQuestion,
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// WithIDGenerator is test-only for deterministic attempt IDs.
func (s *AttemptService) WithIDGenerator(newID func() string) *AttemptService {
	s.newID = newID
	return s
}

// OnComplete registers a listener invoked after each completion transition.
func (s *AttemptService) OnComplete(fn func(attempt domain.Attempt)) {
	s.onComplete = fn
}

// StartAttempt creates a new active attempt for (userID, quizID). The
// question order is shuffled with a seed derived from the attempt ID, so
// re-reading the attempt always yields the same order while distinct
// attempts get distinct orders.
func (s *AttemptService) StartAttempt(ctx context.Context, userID, quizID string, mode domain.QuizMode) (domain.Attempt, error) {
	switch mode {
	case "":
		mode = domain.ModeNormal
	case domain.ModeNormal, domain.ModeLearn:
	default:
		return domain.Attempt{}, domain.ErrInvalidMode
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}

	id := s.newID()
	attempt := domain.Attempt{
		ID:            id,
		QuizID:        quizID,
		UserID:        userID,
		Status:        domain.AttemptActive,
		Mode:          mode,
		QuestionOrder: domain.ShuffleQuestionOrder(quiz.QuestionIDs(), domain.SeedFromString(id)),
		Answers:       []domain.Answer{},
		StartedAt:     s.now(),
	}

	// The store resolves the check-and-create race; two concurrent starts
	// for the same pair produce exactly one active attempt.
	if err := s.attempts.CreateActive(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// GetAttempt returns the attempt by ID.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.Get(ctx, attemptID)
}

// GetActiveAttempt returns the user's active attempt for a quiz, if any.
func (s *AttemptService) GetActiveAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	return s.attempts.GetActive(ctx, userID, quizID)
}

// SubmitAnswer records an answer on an active attempt. Each question may
// be answered at most once; submissions against completed attempts fail
// without mutating anything.
func (s *AttemptService) SubmitAnswer(ctx context.Context, attemptID, questionID, selectedOptionID string) (domain.AnswerFeedback, error) {
	unlock := s.lockAttempt(attemptID)
	defer unlock()

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.AnswerFeedback{}, err
	}
	if attempt.Status != domain.AttemptActive {
		return domain.AnswerFeedback{}, domain.ErrAttemptCompleted
	}
	if !attempt.InOrder(questionID) {
		return domain.AnswerFeedback{}, domain.ErrQuestionNotFound
	}
	if attempt.HasAnswered(questionID) {
		return domain.AnswerFeedback{}, domain.ErrDuplicateAnswer
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.AnswerFeedback{}, err
	}
	question, ok := quiz.QuestionByID(questionID)
	if !ok {
		return domain.AnswerFeedback{}, domain.ErrQuestionNotFound
	}
	if !hasOption(question, selectedOptionID) {
		return domain.AnswerFeedback{}, domain.ErrInvalidOption
	}

	correct := selectedOptionID == question.CorrectOptionID
	attempt.Answers = append(attempt.Answers, domain.Answer{
		QuestionID:       questionID,
		SelectedOptionID: selectedOptionID,
		IsCorrect:        correct,
		AnsweredAt:       s.now(),
	})
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.AnswerFeedback{}, err
	}

	feedback := domain.AnswerFeedback{QuestionID: questionID, Correct: correct}
	if attempt.Mode == domain.ModeLearn {
		feedback.CorrectOptionID = question.CorrectOptionID
		feedback.Explanation = question.Explanation
		if question.ConceptExplanation != "" {
			feedback.Explanation = question.ConceptExplanation
		}
	}
	return feedback, nil
}

// CompleteAttempt transitions an attempt to completed and freezes it.
// The transition is irreversible; a second completion fails cleanly.
// Completing before all questions are answered is allowed: the score
// covers answered questions only.
func (s *AttemptService) CompleteAttempt(ctx context.Context, attemptID string) (domain.Attempt, domain.ScoreBreakdown, error) {
	unlock := s.lockAttempt(attemptID)
	defer unlock()

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, domain.ScoreBreakdown{}, err
	}
	if attempt.Status != domain.AttemptActive {
		return domain.Attempt{}, domain.ScoreBreakdown{}, domain.ErrAttemptCompleted
	}

	breakdown := domain.CalculateScore(attempt.Answers, s.points)
	completedAt := s.now()
	attempt.Status = domain.AttemptCompleted
	attempt.CompletedAt = &completedAt
	attempt.Score = &breakdown.Score

	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.Attempt{}, domain.ScoreBreakdown{}, err
	}
	s.dropLock(attemptID)

	if s.onComplete != nil {
		s.onComplete(attempt)
	}
	return attempt, breakdown, nil
}

// lockAttempt serializes mutation per attempt ID. Different attempts
// proceed independently.
func (s *AttemptService) lockAttempt(attemptID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[attemptID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[attemptID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *AttemptService) dropLock(attemptID string) {
	s.mu.Lock()
	delete(s.locks, attemptID)
	s.mu.Unlock()
}

func hasOption(q domain.Question, optionID string) bool {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return true
		}
	}
	return false
}
