package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID                 string   `json:"id" validate:"required"`
	Text               string   `json:"text" validate:"required"`
	Options            []Option `json:"options" validate:"min=2,dive"`
	CorrectOptionID    string   `json:"correctOptionId" validate:"required"`
	Explanation        string   `json:"explanation,omitempty"`
	ConceptExplanation string   `json:"conceptExplanation,omitempty"` // shown in learn mode
}

// QuizMetadata describes catalog-level attributes of a quiz.
type QuizMetadata struct {
	Difficulty       string   `json:"difficulty" validate:"oneof=beginner intermediate advanced"`
	EstimatedMinutes int      `json:"estimatedMinutes" validate:"gt=0"`
	Tags             []string `json:"tags"`
}

// Quiz is immutable content loaded from a backing store.
type Quiz struct {
	ID          string       `json:"id" validate:"required"`
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	Questions   []Question   `json:"questions" validate:"min=1,dive"`
	Metadata    QuizMetadata `json:"metadata"`
}

// QuestionIDs returns the quiz's question IDs in content order.
func (q Quiz) QuestionIDs() []string {
	ids := make([]string, len(q.Questions))
	for i := range q.Questions {
		ids[i] = q.Questions[i].ID
	}
	return ids
}

// QuestionByID looks up a question by ID; ok is false if absent.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return q.Questions[i], true
		}
	}
	return Question{}, false
}

// QuizSummary is the listing view of a quiz without question content.
type QuizSummary struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Metadata      QuizMetadata `json:"metadata"`
	QuestionCount int          `json:"questionCount"`
}

// Session is the opaque credential supplied by the caller. The service
// treats Username as the user ID and performs no authentication.
type Session struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
}

// AttemptStatus enumerates the two attempt lifecycle states.
type AttemptStatus string

const (
	AttemptActive    AttemptStatus = "active"
	AttemptCompleted AttemptStatus = "completed"
)

// QuizMode selects answer feedback behavior.
type QuizMode string

const (
	ModeNormal QuizMode = "normal"
	ModeLearn  QuizMode = "learn"
)

// Answer records a user's response to a single question.
type Answer struct {
	QuestionID       string    `json:"questionId"`
	SelectedOptionID string    `json:"selectedOptionId"`
	IsCorrect        bool      `json:"isCorrect"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

// Attempt is a single run of a quiz by a user.
//
// Rules:
//   - one active attempt per (user, quiz) pair
//   - QuestionOrder is fixed at creation and never changes
//   - completed attempts are immutable
type Attempt struct {
	ID            string        `json:"id"`
	QuizID        string        `json:"quizId"`
	UserID        string        `json:"userId"`
	Status        AttemptStatus `json:"status"`
	Mode          QuizMode      `json:"mode"`
	QuestionOrder []string      `json:"questionOrder"`
	Answers       []Answer      `json:"answers"`
	StartedAt     time.Time     `json:"startedAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	Score         *int          `json:"score,omitempty"`
}

// HasAnswered reports whether the attempt already holds an answer for questionID.
func (a Attempt) HasAnswered(questionID string) bool {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return true
		}
	}
	return false
}

// InOrder reports whether questionID belongs to the attempt's question order.
func (a Attempt) InOrder(questionID string) bool {
	for _, id := range a.QuestionOrder {
		if id == questionID {
			return true
		}
	}
	return false
}

// AnswerFeedback is returned to the caller after a submission. The correct
// option and explanation are revealed only in learn mode.
type AnswerFeedback struct {
	QuestionID      string `json:"questionId"`
	Correct         bool   `json:"correct"`
	CorrectOptionID string `json:"correctOptionId,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
}

// LeaderboardEntry is one row of the global leaderboard.
type LeaderboardEntry struct {
	Username         string  `json:"username"`
	TotalScore       int     `json:"totalScore"`
	QuizzesCompleted int     `json:"quizzesCompleted"`
	AverageScore     float64 `json:"averageScore"`
	Rank             int     `json:"rank"`
}

// Leaderboard is the global ranking across all completed attempts.
type Leaderboard struct {
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// QuizLeaderboardEntry is one row of a per-quiz leaderboard.
type QuizLeaderboardEntry struct {
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
	Rank        int       `json:"rank"`
}

// QuizLeaderboard ranks users by their best completed attempt for one quiz.
type QuizLeaderboard struct {
	QuizID      string                 `json:"quizId"`
	QuizTitle   string                 `json:"quizTitle"`
	Entries     []QuizLeaderboardEntry `json:"entries"`
	GeneratedAt time.Time              `json:"generatedAt"`
}
