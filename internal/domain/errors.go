package domain

import "errors"

var (
	// ErrActiveAttemptExists is returned when a user already has an active attempt for the quiz.
	ErrActiveAttemptExists = errors.New("active attempt already exists for this quiz")
	// ErrAttemptNotFound indicates an unknown attempt ID.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted is returned when mutating an attempt that is no longer active.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the attempt.
	ErrQuestionNotFound = errors.New("question not found in attempt")
	// ErrDuplicateAnswer is returned when a question has already been answered in the attempt.
	ErrDuplicateAnswer = errors.New("question already answered")
	// ErrInvalidOption indicates the selected option is not among the question's options.
	ErrInvalidOption = errors.New("selected option is not valid for this question")
	// ErrInvalidMode indicates an unknown quiz mode.
	ErrInvalidMode = errors.New("invalid quiz mode")
	// ErrInvalidSession indicates a missing or malformed session credential.
	ErrInvalidSession = errors.New("invalid session credential")
)
