package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-attempt-service/internal/domain"
)

var validate = validator.New()

// QuizLoader reads quiz content from a directory of JSON files, one quiz
// per file named {quizID}.json. Every file is validated on ingest; a quiz
// that fails validation never reaches the service.
type QuizLoader struct {
	dir string
}

func NewQuizLoader(dir string) *QuizLoader {
	return &QuizLoader{dir: dir}
}

func (l *QuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	// Quiz IDs come from URLs; refuse anything that could escape the directory.
	if quizID == "" || strings.ContainsAny(quizID, `/\`) || quizID != filepath.Base(quizID) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	data, err := os.ReadFile(filepath.Join(l.dir, quizID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("read quiz %q: %w", quizID, err)
	}
	return parseQuiz(data)
}

func (l *QuizLoader) LoadAllQuizzes(_ context.Context) ([]domain.Quiz, error) {
	files, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read quiz dir %q: %w", l.dir, err)
	}

	quizzes := make([]domain.Quiz, 0, len(files))
	for _, entry := range files {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read quiz file %q: %w", entry.Name(), err)
		}
		quiz, err := parseQuiz(data)
		if err != nil {
			return nil, fmt.Errorf("quiz file %q: %w", entry.Name(), err)
		}
		quizzes = append(quizzes, quiz)
	}

	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

func parseQuiz(data []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if err := validate.Struct(quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("validate quiz %q: %w", quiz.ID, err)
	}
	for i := range quiz.Questions {
		q := quiz.Questions[i]
		if !optionExists(q, q.CorrectOptionID) {
			return domain.Quiz{}, fmt.Errorf("quiz %q question %q: correctOptionId %q not among options", quiz.ID, q.ID, q.CorrectOptionID)
		}
	}
	return quiz, nil
}

func optionExists(q domain.Question, optionID string) bool {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return true
		}
	}
	return false
}
