package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-attempt-service/internal/domain"
)

const validQuizJSON = `{
  "id": "quiz-1",
  "title": "Sample",
  "description": "desc",
  "metadata": {"difficulty": "beginner", "estimatedMinutes": 5, "tags": []},
  "questions": [
    {
      "id": "q1",
      "text": "What is 2 + 2?",
      "options": [{"id": "o1", "text": "3"}, {"id": "o2", "text": "4"}],
      "correctOptionId": "o2"
    }
  ]
}`

func writeQuiz(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write quiz file: %v", err)
	}
}

func TestLoadQuizFromFile(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "quiz-1.json", validQuizJSON)

	loader := NewQuizLoader(dir)
	quiz, err := loader.LoadQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if quiz.ID != "quiz-1" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
}

func TestLoadQuizUnknownID(t *testing.T) {
	loader := NewQuizLoader(t.TempDir())
	if _, err := loader.LoadQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestLoadQuizRefusesPathTraversal(t *testing.T) {
	loader := NewQuizLoader(t.TempDir())
	if _, err := loader.LoadQuiz(context.Background(), "../secrets"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestLoadQuizRejectsInvalidSchema(t *testing.T) {
	dir := t.TempDir()
	// Single option: violates the minimum of two.
	writeQuiz(t, dir, "bad.json", `{
	  "id": "bad",
	  "title": "Bad",
	  "metadata": {"difficulty": "beginner", "estimatedMinutes": 5, "tags": []},
	  "questions": [
	    {"id": "q1", "text": "?", "options": [{"id": "o1", "text": "only"}], "correctOptionId": "o1"}
	  ]
	}`)

	loader := NewQuizLoader(dir)
	if _, err := loader.LoadQuiz(context.Background(), "bad"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadQuizRejectsDanglingCorrectOption(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "bad.json", `{
	  "id": "bad",
	  "title": "Bad",
	  "metadata": {"difficulty": "beginner", "estimatedMinutes": 5, "tags": []},
	  "questions": [
	    {"id": "q1", "text": "?", "options": [{"id": "o1", "text": "a"}, {"id": "o2", "text": "b"}], "correctOptionId": "o9"}
	  ]
	}`)

	loader := NewQuizLoader(dir)
	if _, err := loader.LoadQuiz(context.Background(), "bad"); err == nil {
		t.Fatal("expected dangling correctOptionId to be rejected")
	}
}

func TestLoadAllQuizzesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "quiz-b.json", `{
	  "id": "quiz-b",
	  "title": "B",
	  "metadata": {"difficulty": "beginner", "estimatedMinutes": 5, "tags": []},
	  "questions": [
	    {"id": "q1", "text": "?", "options": [{"id": "o1", "text": "a"}, {"id": "o2", "text": "b"}], "correctOptionId": "o1"}
	  ]
	}`)
	writeQuiz(t, dir, "quiz-a.json", `{
	  "id": "quiz-a",
	  "title": "A",
	  "metadata": {"difficulty": "advanced", "estimatedMinutes": 10, "tags": ["x"]},
	  "questions": [
	    {"id": "q1", "text": "?", "options": [{"id": "o1", "text": "a"}, {"id": "o2", "text": "b"}], "correctOptionId": "o2"}
	  ]
	}`)
	writeQuiz(t, dir, "notes.txt", "not a quiz")

	loader := NewQuizLoader(dir)
	quizzes, err := loader.LoadAllQuizzes(context.Background())
	if err != nil {
		t.Fatalf("load all failed: %v", err)
	}
	if len(quizzes) != 2 || quizzes[0].ID != "quiz-a" || quizzes[1].ID != "quiz-b" {
		t.Fatalf("expected sorted catalog [quiz-a quiz-b], got %+v", quizzes)
	}
}
