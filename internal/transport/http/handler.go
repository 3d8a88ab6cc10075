package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// Handler exposes the REST surface over the attempt and leaderboard services.
type Handler struct {
	attempts     *app.AttemptService
	leaderboards *app.LeaderboardService
	hub          *app.LeaderboardHub
	quizzes      app.QuizRepository
	catalog      app.QuizCatalog
	log          *logrus.Logger
}

func NewHandler(
	attempts *app.AttemptService,
	leaderboards *app.LeaderboardService,
	hub *app.LeaderboardHub,
	quizzes app.QuizRepository,
	catalog app.QuizCatalog,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		attempts:     attempts,
		leaderboards: leaderboards,
		hub:          hub,
		quizzes:      quizzes,
		catalog:      catalog,
		log:          log,
	}
}

// Router builds the chi router with CORS, request logging, and all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", sessionHeader},
	}))
	r.Use(h.requestLogger)

	r.Get("/api/health", h.health)
	r.Route("/api/quizzes", func(r chi.Router) {
		r.Get("/", h.listQuizzes)
		r.Get("/{quizID}", h.getQuiz)
		r.Get("/{quizID}/leaderboard", h.quizLeaderboard)
		r.Post("/{quizID}/attempts", h.startAttempt)
		r.Get("/{quizID}/attempts/active", h.activeAttempt)
	})
	r.Route("/api/attempts", func(r chi.Router) {
		r.Get("/{attemptID}", h.getAttempt)
		r.Post("/{attemptID}/answers", h.submitAnswer)
		r.Post("/{attemptID}/complete", h.completeAttempt)
	})
	r.Get("/api/leaderboard", h.globalLeaderboard)
	r.Get("/ws/leaderboard", h.serveLeaderboardWS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, domain.QuizSummary{
			ID:            quiz.ID,
			Title:         quiz.Title,
			Description:   quiz.Description,
			Metadata:      quiz.Metadata,
			QuestionCount: len(quiz.Questions),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

type startAttemptRequest struct {
	Mode domain.QuizMode `json:"mode"`
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromRequest(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req startAttemptRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	attempt, err := h.attempts.StartAttempt(r.Context(), session.Username, chi.URLParam(r, "quizID"), req.Mode)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

// activeAttempt lets a client resume its in-progress attempt after a
// reload instead of hitting the start conflict.
func (h *Handler) activeAttempt(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromRequest(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	attempt, err := h.attempts.GetActiveAttempt(r.Context(), session.Username, chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.attempts.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

type submitAnswerRequest struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" || req.SelectedOptionID == "" {
		writeError(w, http.StatusBadRequest, "questionId and selectedOptionId are required")
		return
	}

	feedback, err := h.attempts.SubmitAnswer(r.Context(), chi.URLParam(r, "attemptID"), req.QuestionID, req.SelectedOptionID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

type completeAttemptResponse struct {
	Attempt   domain.Attempt        `json:"attempt"`
	Breakdown domain.ScoreBreakdown `json:"breakdown"`
}

func (h *Handler) completeAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, breakdown, err := h.attempts.CompleteAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeAttemptResponse{Attempt: attempt, Breakdown: breakdown})
}

func (h *Handler) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboards.GetGlobalLeaderboard(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) quizLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboards.GetQuizLeaderboard(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("internal error")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrActiveAttemptExists),
		errors.Is(err, domain.ErrAttemptCompleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrDuplicateAnswer):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
