package app

import (
	"context"
	"sort"
	"time"

	"quiz-attempt-service/internal/domain"
)

// LeaderboardService derives ranked leaderboards from the completed-attempt
// corpus. Both projections are recomputed from scratch on every read; no
// incrementally-updated counters are kept, so ranks cannot drift.
type LeaderboardService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	points   int
	now      func() time.Time
}

func NewLeaderboardService(attempts AttemptRepository, quizzes QuizRepository, pointsPerQuestion int) *LeaderboardService {
	if pointsPerQuestion <= 0 {
		pointsPerQuestion = 1
	}
	return &LeaderboardService{
		attempts: attempts,
		quizzes:  quizzes,
		points:   pointsPerQuestion,
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	s.now = now
	return s
}

// GetGlobalLeaderboard aggregates every completed attempt into a ranking by
// total score. Repeat completions of the same quiz add to totalScore but
// the quiz counts once toward quizzesCompleted.
func (s *LeaderboardService) GetGlobalLeaderboard(ctx context.Context) (domain.Leaderboard, error) {
	completed, err := s.attempts.ListCompleted(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	type userTotals struct {
		totalScore int
		quizzes    map[string]struct{}
	}
	totals := make(map[string]*userTotals)
	for _, attempt := range completed {
		agg, ok := totals[attempt.UserID]
		if !ok {
			agg = &userTotals{quizzes: make(map[string]struct{})}
			totals[attempt.UserID] = agg
		}
		if attempt.Score != nil {
			agg.totalScore += *attempt.Score
		}
		agg.quizzes[attempt.QuizID] = struct{}{}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(totals))
	for username, agg := range totals {
		completedCount := len(agg.quizzes)
		average := 0.0
		if completedCount > 0 {
			average = float64(agg.totalScore) / float64(completedCount)
		}
		entries = append(entries, domain.LeaderboardEntry{
			Username:         username,
			TotalScore:       agg.totalScore,
			QuizzesCompleted: completedCount,
			AverageScore:     average,
		})
	}

	// Username breaks ties for a stable listing; it does not split ranks.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		if i > 0 && entries[i].TotalScore == entries[i-1].TotalScore {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{Entries: entries, GeneratedAt: s.now()}, nil
}

// GetQuizLeaderboard ranks users by their best completed attempt for one
// quiz. A user with several completed attempts appears once, at their
// highest score.
func (s *LeaderboardService) GetQuizLeaderboard(ctx context.Context, quizID string) (domain.QuizLeaderboard, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizLeaderboard{}, err
	}
	completed, err := s.attempts.ListCompletedByQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizLeaderboard{}, err
	}

	best := make(map[string]domain.Attempt)
	for _, attempt := range completed {
		if attempt.Score == nil || attempt.CompletedAt == nil {
			continue
		}
		current, ok := best[attempt.UserID]
		if !ok || betterAttempt(attempt, current) {
			best[attempt.UserID] = attempt
		}
	}

	maxScore := len(quiz.Questions) * s.points
	entries := make([]domain.QuizLeaderboardEntry, 0, len(best))
	for username, attempt := range best {
		percentage := 0.0
		if maxScore > 0 {
			percentage = float64(*attempt.Score) / float64(maxScore) * 100
		}
		entries = append(entries, domain.QuizLeaderboardEntry{
			Username:    username,
			Score:       *attempt.Score,
			MaxScore:    maxScore,
			Percentage:  percentage,
			CompletedAt: *attempt.CompletedAt,
		})
	}

	// Earlier completion lists first among equals; only equal percentage
	// shares a rank.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		if !entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].CompletedAt.Before(entries[j].CompletedAt)
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		if i > 0 && entries[i].Percentage == entries[i-1].Percentage {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}

	return domain.QuizLeaderboard{
		QuizID:      quizID,
		QuizTitle:   quiz.Title,
		Entries:     entries,
		GeneratedAt: s.now(),
	}, nil
}

// betterAttempt prefers the higher score, then the earlier completion.
func betterAttempt(candidate, current domain.Attempt) bool {
	if *candidate.Score != *current.Score {
		return *candidate.Score > *current.Score
	}
	return candidate.CompletedAt.Before(*current.CompletedAt)
}
