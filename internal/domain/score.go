package domain

// ScoreBreakdown summarizes a set of answers.
type ScoreBreakdown struct {
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
	Score          int     `json:"score"`
	MaxScore       int     `json:"maxScore"`
	Percentage     float64 `json:"percentage"`
}

// CalculateScore converts answers into a score breakdown. A non-positive
// pointsPerQuestion defaults to 1. Zero answers yields all-zero metrics.
func CalculateScore(answers []Answer, pointsPerQuestion int) ScoreBreakdown {
	if pointsPerQuestion <= 0 {
		pointsPerQuestion = 1
	}

	correct := 0
	for i := range answers {
		if answers[i].IsCorrect {
			correct++
		}
	}

	total := len(answers)
	score := correct * pointsPerQuestion
	maxScore := total * pointsPerQuestion

	percentage := 0.0
	if total > 0 {
		percentage = float64(score) / float64(maxScore) * 100
	}

	return ScoreBreakdown{
		TotalQuestions: total,
		CorrectAnswers: correct,
		Score:          score,
		MaxScore:       maxScore,
		Percentage:     percentage,
	}
}
