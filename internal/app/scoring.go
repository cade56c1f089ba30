package app

import (
	"math"

	"quiz-attempt-service/internal/domain"
)

// Score computes the score triple for a play-through. Question i is matched
// against answers[i]; missing answers count as unanswered and extras are ignored.
func Score(quiz domain.Quiz, answers []domain.Answer) domain.Score {
	result := domain.Score{}
	for i, question := range quiz.Questions {
		points := question.Worth()
		result.TotalPoints += points
		if i < len(answers) && answers[i] != domain.Unanswered && int(answers[i]) == question.CorrectIndex {
			result.Score += points
		}
	}
	result.Percentage = Percentage(result.Score, result.TotalPoints)
	return result
}

// Percentage returns score/total scaled to 0-100 and rounded half-up to two
// decimal places, or 0 when total is not positive.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(score) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
