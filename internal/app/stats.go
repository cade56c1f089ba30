package app

import (
	"math"

	"quiz-attempt-service/internal/domain"
)

var rankThresholds = []struct {
	min  int
	rank domain.Rank
}{
	{95, domain.RankQuizGod},
	{85, domain.RankMaster},
	{70, domain.RankExpert},
	{50, domain.RankSkilled},
}

// RankFor maps an average percentage onto its rank label.
func RankFor(average int) domain.Rank {
	for _, t := range rankThresholds {
		if average >= t.min {
			return t.rank
		}
	}
	return domain.RankLearner
}

// Aggregate summarizes an attempt history. Attempts whose percentage is zero,
// negative or not a finite number do not contribute. The result does not
// depend on the order of attempts.
func Aggregate(attempts []domain.Attempt) domain.Stats {
	var (
		count   int
		sum     int64 // hundredths of a percent, exact regardless of order
		highest float64
		perfect int
	)
	for _, a := range attempts {
		p := a.Percentage
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			continue
		}
		count++
		sum += int64(math.Round(p * 100))
		if p > highest {
			highest = p
		}
		if p == 100 {
			perfect++
		}
	}

	stats := domain.Stats{
		TotalAttempts: count,
		HighestScore:  highest,
		PerfectScores: perfect,
	}
	if count > 0 {
		stats.AverageScore = int(math.Round(float64(sum) / 100 / float64(count)))
	}
	stats.Rank = RankFor(stats.AverageScore)
	return stats
}
