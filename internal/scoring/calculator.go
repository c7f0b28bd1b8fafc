// Package scoring computes aggregate results for a finished attempt.
// It is pure: no I/O, no clock reads, fully deterministic.
package scoring

import "math"

// ItemOutcome is the graded outcome of a single attempt item.
// IsCorrect is tri-state: true, false, or nil (unanswered/ungraded).
type ItemOutcome struct {
	IsCorrect        *bool
	TimeSpentSeconds *int
}

// Result is the aggregate score persisted on a completed attempt.
type Result struct {
	TotalQuestions     int     `json:"total_questions"`
	CorrectCount       int     `json:"correct_count"`
	WrongCount         int     `json:"wrong_count"`
	BlankCount         int     `json:"blank_count"`
	Accuracy           float64 `json:"accuracy"`
	TotalTimeSeconds   int     `json:"total_time_seconds"`
	AvgTimePerQuestion int     `json:"avg_time_per_question"`
}

// Calculate aggregates graded items into a Result.
//
// Elapsed time precedence: elapsedOverride > storedTotal > sum of per-item
// TimeSpentSeconds. The resolved total is floored at zero.
func Calculate(items []ItemOutcome, elapsedOverride, storedTotal *int) Result {
	r := Result{TotalQuestions: len(items)}

	itemSum := 0
	for _, it := range items {
		switch {
		case it.IsCorrect == nil:
			r.BlankCount++
		case *it.IsCorrect:
			r.CorrectCount++
		default:
			r.WrongCount++
		}
		if it.TimeSpentSeconds != nil {
			itemSum += *it.TimeSpentSeconds
		}
	}

	switch {
	case elapsedOverride != nil:
		r.TotalTimeSeconds = *elapsedOverride
	case storedTotal != nil:
		r.TotalTimeSeconds = *storedTotal
	default:
		r.TotalTimeSeconds = itemSum
	}
	if r.TotalTimeSeconds < 0 {
		r.TotalTimeSeconds = 0
	}

	if r.TotalQuestions > 0 {
		r.Accuracy = float64(r.CorrectCount) / float64(r.TotalQuestions) * 100
		r.AvgTimePerQuestion = int(math.Round(float64(r.TotalTimeSeconds) / float64(r.TotalQuestions)))
	}

	return r
}
