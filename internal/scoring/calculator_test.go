package scoring

import (
	"math"
	"testing"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestCalculate_CountsSumToTotal(t *testing.T) {
	cases := [][]ItemOutcome{
		nil,
		{{IsCorrect: boolPtr(true)}},
		{{IsCorrect: boolPtr(true)}, {IsCorrect: boolPtr(false)}, {IsCorrect: nil}},
		{{IsCorrect: nil}, {IsCorrect: nil}, {IsCorrect: nil}, {IsCorrect: nil}},
		{{IsCorrect: boolPtr(false)}, {IsCorrect: boolPtr(false)}, {IsCorrect: boolPtr(true)}},
	}

	for i, items := range cases {
		r := Calculate(items, nil, nil)
		if r.CorrectCount+r.WrongCount+r.BlankCount != r.TotalQuestions {
			t.Errorf("case %d: counts %d+%d+%d do not sum to total %d",
				i, r.CorrectCount, r.WrongCount, r.BlankCount, r.TotalQuestions)
		}
	}
}

func TestCalculate_EmptyList(t *testing.T) {
	r := Calculate(nil, nil, nil)
	if r.Accuracy != 0 {
		t.Errorf("expected accuracy 0 for empty list, got %v", r.Accuracy)
	}
	if r.AvgTimePerQuestion != 0 {
		t.Errorf("expected avg time 0 for empty list, got %d", r.AvgTimePerQuestion)
	}
}

func TestCalculate_AllCorrect(t *testing.T) {
	items := []ItemOutcome{
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(true)},
	}
	r := Calculate(items, nil, nil)
	if r.Accuracy != 100 {
		t.Errorf("expected accuracy 100, got %v", r.Accuracy)
	}
}

func TestCalculate_MixedWithOverride(t *testing.T) {
	items := []ItemOutcome{
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(false)},
		{IsCorrect: nil},
	}
	r := Calculate(items, intPtr(90), nil)

	if r.TotalQuestions != 3 || r.CorrectCount != 1 || r.WrongCount != 1 || r.BlankCount != 1 {
		t.Fatalf("unexpected counts: %+v", r)
	}
	if math.Abs(r.Accuracy-100.0/3.0) > 1e-9 {
		t.Errorf("expected accuracy 33.33..., got %v", r.Accuracy)
	}
	if r.TotalTimeSeconds != 90 {
		t.Errorf("expected total time 90, got %d", r.TotalTimeSeconds)
	}
	if r.AvgTimePerQuestion != 30 {
		t.Errorf("expected avg time 30, got %d", r.AvgTimePerQuestion)
	}
}

func TestCalculate_ElapsedPrecedence(t *testing.T) {
	items := []ItemOutcome{
		{IsCorrect: boolPtr(true), TimeSpentSeconds: intPtr(10)},
		{IsCorrect: boolPtr(true), TimeSpentSeconds: intPtr(20)},
	}

	// Override wins over stored total and item sum.
	if r := Calculate(items, intPtr(99), intPtr(50)); r.TotalTimeSeconds != 99 {
		t.Errorf("override: expected 99, got %d", r.TotalTimeSeconds)
	}
	// Stored total wins over item sum.
	if r := Calculate(items, nil, intPtr(50)); r.TotalTimeSeconds != 50 {
		t.Errorf("stored: expected 50, got %d", r.TotalTimeSeconds)
	}
	// Fallback: sum of per-item seconds.
	if r := Calculate(items, nil, nil); r.TotalTimeSeconds != 30 {
		t.Errorf("fallback: expected 30, got %d", r.TotalTimeSeconds)
	}
}

func TestCalculate_NegativeElapsedFlooredToZero(t *testing.T) {
	r := Calculate([]ItemOutcome{{IsCorrect: boolPtr(true)}}, intPtr(-5), nil)
	if r.TotalTimeSeconds != 0 {
		t.Errorf("expected 0, got %d", r.TotalTimeSeconds)
	}
}

func TestCalculate_AvgTimeRounds(t *testing.T) {
	items := []ItemOutcome{
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(true)},
	}
	// 100/3 = 33.33 → 33
	if r := Calculate(items, intPtr(100), nil); r.AvgTimePerQuestion != 33 {
		t.Errorf("expected 33, got %d", r.AvgTimePerQuestion)
	}
	// 110/3 = 36.66 → 37
	if r := Calculate(items, intPtr(110), nil); r.AvgTimePerQuestion != 37 {
		t.Errorf("expected 37, got %d", r.AvgTimePerQuestion)
	}
}
