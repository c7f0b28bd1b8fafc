package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/rs/zerolog"
)

func newTryoutFixture(t *testing.T) (*TryoutService, *memAttempts, uuid.UUID, uuid.UUID) {
	t.Helper()
	return newTryoutFixtureWithClock(t, newMemClock())
}

func newTryoutFixtureWithClock(t *testing.T, clock *memClock) (*TryoutService, *memAttempts, uuid.UUID, uuid.UUID) {
	t.Helper()

	subtestA := uuid.New()
	subtestB := uuid.New()
	questions := &memQuestions{bySubtest: map[uuid.UUID][]model.Question{}}
	opt := "A"
	for _, st := range []uuid.UUID{subtestA, subtestB} {
		for i := 0; i < 3; i++ {
			questions.bySubtest[st] = append(questions.bySubtest[st], model.Question{
				ID:            uuid.New(),
				SubtestID:     st,
				QuestionType:  model.QuestionSingleChoice,
				Content:       "soal",
				CorrectOption: &opt,
			})
		}
	}

	bp := &model.Blueprint{
		ID:     uuid.New(),
		ExamID: uuid.New(),
		Status: model.BlueprintStatusActive,
		Sections: []model.BlueprintSection{
			{SubtestID: subtestA, OrderNum: 0, QuestionCount: 3, DurationSeconds: 600},
			{SubtestID: subtestB, OrderNum: 1, QuestionCount: 3, DurationSeconds: 900},
		},
	}
	blueprints := &memBlueprints{byID: map[uuid.UUID]*model.Blueprint{bp.ID: bp}}

	attempts := newMemAttempts()
	svc := NewTryoutService(attempts, questions, blueprints, clock, zerolog.Nop())

	return svc, attempts, bp.ID, uuid.New()
}

func TestTryoutStartSection_RetryIsSuccess(t *testing.T) {
	svc, attempts, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}
	attemptID := detail.Attempt.ID

	state1, err := svc.StartSection(ctx, userID, attemptID, 0)
	if err != nil {
		t.Fatalf("first start section: %v", err)
	}
	a1, _, _ := attempts.GetWithItems(ctx, attemptID)
	firstStart := a1.ConfigSnapshot.SectionStartedAt
	if firstStart == nil {
		t.Fatal("section start timestamp not set")
	}

	// Retry after a lost response must succeed without moving the clock.
	state2, err := svc.StartSection(ctx, userID, attemptID, 0)
	if err != nil {
		t.Fatalf("retried start section: %v", err)
	}
	a2, _, _ := attempts.GetWithItems(ctx, attemptID)
	if !a2.ConfigSnapshot.SectionStartedAt.Equal(*firstStart) {
		t.Errorf("retry moved the clock: %v -> %v", firstStart, a2.ConfigSnapshot.SectionStartedAt)
	}
	if state1.Section.OrderNum != state2.Section.OrderNum {
		t.Errorf("retry changed section: %d -> %d", state1.Section.OrderNum, state2.Section.OrderNum)
	}
}

func TestTryoutStartSection_WrongIndexRejected(t *testing.T) {
	svc, _, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}

	if _, err := svc.StartSection(ctx, userID, detail.Attempt.ID, 1); !errors.Is(err, ErrSectionOrder) {
		t.Errorf("expected ErrSectionOrder for future section, got %v", err)
	}
}

func TestTryoutAdvancePastLastSection_Finalizes(t *testing.T) {
	svc, attempts, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}
	attemptID := detail.Attempt.ID

	for idx := 0; idx < 2; idx++ {
		if _, err := svc.StartSection(ctx, userID, attemptID, idx); err != nil {
			t.Fatalf("start section %d: %v", idx, err)
		}
		if _, err := svc.AdvanceSection(ctx, userID, attemptID, idx); err != nil {
			t.Fatalf("advance section %d: %v", idx, err)
		}
	}

	a, _, _ := attempts.GetWithItems(ctx, attemptID)
	if a.Status != model.AttemptCompleted {
		t.Errorf("expected completed after last section, got %s", a.Status)
	}
	if a.Results == nil {
		t.Error("expected results to be sealed")
	}
}

func TestTryoutCalculateResults_Idempotent(t *testing.T) {
	svc, _, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}
	attemptID := detail.Attempt.ID

	if _, err := svc.StartSection(ctx, userID, attemptID, 0); err != nil {
		t.Fatalf("start section: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, userID, attemptID, detail.Items[0].ID, &model.SubmitAnswerRequest{
		Answer: model.Answer{Type: model.AnswerSingleChoice, Selected: strPtr("A")},
	}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	first, err := svc.CalculateResults(ctx, userID, attemptID)
	if err != nil {
		t.Fatalf("first calculate: %v", err)
	}
	second, err := svc.CalculateResults(ctx, userID, attemptID)
	if err != nil {
		t.Fatalf("second calculate: %v", err)
	}

	if first.Results == nil || second.Results == nil {
		t.Fatal("results missing")
	}
	if *first.Results != *second.Results {
		t.Errorf("re-invocation changed results: %+v vs %+v", first.Results, second.Results)
	}
	if first.CompletedAt == nil || !first.CompletedAt.Equal(*second.CompletedAt) {
		t.Error("re-invocation moved completion timestamp")
	}
}

func TestTryoutSubmitAnswer_RequiresRunningClock(t *testing.T) {
	svc, _, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}

	_, err = svc.SubmitAnswer(ctx, userID, detail.Attempt.ID, detail.Items[0].ID, &model.SubmitAnswerRequest{
		Answer: model.Answer{Type: model.AnswerSingleChoice, Selected: strPtr("A")},
	})
	if !errors.Is(err, ErrSectionNotStarted) {
		t.Errorf("expected ErrSectionNotStarted, got %v", err)
	}
}

func TestTryoutGet_CrossModeRejected(t *testing.T) {
	svc, attempts, _, userID := newTryoutFixture(t)
	ctx := context.Background()

	practice := &model.Attempt{
		UserID: userID,
		Mode:   model.ModePractice,
		Status: model.AttemptInProgress,
	}
	if err := attempts.Create(ctx, practice, nil); err != nil {
		t.Fatalf("create practice attempt: %v", err)
	}

	if _, _, err := svc.Get(ctx, userID, practice.ID); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

func TestTryoutGet_OtherUsersAttemptForbidden(t *testing.T) {
	svc, _, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}

	if _, _, err := svc.Get(ctx, uuid.New(), detail.Attempt.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestTryoutAdvance_StaleClockCacheIgnored(t *testing.T) {
	clock := newMemClock()
	svc, attempts, bpID, userID := newTryoutFixtureWithClock(t, clock)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}
	attemptID := detail.Attempt.ID

	if _, err := svc.StartSection(ctx, userID, attemptID, 0); err != nil {
		t.Fatalf("start section: %v", err)
	}

	// The cached start survives the advance, like a redis DEL that never
	// landed.
	clock.clearErr = errBoom
	if _, err := svc.AdvanceSection(ctx, userID, attemptID, 0); err != nil {
		t.Fatalf("advance section: %v", err)
	}

	a, _, _ := attempts.GetWithItems(ctx, attemptID)
	state, err := svc.State(ctx, a)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Section == nil || state.Section.OrderNum != 1 {
		t.Fatalf("expected section 1, got %+v", state.Section)
	}
	if state.RemainingSeconds != nil {
		t.Errorf("stale cached start attributed to the new section: remaining %d", *state.RemainingSeconds)
	}

	// Starting the next section issues a fresh clock over the stale entry.
	clock.clearErr = nil
	started, err := svc.StartSection(ctx, userID, attemptID, 1)
	if err != nil {
		t.Fatalf("start next section: %v", err)
	}
	if started.RemainingSeconds == nil || *started.RemainingSeconds != 900 {
		t.Errorf("expected fresh 900s budget, got %v", started.RemainingSeconds)
	}
}

func TestTryoutState_RemainingFloorsAtZero(t *testing.T) {
	svc, attempts, bpID, userID := newTryoutFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartTryoutRequest{BlueprintID: bpID})
	if err != nil {
		t.Fatalf("start tryout: %v", err)
	}
	if _, err := svc.StartSection(ctx, userID, detail.Attempt.ID, 0); err != nil {
		t.Fatalf("start section: %v", err)
	}

	// Jump the service clock well past the 600s section budget.
	svc.now = func() time.Time { return time.Now().Add(700 * time.Second) }

	a, _, _ := attempts.GetWithItems(ctx, detail.Attempt.ID)
	state, err := svc.State(ctx, a)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.RemainingSeconds == nil || *state.RemainingSeconds != 0 {
		t.Errorf("expected remaining 0 past budget, got %v", state.RemainingSeconds)
	}
}
