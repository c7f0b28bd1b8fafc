package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/scoring"
)

func newPracticeFixture(t *testing.T) (*PracticeService, uuid.UUID, uuid.UUID) {
	t.Helper()

	subtestID := uuid.New()
	questions := &memQuestions{bySubtest: map[uuid.UUID][]model.Question{}}
	opt := "B"
	for i := 0; i < 5; i++ {
		questions.bySubtest[subtestID] = append(questions.bySubtest[subtestID], model.Question{
			ID:            uuid.New(),
			SubtestID:     subtestID,
			QuestionType:  model.QuestionSingleChoice,
			Content:       "soal",
			CorrectOption: &opt,
		})
	}

	svc := NewPracticeService(newMemAttempts(), questions)
	return svc, subtestID, uuid.New()
}

func TestPracticeStart_InsufficientBank(t *testing.T) {
	svc, subtestID, userID := newPracticeFixture(t)

	_, err := svc.Start(context.Background(), userID, &model.StartPracticeRequest{
		SubtestID:     subtestID,
		QuestionCount: 50,
	})
	if !errors.Is(err, ErrInsufficientBank) {
		t.Errorf("expected ErrInsufficientBank, got %v", err)
	}
}

func TestPracticeSubmitAnswer_TypeMismatchRejected(t *testing.T) {
	svc, subtestID, userID := newPracticeFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartPracticeRequest{SubtestID: subtestID, QuestionCount: 3})
	if err != nil {
		t.Fatalf("start practice: %v", err)
	}

	// fill_in answer against a single_choice question.
	_, err = svc.SubmitAnswer(ctx, userID, detail.Attempt.ID, detail.Items[0].ID, &model.SubmitAnswerRequest{
		Answer: model.Answer{Type: model.AnswerFillIn, Value: strPtr("42")},
	})
	if !errors.Is(err, model.ErrAnswerTypeMismatch) {
		t.Errorf("expected ErrAnswerTypeMismatch, got %v", err)
	}

	item, err := svc.attempts.GetItem(ctx, detail.Attempt.ID, detail.Items[0].ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.UserAnswer != nil {
		t.Error("mismatched answer must not be persisted")
	}
}

func TestPracticeSubmitAnswer_GradesOnWrite(t *testing.T) {
	svc, subtestID, userID := newPracticeFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartPracticeRequest{SubtestID: subtestID, QuestionCount: 3})
	if err != nil {
		t.Fatalf("start practice: %v", err)
	}

	item, err := svc.SubmitAnswer(ctx, userID, detail.Attempt.ID, detail.Items[0].ID, &model.SubmitAnswerRequest{
		Answer: model.Answer{Type: model.AnswerSingleChoice, Selected: strPtr("B")},
	})
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if item.IsCorrect == nil || !*item.IsCorrect {
		t.Errorf("expected correct verdict, got %v", item.IsCorrect)
	}

	item, err = svc.SubmitAnswer(ctx, userID, detail.Attempt.ID, detail.Items[1].ID, &model.SubmitAnswerRequest{
		Answer: model.Answer{Type: model.AnswerSingleChoice, Selected: strPtr("C")},
	})
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if item.IsCorrect == nil || *item.IsCorrect {
		t.Errorf("expected wrong verdict, got %v", item.IsCorrect)
	}
}

func TestPracticeComplete_DoubleCompletionRejected(t *testing.T) {
	svc, subtestID, userID := newPracticeFixture(t)
	ctx := context.Background()

	detail, err := svc.Start(ctx, userID, &model.StartPracticeRequest{SubtestID: subtestID, QuestionCount: 3})
	if err != nil {
		t.Fatalf("start practice: %v", err)
	}

	req := &model.CompletePracticeRequest{
		Results: scoring.Result{TotalQuestions: 3, CorrectCount: 2, WrongCount: 1, Accuracy: 66.67},
	}
	sealed, err := svc.Complete(ctx, userID, detail.Attempt.ID, req)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if sealed.Status != model.AttemptCompleted || sealed.Results == nil {
		t.Fatalf("attempt not sealed: %+v", sealed)
	}

	if _, err := svc.Complete(ctx, userID, detail.Attempt.ID, req); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted on second completion, got %v", err)
	}
}

func TestPracticeGet_UnknownAttempt(t *testing.T) {
	svc, _, userID := newPracticeFixture(t)

	if _, err := svc.Get(context.Background(), userID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
