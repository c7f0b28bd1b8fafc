package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/manikandareas/masukptn-backend/internal/model"
)

// PracticeService runs untimed single-subtest practice sessions. Grading
// happens at submission time; completion only seals the caller-computed
// aggregate.
type PracticeService struct {
	attempts  attemptStore
	questions questionStore
}

// NewPracticeService creates a new PracticeService.
func NewPracticeService(attempts attemptStore, questions questionStore) *PracticeService {
	return &PracticeService{attempts: attempts, questions: questions}
}

// Start draws N random questions from the subtest and creates an attempt
// with one ordered item per question.
func (s *PracticeService) Start(ctx context.Context, userID uuid.UUID, req *model.StartPracticeRequest) (*AttemptDetail, error) {
	picked, err := s.questions.PickRandom(ctx, req.SubtestID, req.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	if len(picked) < req.QuestionCount {
		return nil, ErrInsufficientBank
	}

	attempt := &model.Attempt{
		UserID:    userID,
		Mode:      model.ModePractice,
		Status:    model.AttemptInProgress,
		SubtestID: &req.SubtestID,
	}
	items := make([]model.AttemptItem, len(picked))
	for i, q := range picked {
		items[i] = model.AttemptItem{QuestionID: q.ID, OrderNum: i}
	}

	if err := s.attempts.Create(ctx, attempt, items); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	detail := &AttemptDetail{Attempt: *attempt, Items: make([]AttemptItemDetail, len(items))}
	for i := range items {
		detail.Items[i] = AttemptItemDetail{
			AttemptItem: items[i],
			Question:    picked[i].ForAttempt(),
		}
	}
	return detail, nil
}

// Get retrieves a practice attempt with its items and stripped questions.
func (s *PracticeService) Get(ctx context.Context, userID, attemptID uuid.UUID) (*AttemptDetail, error) {
	attempt, items, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	return buildDetail(ctx, s.questions, attempt, items)
}

// SubmitAnswer validates the answer variant against the question type,
// grades it, and persists answer plus verdict in one write.
func (s *PracticeService) SubmitAnswer(ctx context.Context, userID, attemptID, itemID uuid.UUID, req *model.SubmitAnswerRequest) (*model.AttemptItem, error) {
	attempt, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrAlreadyCompleted
	}

	item, err := s.attempts.GetItem(ctx, attemptID, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}

	question, err := s.questions.GetByID(ctx, item.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if err := req.Answer.ValidateFor(question.QuestionType); err != nil {
		return nil, err
	}

	verdict := model.Grade(question, req.Answer)
	updated, err := s.attempts.SubmitAnswer(ctx, attemptID, itemID, req.Answer, verdict, req.TimeSpentSeconds)
	if err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}
	return updated, nil
}

// Complete seals the attempt with the submitted aggregate. A second
// completion is rejected rather than silently replayed, so a client retry
// after success surfaces as a conflict it can treat as done.
func (s *PracticeService) Complete(ctx context.Context, userID, attemptID uuid.UUID, req *model.CompletePracticeRequest) (*model.Attempt, error) {
	attempt, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrAlreadyCompleted
	}

	totalTime := req.TotalTimeSeconds
	if totalTime == nil {
		totalTime = &req.Results.TotalTimeSeconds
	}

	applied, err := s.attempts.Complete(ctx, attemptID, userID, req.Results, totalTime)
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if !applied {
		return nil, ErrAlreadyCompleted
	}

	sealed, _, err := s.attempts.GetWithItems(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("reload attempt: %w", err)
	}
	return sealed, nil
}

// List retrieves the user's practice attempts.
func (s *PracticeService) List(ctx context.Context, userID uuid.UUID) ([]model.Attempt, error) {
	mode := model.ModePractice
	return s.attempts.ListByUser(ctx, userID, &mode)
}

// loadOwned loads an attempt and enforces ownership and practice mode.
func (s *PracticeService) loadOwned(ctx context.Context, userID, attemptID uuid.UUID) (*model.Attempt, []model.AttemptItem, error) {
	attempt, items, err := s.attempts.GetWithItems(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("load attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, nil, ErrForbidden
	}
	if attempt.Mode != model.ModePractice {
		return nil, nil, ErrInvalidMode
	}
	return attempt, items, nil
}
