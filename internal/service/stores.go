package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/scoring"
)

// Store interfaces consumed by the session services. The repository package
// provides the production implementations; tests substitute in-memory stubs.

type attemptStore interface {
	Create(ctx context.Context, a *model.Attempt, items []model.AttemptItem) error
	GetWithItems(ctx context.Context, id uuid.UUID) (*model.Attempt, []model.AttemptItem, error)
	GetItem(ctx context.Context, attemptID, itemID uuid.UUID) (*model.AttemptItem, error)
	SubmitAnswer(ctx context.Context, attemptID, itemID uuid.UUID, answer model.Answer, isCorrect *bool, timeSpent *int) (*model.AttemptItem, error)
	StartSection(ctx context.Context, attemptID, userID uuid.UUID, sectionIndex int, startedAt time.Time) (bool, error)
	AdvanceSection(ctx context.Context, attemptID, userID uuid.UUID, fromIndex int) (bool, error)
	Complete(ctx context.Context, attemptID, userID uuid.UUID, results scoring.Result, totalTime *int) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, mode *model.AttemptMode) ([]model.Attempt, error)
}

type questionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error)
	PickRandom(ctx context.Context, subtestID uuid.UUID, n int) ([]model.Question, error)
}

type blueprintStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Blueprint, error)
}

// AttemptItemDetail pairs an attempt item with its question, stripped of the
// answer key.
type AttemptItemDetail struct {
	model.AttemptItem
	Question model.QuestionForAttempt `json:"question"`
}

// AttemptDetail is a full attempt payload for participants.
type AttemptDetail struct {
	Attempt model.Attempt       `json:"attempt"`
	Items   []AttemptItemDetail `json:"items"`
}

// buildDetail joins items with their stripped questions, preserving item
// order.
func buildDetail(ctx context.Context, questions questionStore, a *model.Attempt, items []model.AttemptItem) (*AttemptDetail, error) {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.QuestionID
	}
	byID, err := questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	detail := &AttemptDetail{Attempt: *a, Items: make([]AttemptItemDetail, 0, len(items))}
	for _, it := range items {
		d := AttemptItemDetail{AttemptItem: it}
		if q, ok := byID[it.QuestionID]; ok {
			d.Question = q.ForAttempt()
		}
		detail.Items = append(detail.Items, d)
	}
	return detail, nil
}
