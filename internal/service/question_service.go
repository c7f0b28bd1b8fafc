package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/repository"
)

// QuestionService handles question-bank management for the admin console.
type QuestionService struct {
	questions *repository.QuestionRepository
	subtests  *repository.SubtestRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository, subtests *repository.SubtestRepository) *QuestionService {
	return &QuestionService{questions: questions, subtests: subtests}
}

// Create adds a question to the bank after checking the target subtest
// exists.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	if _, err := s.subtests.GetByID(ctx, req.SubtestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load subtest: %w", err)
	}

	q := &model.Question{
		SubtestID:     req.SubtestID,
		QuestionType:  model.QuestionType(req.QuestionType),
		Content:       req.Content,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		CorrectRows:   req.CorrectRows,
		CorrectValue:  req.CorrectValue,
		Explanation:   req.Explanation,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Get retrieves a question with its answer key.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

// ListBySubtest retrieves a page of questions for one subtest.
func (s *QuestionService) ListBySubtest(ctx context.Context, subtestID uuid.UUID, limit, offset int) ([]model.Question, int, error) {
	return s.questions.ListBySubtest(ctx, subtestID, limit, offset)
}

// Update applies a partial edit.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questions.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes a question from the bank.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.questions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
