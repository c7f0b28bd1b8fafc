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

// CatalogEntry is one published exam with its active blueprint and derived
// totals, the payload participants browse before starting a tryout.
type CatalogEntry struct {
	Exam                 model.Exam       `json:"exam"`
	Blueprint            *model.Blueprint `json:"blueprint,omitempty"`
	TotalQuestions       int              `json:"total_questions"`
	TotalDurationSeconds int              `json:"total_duration_seconds"`
}

// CatalogService serves the public read paths: published exams with their
// active blueprints, and the subtest list.
type CatalogService struct {
	exams      *repository.ExamRepository
	blueprints *repository.BlueprintRepository
	subtests   *repository.SubtestRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(exams *repository.ExamRepository, blueprints *repository.BlueprintRepository, subtests *repository.SubtestRepository) *CatalogService {
	return &CatalogService{exams: exams, blueprints: blueprints, subtests: subtests}
}

// ListExams returns published exams, each with its newest active blueprint
// and totals derived from the blueprint's sections. Exams without an active
// blueprint are listed without one.
func (s *CatalogService) ListExams(ctx context.Context) ([]CatalogEntry, error) {
	published := model.ExamStatusPublished
	exams, err := s.exams.List(ctx, &published)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(exams))
	for _, e := range exams {
		entry := CatalogEntry{Exam: e}

		active := model.BlueprintStatusActive
		bps, err := s.blueprints.ListByExam(ctx, e.ID, &active)
		if err != nil {
			return nil, fmt.Errorf("list blueprints for exam %s: %w", e.ID, err)
		}
		if len(bps) > 0 {
			bp, err := s.blueprints.GetByID(ctx, bps[0].ID)
			if err != nil {
				return nil, fmt.Errorf("load blueprint %s: %w", bps[0].ID, err)
			}
			entry.Blueprint = bp
			entry.TotalQuestions = bp.TotalQuestions()
			entry.TotalDurationSeconds = bp.TotalDurationSeconds()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetExam returns one published exam's catalog entry.
func (s *CatalogService) GetExam(ctx context.Context, examID uuid.UUID) (*CatalogEntry, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if e.Status != model.ExamStatusPublished {
		return nil, ErrNotFound
	}

	entry := &CatalogEntry{Exam: *e}
	active := model.BlueprintStatusActive
	bps, err := s.blueprints.ListByExam(ctx, e.ID, &active)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", err)
	}
	if len(bps) > 0 {
		bp, err := s.blueprints.GetByID(ctx, bps[0].ID)
		if err != nil {
			return nil, fmt.Errorf("load blueprint: %w", err)
		}
		entry.Blueprint = bp
		entry.TotalQuestions = bp.TotalQuestions()
		entry.TotalDurationSeconds = bp.TotalDurationSeconds()
	}
	return entry, nil
}

// ListSubtests returns all subtests in display order.
func (s *CatalogService) ListSubtests(ctx context.Context) ([]model.Subtest, error) {
	return s.subtests.List(ctx)
}
