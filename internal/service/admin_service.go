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

// AdminService handles subtest, exam and blueprint management for the admin
// console.
type AdminService struct {
	subtests   *repository.SubtestRepository
	exams      *repository.ExamRepository
	blueprints *repository.BlueprintRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(subtests *repository.SubtestRepository, exams *repository.ExamRepository, blueprints *repository.BlueprintRepository) *AdminService {
	return &AdminService{subtests: subtests, exams: exams, blueprints: blueprints}
}

// CreateSubtest adds a subject area.
func (s *AdminService) CreateSubtest(ctx context.Context, req *model.CreateSubtestRequest) (*model.Subtest, error) {
	st := &model.Subtest{Code: req.Code, Name: req.Name, OrderNum: req.OrderNum}
	if err := s.subtests.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create subtest: %w", err)
	}
	return st, nil
}

// ListSubtests returns all subtests in display order.
func (s *AdminService) ListSubtests(ctx context.Context) ([]model.Subtest, error) {
	return s.subtests.List(ctx)
}

// DeleteSubtest removes a subtest.
func (s *AdminService) DeleteSubtest(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.subtests.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete subtest: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// CreateExam adds an exam in draft status.
func (s *AdminService) CreateExam(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	e := &model.Exam{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.ExamStatusDraft,
	}
	if err := s.exams.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return e, nil
}

// ListExams returns all exams regardless of status.
func (s *AdminService) ListExams(ctx context.Context) ([]model.Exam, error) {
	return s.exams.List(ctx, nil)
}

// GetExam retrieves one exam.
func (s *AdminService) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return e, nil
}

// UpdateExam applies a partial edit, including status changes.
func (s *AdminService) UpdateExam(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	e, err := s.exams.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return e, nil
}

// DeleteExam removes an exam.
func (s *AdminService) DeleteExam(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.exams.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// CreateBlueprint creates a versioned blueprint with ordered sections,
// validating every referenced subtest.
func (s *AdminService) CreateBlueprint(ctx context.Context, req *model.CreateBlueprintRequest) (*model.Blueprint, error) {
	if _, err := s.exams.GetByID(ctx, req.ExamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}

	bp := &model.Blueprint{
		ExamID:  req.ExamID,
		Version: req.Version,
		Status:  model.BlueprintStatusActive,
	}
	for _, sec := range req.Sections {
		if _, err := s.subtests.GetByID(ctx, sec.SubtestID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("load subtest: %w", err)
		}
		bp.Sections = append(bp.Sections, model.BlueprintSection{
			SubtestID:       sec.SubtestID,
			QuestionCount:   sec.QuestionCount,
			DurationSeconds: sec.DurationSeconds,
		})
	}

	if err := s.blueprints.Create(ctx, bp); err != nil {
		return nil, fmt.Errorf("create blueprint: %w", err)
	}
	return s.GetBlueprint(ctx, bp.ID)
}

// GetBlueprint retrieves a blueprint with its sections.
func (s *AdminService) GetBlueprint(ctx context.Context, id uuid.UUID) (*model.Blueprint, error) {
	bp, err := s.blueprints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load blueprint: %w", err)
	}
	return bp, nil
}

// ListBlueprints returns an exam's blueprints, newest version first.
func (s *AdminService) ListBlueprints(ctx context.Context, examID uuid.UUID) ([]model.Blueprint, error) {
	return s.blueprints.ListByExam(ctx, examID, nil)
}

// ArchiveBlueprint retires a blueprint. Running attempts keep their
// snapshot and finish unaffected.
func (s *AdminService) ArchiveBlueprint(ctx context.Context, id uuid.UUID) error {
	archived, err := s.blueprints.Archive(ctx, id)
	if err != nil {
		return fmt.Errorf("archive blueprint: %w", err)
	}
	if !archived {
		return ErrNotFound
	}
	return nil
}
