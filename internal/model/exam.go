package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an exam entry.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
	ExamStatusArchived  ExamStatus = "archived"
)

// Exam represents one target examination (e.g. a yearly UTBK-SNBT edition)
// whose structure is defined by versioned blueprints.
type Exam struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      ExamStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating an exam.
type CreateExamRequest struct {
	Title       string  `json:"title" binding:"required,min=3,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateExamRequest is the payload for updating an exam.
type UpdateExamRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,oneof=draft published archived"`
}
