package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/scoring"
)

// AttemptMode distinguishes untimed practice from multi-section tryouts.
// Immutable after creation; cross-mode access must fail.
type AttemptMode string

const (
	ModePractice AttemptMode = "practice"
	ModeTryout   AttemptMode = "tryout"
)

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// ConfigSnapshot is the mutable structured state of a tryout attempt.
// CurrentSectionIndex is the sole variable distinguishing which section is
// active; SectionStartedAt present means the section clock is running.
type ConfigSnapshot struct {
	CurrentSectionIndex int        `json:"current_section_index"`
	SectionStartedAt    *time.Time `json:"section_started_at,omitempty"`
}

// Attempt is one practice or tryout instance owned by a user.
// Invariant: Results is non-nil iff Status == completed.
type Attempt struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Mode             AttemptMode     `json:"mode"`
	Status           AttemptStatus   `json:"status"`
	BlueprintID      *uuid.UUID      `json:"blueprint_id,omitempty"`
	SubtestID        *uuid.UUID      `json:"subtest_id,omitempty"`
	ConfigSnapshot   ConfigSnapshot  `json:"config_snapshot"`
	Results          *scoring.Result `json:"results,omitempty"`
	TotalTimeSeconds *int            `json:"total_time_seconds,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AttemptItem is one question instance within an attempt, ordered by
// OrderNum carried from the source question set or blueprint section.
type AttemptItem struct {
	ID               uuid.UUID  `json:"id"`
	AttemptID        uuid.UUID  `json:"attempt_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	OrderNum         int        `json:"order_num"`
	UserAnswer       *Answer    `json:"user_answer,omitempty"`
	IsCorrect        *bool      `json:"is_correct,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	TimeSpentSeconds *int       `json:"time_spent_seconds,omitempty"`
}

// StartPracticeRequest is the payload for starting a practice attempt.
type StartPracticeRequest struct {
	SubtestID     uuid.UUID `json:"subtest_id" binding:"required"`
	QuestionCount int       `json:"question_count" binding:"required,min=1,max=100"`
}

// StartTryoutRequest is the payload for starting a tryout attempt.
type StartTryoutRequest struct {
	BlueprintID uuid.UUID `json:"blueprint_id" binding:"required"`
}

// SubmitAnswerRequest is the payload for answering an attempt item.
type SubmitAnswerRequest struct {
	Answer           Answer `json:"answer" binding:"required"`
	TimeSpentSeconds *int   `json:"time_spent_seconds" binding:"omitempty,min=0"`
}

// CompletePracticeRequest is the payload for completing a practice attempt.
// Results are supplied by the caller; the practice flow grades incrementally
// on each submission, so completion only seals the aggregate.
type CompletePracticeRequest struct {
	Results          scoring.Result `json:"results" binding:"required"`
	TotalTimeSeconds *int           `json:"total_time_seconds" binding:"omitempty,min=0"`
}
