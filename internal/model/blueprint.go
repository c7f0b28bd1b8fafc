package model

import (
	"time"

	"github.com/google/uuid"
)

// BlueprintStatus enumerates blueprint lifecycle states.
type BlueprintStatus string

const (
	BlueprintStatusActive   BlueprintStatus = "active"
	BlueprintStatusArchived BlueprintStatus = "archived"
)

// Blueprint is a versioned, ordered definition of tryout sections for an
// exam. The section order drives the tryout section-index state machine.
type Blueprint struct {
	ID        uuid.UUID          `json:"id"`
	ExamID    uuid.UUID          `json:"exam_id"`
	Version   int                `json:"version"`
	Status    BlueprintStatus    `json:"status"`
	Sections  []BlueprintSection `json:"sections,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// BlueprintSection is one timed segment of a blueprint, bound to a subtest.
type BlueprintSection struct {
	ID              uuid.UUID `json:"id"`
	BlueprintID     uuid.UUID `json:"blueprint_id"`
	SubtestID       uuid.UUID `json:"subtest_id"`
	SubtestCode     string    `json:"subtest_code,omitempty"`
	SubtestName     string    `json:"subtest_name,omitempty"`
	OrderNum        int       `json:"order_num"`
	QuestionCount   int       `json:"question_count"`
	DurationSeconds int       `json:"duration_seconds"`
}

// TotalQuestions sums question counts over the blueprint's sections.
func (b *Blueprint) TotalQuestions() int {
	total := 0
	for _, s := range b.Sections {
		total += s.QuestionCount
	}
	return total
}

// TotalDurationSeconds sums durations over the blueprint's sections.
func (b *Blueprint) TotalDurationSeconds() int {
	total := 0
	for _, s := range b.Sections {
		total += s.DurationSeconds
	}
	return total
}

// CreateBlueprintRequest is the payload for creating a blueprint with its
// ordered sections.
type CreateBlueprintRequest struct {
	ExamID   uuid.UUID                `json:"exam_id" binding:"required"`
	Version  int                      `json:"version" binding:"required,min=1"`
	Sections []CreateBlueprintSection `json:"sections" binding:"required,min=1,dive"`
}

// CreateBlueprintSection is one section definition inside a blueprint payload.
type CreateBlueprintSection struct {
	SubtestID       uuid.UUID `json:"subtest_id" binding:"required"`
	QuestionCount   int       `json:"question_count" binding:"required,min=1,max=200"`
	DurationSeconds int       `json:"duration_seconds" binding:"required,min=60,max=14400"`
}
