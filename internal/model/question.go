package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionSingleChoice     QuestionType = "single_choice"
	QuestionComplexSelection QuestionType = "complex_selection"
	QuestionFillIn           QuestionType = "fill_in"
)

// Question represents a question-bank entry.
//
// Options holds the presentation payload: for single_choice a list of
// {key, text} choices; for complex_selection a list of sub-statements each
// with its own choice labels. Exactly one of the Correct* fields is set,
// matching QuestionType.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	SubtestID     uuid.UUID       `json:"subtest_id"`
	QuestionType  QuestionType    `json:"question_type"`
	Content       string          `json:"content"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectOption *string         `json:"correct_option,omitempty"`
	CorrectRows   json.RawMessage `json:"correct_rows,omitempty"`
	CorrectValue  *string         `json:"correct_value,omitempty"`
	Explanation   *string         `json:"explanation,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuestionForAttempt is a question stripped of answer keys, sent to
// participants inside an attempt payload.
type QuestionForAttempt struct {
	ID           uuid.UUID       `json:"id"`
	QuestionType QuestionType    `json:"question_type"`
	Content      string          `json:"content"`
	Options      json.RawMessage `json:"options,omitempty"`
}

// ForAttempt strips the answer key from a question.
func (q *Question) ForAttempt() QuestionForAttempt {
	return QuestionForAttempt{
		ID:           q.ID,
		QuestionType: q.QuestionType,
		Content:      q.Content,
		Options:      q.Options,
	}
}

// CreateQuestionRequest is the payload for adding a question to the bank.
type CreateQuestionRequest struct {
	SubtestID     uuid.UUID       `json:"subtest_id" binding:"required"`
	QuestionType  string          `json:"question_type" binding:"required,oneof=single_choice complex_selection fill_in"`
	Content       string          `json:"content" binding:"required,min=1"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectOption *string         `json:"correct_option" binding:"omitempty,max=10"`
	CorrectRows   json.RawMessage `json:"correct_rows" binding:"omitempty"`
	CorrectValue  *string         `json:"correct_value" binding:"omitempty,max=255"`
	Explanation   *string         `json:"explanation" binding:"omitempty"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Content       *string         `json:"content" binding:"omitempty,min=1"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectOption *string         `json:"correct_option" binding:"omitempty,max=10"`
	CorrectRows   json.RawMessage `json:"correct_rows" binding:"omitempty"`
	CorrectValue  *string         `json:"correct_value" binding:"omitempty,max=255"`
	Explanation   *string         `json:"explanation" binding:"omitempty"`
}
