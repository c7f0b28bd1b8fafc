package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// AnswerType tags the Answer union. Each tag corresponds 1:1 to a
// QuestionType; a stored answer whose tag does not match its question's type
// is a defect, guarded against at the submission boundary.
type AnswerType string

const (
	AnswerSingleChoice     AnswerType = "single_choice"
	AnswerComplexSelection AnswerType = "complex_selection"
	AnswerFillIn           AnswerType = "fill_in"
)

// ErrAnswerTypeMismatch is returned when an answer's tag does not match the
// target question's type.
var ErrAnswerTypeMismatch = errors.New("answer type does not match question type")

// AnswerRow is one sub-statement selection within a complex_selection answer.
type AnswerRow struct {
	Selected *string `json:"selected"`
}

// Answer is the tagged union of per-question-type answer variants. Only the
// fields of the variant named by Type are meaningful:
//
//	single_choice     → Selected
//	complex_selection → Rows (one per sub-statement)
//	fill_in           → Value
type Answer struct {
	Type     AnswerType  `json:"type" binding:"required,oneof=single_choice complex_selection fill_in"`
	Selected *string     `json:"selected,omitempty"`
	Rows     []AnswerRow `json:"rows,omitempty"`
	Value    *string     `json:"value,omitempty"`
}

// ValidateFor checks the answer tag against the question's type. Must be
// called before any persistence.
func (a Answer) ValidateFor(qt QuestionType) error {
	if string(a.Type) != string(qt) {
		return ErrAnswerTypeMismatch
	}
	return nil
}

// HasAnswer reports whether the participant actually selected or typed
// anything. Used by the palette "answered" indicator and by grading to
// distinguish blank from wrong.
func (a Answer) HasAnswer() bool {
	switch a.Type {
	case AnswerSingleChoice:
		return a.Selected != nil && *a.Selected != ""
	case AnswerComplexSelection:
		for _, row := range a.Rows {
			if row.Selected != nil && *row.Selected != "" {
				return true
			}
		}
		return false
	case AnswerFillIn:
		return a.Value != nil && strings.TrimSpace(*a.Value) != ""
	}
	return false
}

// Grade evaluates an answer against its question's key. Returns nil for a
// blank answer, otherwise a pointer to the correctness verdict. The caller
// is expected to have run ValidateFor first.
func Grade(q *Question, a Answer) *bool {
	if !a.HasAnswer() {
		return nil
	}

	var correct bool
	switch a.Type {
	case AnswerSingleChoice:
		correct = q.CorrectOption != nil && a.Selected != nil && *a.Selected == *q.CorrectOption

	case AnswerComplexSelection:
		var expected []string
		if err := json.Unmarshal(q.CorrectRows, &expected); err != nil {
			return nil // Unreadable key — leave ungraded rather than guess.
		}
		correct = gradeRows(a.Rows, expected)

	case AnswerFillIn:
		correct = q.CorrectValue != nil && a.Value != nil &&
			strings.EqualFold(strings.TrimSpace(*a.Value), strings.TrimSpace(*q.CorrectValue))
	}

	return &correct
}

// gradeRows marks a complex_selection answer correct only when every
// sub-statement matches its expected choice.
func gradeRows(rows []AnswerRow, expected []string) bool {
	if len(rows) != len(expected) {
		return false
	}
	for i, row := range rows {
		if row.Selected == nil || *row.Selected != expected[i] {
			return false
		}
	}
	return true
}
