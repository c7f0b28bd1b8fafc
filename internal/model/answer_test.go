package model

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestValidateFor_RejectsTagMismatch(t *testing.T) {
	a := Answer{Type: AnswerFillIn, Value: strPtr("42")}
	if err := a.ValidateFor(QuestionSingleChoice); err == nil {
		t.Error("expected fill_in answer against single_choice question to be rejected")
	}
	if err := a.ValidateFor(QuestionFillIn); err != nil {
		t.Errorf("expected matching tag to pass, got %v", err)
	}
}

func TestHasAnswer(t *testing.T) {
	cases := []struct {
		name string
		a    Answer
		want bool
	}{
		{"single choice selected", Answer{Type: AnswerSingleChoice, Selected: strPtr("B")}, true},
		{"single choice nil", Answer{Type: AnswerSingleChoice}, false},
		{"single choice empty", Answer{Type: AnswerSingleChoice, Selected: strPtr("")}, false},
		{"fill in value", Answer{Type: AnswerFillIn, Value: strPtr("12")}, true},
		{"fill in whitespace", Answer{Type: AnswerFillIn, Value: strPtr("   ")}, false},
		{"complex no rows", Answer{Type: AnswerComplexSelection}, false},
		{"complex all nil rows", Answer{Type: AnswerComplexSelection, Rows: []AnswerRow{{}, {}}}, false},
		{"complex one selected", Answer{Type: AnswerComplexSelection, Rows: []AnswerRow{{}, {Selected: strPtr("benar")}}}, true},
	}

	for _, tc := range cases {
		if got := tc.a.HasAnswer(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestGrade_SingleChoice(t *testing.T) {
	q := &Question{QuestionType: QuestionSingleChoice, CorrectOption: strPtr("C")}

	if got := Grade(q, Answer{Type: AnswerSingleChoice, Selected: strPtr("C")}); got == nil || !*got {
		t.Error("expected correct verdict for matching option")
	}
	if got := Grade(q, Answer{Type: AnswerSingleChoice, Selected: strPtr("A")}); got == nil || *got {
		t.Error("expected wrong verdict for non-matching option")
	}
	if got := Grade(q, Answer{Type: AnswerSingleChoice}); got != nil {
		t.Error("expected nil verdict for blank answer")
	}
}

func TestGrade_FillInNormalizes(t *testing.T) {
	q := &Question{QuestionType: QuestionFillIn, CorrectValue: strPtr("Borobudur")}

	if got := Grade(q, Answer{Type: AnswerFillIn, Value: strPtr("  borobudur ")}); got == nil || !*got {
		t.Error("expected case/whitespace-insensitive match to be correct")
	}
	if got := Grade(q, Answer{Type: AnswerFillIn, Value: strPtr("Prambanan")}); got == nil || *got {
		t.Error("expected wrong verdict for different value")
	}
}

func TestGrade_ComplexSelection(t *testing.T) {
	key, _ := json.Marshal([]string{"benar", "salah", "benar"})
	q := &Question{QuestionType: QuestionComplexSelection, CorrectRows: key}

	full := Answer{Type: AnswerComplexSelection, Rows: []AnswerRow{
		{Selected: strPtr("benar")}, {Selected: strPtr("salah")}, {Selected: strPtr("benar")},
	}}
	if got := Grade(q, full); got == nil || !*got {
		t.Error("expected all-matching rows to be correct")
	}

	partial := Answer{Type: AnswerComplexSelection, Rows: []AnswerRow{
		{Selected: strPtr("benar")}, {}, {Selected: strPtr("benar")},
	}}
	if got := Grade(q, partial); got == nil || *got {
		t.Error("expected partially answered rows to be wrong, not blank")
	}

	blank := Answer{Type: AnswerComplexSelection, Rows: []AnswerRow{{}, {}, {}}}
	if got := Grade(q, blank); got != nil {
		t.Error("expected fully blank rows to stay ungraded")
	}
}
