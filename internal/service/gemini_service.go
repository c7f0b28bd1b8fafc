package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GeminiService turns extracted document text into draft question sets.
type GeminiService struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    zerolog.Logger
}

// NewGeminiService creates a Gemini client for the configured model.
func NewGeminiService(ctx context.Context, apiKey, modelName string, log zerolog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	m := client.GenerativeModel(modelName)
	m.SetTemperature(0.3)
	m.SetTopP(0.95)

	return &GeminiService{
		client: client,
		model:  m,
		log:    log.With().Str("component", "gemini_service").Logger(),
	}, nil
}

// Close releases the underlying client.
func (s *GeminiService) Close() {
	s.client.Close()
}

// GenerateDraftQuestions asks the model to lift questions out of document
// text. Entries with an unknown question type are dropped rather than
// propagated into the draft.
func (s *GeminiService) GenerateDraftQuestions(ctx context.Context, text string) ([]model.DraftQuestion, error) {
	prompt := buildDraftQuestionPrompt(text)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	rawText := extractText(resp)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var drafts []model.DraftQuestion
	if err := json.Unmarshal([]byte(rawText), &drafts); err != nil {
		// Model sometimes wraps the array in prose. Try the outermost array.
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("parse gemini response: %w", err)
		}
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &drafts); err != nil {
			return nil, fmt.Errorf("parse gemini response: %w", err)
		}
	}

	valid := drafts[:0]
	for _, d := range drafts {
		switch d.QuestionType {
		case model.QuestionSingleChoice, model.QuestionComplexSelection, model.QuestionFillIn:
			if strings.TrimSpace(d.Content) != "" {
				valid = append(valid, d)
			}
		default:
			s.log.Debug().Str("question_type", string(d.QuestionType)).Msg("Dropping draft with unknown question type")
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable questions in gemini response")
	}
	return valid, nil
}

func buildDraftQuestionPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are digitizing Indonesian university entrance exam (UTBK-SNBT) questions.\n")
	b.WriteString("Extract every question from the document text below into a JSON array.\n\n")
	b.WriteString("Each element must have this shape:\n")
	b.WriteString(`{"question_type":"single_choice|complex_selection|fill_in",`)
	b.WriteString(`"content":"...","options":["A. ...","B. ..."],`)
	b.WriteString(`"correct_option":"A","correct_rows":["Benar","Salah"],"correct_value":"...","explanation":"..."}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- single_choice: fill options and correct_option only.\n")
	b.WriteString("- complex_selection: one correct_rows entry per sub-statement, in order.\n")
	b.WriteString("- fill_in: fill correct_value only, no options.\n")
	b.WriteString("- Omit fields that do not apply. Output the JSON array only, no commentary.\n\n")
	b.WriteString("Document text:\n")
	b.WriteString(text)
	return b.String()
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	return b.String()
}
