package model

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus enumerates the question-import job lifecycle:
//
//	pending → queued → processing → {saved | failed}
//
// failed may re-enter queued via manual retry. queued and processing
// short-circuit re-trigger attempts. A record in processing with draft
// questions attached is the reviewable draft state.
type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportQueued     ImportStatus = "queued"
	ImportProcessing ImportStatus = "processing"
	ImportFailed     ImportStatus = "failed"
	ImportSaved      ImportStatus = "saved"
)

// ImportImage references one image extracted from the uploaded document.
// The storage object is owned exclusively by the import record.
type ImportImage struct {
	Path string `json:"path"`
}

// OCRMetadata collects extraction artifacts attached to an import.
type OCRMetadata struct {
	Images []ImportImage `json:"images,omitempty"`
	Pages  int           `json:"pages,omitempty"`
}

// DraftQuestion is one extracted-but-unsaved question pending admin review.
type DraftQuestion struct {
	QuestionType  QuestionType `json:"question_type"`
	Content       string       `json:"content"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption *string      `json:"correct_option,omitempty"`
	CorrectRows   []string     `json:"correct_rows,omitempty"`
	CorrectValue  *string      `json:"correct_value,omitempty"`
	Explanation   *string      `json:"explanation,omitempty"`
}

// QuestionImport is one uploaded-document-to-draft-questions job.
// The Draft* targeting fields are editable; the storage source attributes
// are immutable after upload.
type QuestionImport struct {
	ID               uuid.UUID       `json:"id"`
	Status           ImportStatus    `json:"status"`
	StorageBucket    string          `json:"storage_bucket"`
	StoragePath      string          `json:"storage_path"`
	OriginalFilename string          `json:"original_filename"`
	OCRMetadata      OCRMetadata     `json:"ocr_metadata"`
	QueueMessageID   *string         `json:"queue_message_id,omitempty"`
	QueueDedupID     *string         `json:"queue_deduplication_id,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	DraftExamID      *uuid.UUID      `json:"draft_exam_id,omitempty"`
	DraftSubtestID   *uuid.UUID      `json:"draft_subtest_id,omitempty"`
	DraftName        *string         `json:"draft_name,omitempty"`
	DraftDescription *string         `json:"draft_description,omitempty"`
	DraftQuestions   []DraftQuestion `json:"draft_questions,omitempty"`
	CreatedBy        uuid.UUID       `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Reviewable reports whether the import carries a draft ready for admin
// review and saving.
func (qi *QuestionImport) Reviewable() bool {
	return qi.Status == ImportProcessing && len(qi.DraftQuestions) > 0
}

// UpdateImportMetadataRequest is the payload for editing draft targeting
// metadata. Does not change status.
type UpdateImportMetadataRequest struct {
	DraftExamID      *uuid.UUID `json:"draft_exam_id" binding:"omitempty"`
	DraftSubtestID   *uuid.UUID `json:"draft_subtest_id" binding:"omitempty"`
	DraftName        *string    `json:"draft_name" binding:"omitempty,max=255"`
	DraftDescription *string    `json:"draft_description" binding:"omitempty,max=2000"`
}

// UpdateDraftQuestionRequest is the payload for editing one draft question.
type UpdateDraftQuestionRequest struct {
	QuestionType  string   `json:"question_type" binding:"required,oneof=single_choice complex_selection fill_in"`
	Content       string   `json:"content" binding:"required,min=1"`
	Options       []string `json:"options" binding:"omitempty"`
	CorrectOption *string  `json:"correct_option" binding:"omitempty,max=10"`
	CorrectRows   []string `json:"correct_rows" binding:"omitempty"`
	CorrectValue  *string  `json:"correct_value" binding:"omitempty,max=255"`
	Explanation   *string  `json:"explanation" binding:"omitempty"`
}

// ImportJobPayload is the message body dispatched to the job queue.
type ImportJobPayload struct {
	ImportID uuid.UUID `json:"import_id"`
}
