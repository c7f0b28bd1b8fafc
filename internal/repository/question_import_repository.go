package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manikandareas/masukptn-backend/internal/model"
)

// QuestionImportRepository handles import-job records. Status transitions
// are expressed as conditional updates so racing triggers and worker
// deliveries cannot push a record backwards in its lifecycle.
type QuestionImportRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionImportRepository creates a new QuestionImportRepository.
func NewQuestionImportRepository(pool *pgxpool.Pool) *QuestionImportRepository {
	return &QuestionImportRepository{pool: pool}
}

const importColumns = `id, status, storage_bucket, storage_path, original_filename,
	ocr_metadata, queue_message_id, queue_deduplication_id, error_message,
	draft_exam_id, draft_subtest_id, draft_name, draft_description,
	draft_questions, created_by, created_at, updated_at`

// Create inserts a pending import record for an uploaded document.
func (r *QuestionImportRepository) Create(ctx context.Context, qi *model.QuestionImport) error {
	meta, err := json.Marshal(qi.OCRMetadata)
	if err != nil {
		return fmt.Errorf("marshal ocr metadata: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_imports (status, storage_bucket, storage_path, original_filename, ocr_metadata, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		qi.Status, qi.StorageBucket, qi.StoragePath, qi.OriginalFilename, meta, qi.CreatedBy,
	).Scan(&qi.ID, &qi.CreatedAt, &qi.UpdatedAt)
}

// GetByID retrieves an import record.
func (r *QuestionImportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+importColumns+` FROM question_imports WHERE id = $1`, id)
	return scanImportRow(row.Scan)
}

// List retrieves a page of import records, newest first.
func (r *QuestionImportRepository) List(ctx context.Context, limit, offset int) ([]model.QuestionImport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM question_imports`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+importColumns+`
		 FROM question_imports
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var imports []model.QuestionImport
	for rows.Next() {
		qi, err := scanImportRow(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		imports = append(imports, *qi)
	}
	return imports, total, rows.Err()
}

// MarkQueued transitions pending or failed to queued, recording the queue
// message id and deduplication id, and clearing any previous error. Returns
// false when the record is in a state that may not be (re)queued.
func (r *QuestionImportRepository) MarkQueued(ctx context.Context, id uuid.UUID, messageID, dedupID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question_imports
		 SET status = 'queued', queue_message_id = $1, queue_deduplication_id = $2,
		     error_message = NULL, updated_at = NOW()
		 WHERE id = $3 AND status IN ('pending', 'failed')`,
		messageID, dedupID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkProcessing transitions queued to processing. A redelivered message
// whose record already left queued gets false and must not re-run the job.
func (r *QuestionImportRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question_imports
		 SET status = 'processing', updated_at = NOW()
		 WHERE id = $1 AND status = 'queued'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed records an extraction failure. The record and its stored
// document survive for manual retry.
func (r *QuestionImportRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE question_imports
		 SET status = 'failed', error_message = $1, updated_at = NOW()
		 WHERE id = $2`, message, id)
	return err
}

// AttachDraft stores extraction output on a processing record. The record
// stays in processing; attaching draft questions is what makes it reviewable.
func (r *QuestionImportRepository) AttachDraft(ctx context.Context, id uuid.UUID, questions []model.DraftQuestion, meta model.OCRMetadata) error {
	rawQuestions, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal draft questions: %w", err)
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal ocr metadata: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE question_imports
		 SET draft_questions = $1, ocr_metadata = $2, updated_at = NOW()
		 WHERE id = $3 AND status = 'processing'`,
		rawQuestions, rawMeta, id)
	return err
}

// UpdateDraftMetadata edits the draft targeting fields without touching
// status.
func (r *QuestionImportRepository) UpdateDraftMetadata(ctx context.Context, id uuid.UUID, req *model.UpdateImportMetadataRequest) (*model.QuestionImport, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE question_imports SET
		     draft_exam_id     = COALESCE($1, draft_exam_id),
		     draft_subtest_id  = COALESCE($2, draft_subtest_id),
		     draft_name        = COALESCE($3, draft_name),
		     draft_description = COALESCE($4, draft_description),
		     updated_at        = NOW()
		 WHERE id = $5
		 RETURNING `+importColumns,
		req.DraftExamID, req.DraftSubtestID, req.DraftName, req.DraftDescription, id)
	return scanImportRow(row.Scan)
}

// SetDraftQuestions replaces the draft question list.
func (r *QuestionImportRepository) SetDraftQuestions(ctx context.Context, id uuid.UUID, questions []model.DraftQuestion) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal draft questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE question_imports
		 SET draft_questions = $1, updated_at = NOW()
		 WHERE id = $2`, raw, id)
	return err
}

// MarkSaved transitions a reviewable record to saved. Conditional on
// processing so a double save cannot re-insert the bank questions.
func (r *QuestionImportRepository) MarkSaved(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question_imports
		 SET status = 'saved', updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes an import record. Callers must have already removed the
// stored objects.
func (r *QuestionImportRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question_imports WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanImportRow(scan func(dest ...any) error) (*model.QuestionImport, error) {
	qi := &model.QuestionImport{}
	var metaRaw, draftsRaw []byte

	err := scan(&qi.ID, &qi.Status, &qi.StorageBucket, &qi.StoragePath, &qi.OriginalFilename,
		&metaRaw, &qi.QueueMessageID, &qi.QueueDedupID, &qi.ErrorMessage,
		&qi.DraftExamID, &qi.DraftSubtestID, &qi.DraftName, &qi.DraftDescription,
		&draftsRaw, &qi.CreatedBy, &qi.CreatedAt, &qi.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &qi.OCRMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal ocr metadata: %w", err)
		}
	}
	if len(draftsRaw) > 0 {
		if err := json.Unmarshal(draftsRaw, &qi.DraftQuestions); err != nil {
			return nil, fmt.Errorf("unmarshal draft questions: %w", err)
		}
	}
	return qi, nil
}
