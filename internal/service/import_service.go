package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/manikandareas/masukptn-backend/internal/jobs"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/queue"
	"github.com/rs/zerolog"
)

// ImportBucket is the storage bucket holding uploaded documents and their
// extracted images.
const ImportBucket = "imports"

// Store interfaces consumed by the import pipeline. Production wiring uses
// the repository, storage and queue packages; tests substitute stubs.

type importStore interface {
	Create(ctx context.Context, qi *model.QuestionImport) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error)
	List(ctx context.Context, limit, offset int) ([]model.QuestionImport, int, error)
	MarkQueued(ctx context.Context, id uuid.UUID, messageID, dedupID string) (bool, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	AttachDraft(ctx context.Context, id uuid.UUID, questions []model.DraftQuestion, meta model.OCRMetadata) error
	UpdateDraftMetadata(ctx context.Context, id uuid.UUID, req *model.UpdateImportMetadataRequest) (*model.QuestionImport, error)
	SetDraftQuestions(ctx context.Context, id uuid.UUID, questions []model.DraftQuestion) error
	MarkSaved(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type questionInserter interface {
	BulkInsert(ctx context.Context, questions []model.Question) error
}

type objectStore interface {
	Save(bucket, path string, r io.Reader) error
	AbsPath(bucket, path string) (string, error)
	Remove(bucket string, paths []string) error
}

type jobDispatcher interface {
	Dispatch(ctx context.Context, payload any, opts queue.DispatchOptions) (string, error)
}

type textExtractor interface {
	ExtractPDF(path string) (text string, pages int, err error)
}

type draftGenerator interface {
	GenerateDraftQuestions(ctx context.Context, text string) ([]model.DraftQuestion, error)
}

// ErrStorageFailure wraps object-store errors so handlers can map them to
// the storage error code.
var ErrStorageFailure = errors.New("storage operation failed")

// ImportService runs the upload-to-question-bank pipeline. Lifecycle:
// pending → queued → processing → saved or failed, with manual retry from
// failed. The stored document outlives every failure so nothing has to be
// re-uploaded.
type ImportService struct {
	imports importStore
	bank    questionInserter
	objects objectStore
	queue   jobDispatcher
	extract textExtractor
	gen     draftGenerator
	retries int
	log     zerolog.Logger
	now     func() time.Time
}

// NewImportService creates a new ImportService.
func NewImportService(imports importStore, bank questionInserter, objects objectStore, q jobDispatcher, extract textExtractor, gen draftGenerator, retries int, log zerolog.Logger) *ImportService {
	return &ImportService{
		imports: imports,
		bank:    bank,
		objects: objects,
		queue:   q,
		extract: extract,
		gen:     gen,
		retries: retries,
		log:     log.With().Str("component", "import_service").Logger(),
		now:     time.Now,
	}
}

// Create stores the uploaded document and records a pending import.
func (s *ImportService) Create(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*model.QuestionImport, error) {
	path := fmt.Sprintf("%s/%s.pdf", s.now().UTC().Format("2006/01"), uuid.New())
	if err := s.objects.Save(ImportBucket, path, r); err != nil {
		return nil, fmt.Errorf("%w: save upload: %v", ErrStorageFailure, err)
	}

	qi := &model.QuestionImport{
		Status:           model.ImportPending,
		StorageBucket:    ImportBucket,
		StoragePath:      path,
		OriginalFilename: filename,
		CreatedBy:        userID,
	}
	if err := s.imports.Create(ctx, qi); err != nil {
		return nil, fmt.Errorf("create import record: %w", err)
	}
	return qi, nil
}

// Enqueue dispatches the extraction job for a pending or failed import.
// Records already queued or processing are returned unchanged: triggering
// twice must not produce two jobs. The queued transition is claimed before
// the push — delivery is at-least-once with no ordering promise, so the
// worker may consume the message the moment it is visible, and it only
// claims processing from queued. Dispatch failure reverts the record to
// failed and re-raises.
func (s *ImportService) Enqueue(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	qi, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch qi.Status {
	case model.ImportQueued, model.ImportProcessing:
		return qi, nil
	case model.ImportSaved:
		return nil, ErrImportBusy
	}

	messageID := uuid.New().String()
	dedupID := fmt.Sprintf("import-%s-%d", qi.ID, s.now().Unix())

	claimed, err := s.imports.MarkQueued(ctx, qi.ID, messageID, dedupID)
	if err != nil {
		return nil, fmt.Errorf("mark queued: %w", err)
	}
	if !claimed {
		// A concurrent trigger won the transition; its job is in flight.
		return s.get(ctx, id)
	}

	if _, err := s.queue.Dispatch(ctx, model.ImportJobPayload{ImportID: qi.ID}, queue.DispatchOptions{
		MessageID:       messageID,
		DeduplicationID: dedupID,
		Retries:         s.retries,
		Label:           jobs.KeyQuestionImport,
	}); err != nil {
		if markErr := s.imports.MarkFailed(ctx, qi.ID, err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Str("import_id", qi.ID.String()).Msg("Failed to record dispatch failure")
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueDispatch, err)
	}
	return s.get(ctx, id)
}

// Retry re-enqueues a failed import. Any other state is rejected.
func (s *ImportService) Retry(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	qi, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if qi.Status != model.ImportFailed {
		return nil, ErrImportBusy
	}
	return s.Enqueue(ctx, id)
}

// Process is the queue callback: extract text, generate draft questions,
// attach them to the record. Extraction or generation failure marks the
// record failed and consumes the delivery; retry is a manual step.
func (s *ImportService) Process(ctx context.Context, payload json.RawMessage) error {
	var job model.ImportJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal job payload: %w", err)
	}

	ok, err := s.imports.MarkProcessing(ctx, job.ImportID)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if !ok {
		// Redelivery of a message whose record already left queued.
		s.log.Info().Str("import_id", job.ImportID.String()).Msg("Skipping import not in queued state")
		return nil
	}

	qi, err := s.get(ctx, job.ImportID)
	if err != nil {
		return fmt.Errorf("load import: %w", err)
	}

	if err := s.runExtraction(ctx, qi); err != nil {
		s.log.Warn().Err(err).Str("import_id", qi.ID.String()).Msg("Import extraction failed")
		if markErr := s.imports.MarkFailed(ctx, qi.ID, err.Error()); markErr != nil {
			return fmt.Errorf("mark failed: %w", markErr)
		}
		return nil
	}

	s.log.Info().Str("import_id", qi.ID.String()).Msg("Import draft attached")
	return nil
}

func (s *ImportService) runExtraction(ctx context.Context, qi *model.QuestionImport) error {
	absPath, err := s.objects.AbsPath(qi.StorageBucket, qi.StoragePath)
	if err != nil {
		return fmt.Errorf("resolve document path: %w", err)
	}

	text, pages, err := s.extract.ExtractPDF(absPath)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	drafts, err := s.gen.GenerateDraftQuestions(ctx, text)
	if err != nil {
		return fmt.Errorf("generate draft questions: %w", err)
	}

	meta := qi.OCRMetadata
	meta.Pages = pages
	if err := s.imports.AttachDraft(ctx, qi.ID, drafts, meta); err != nil {
		return fmt.Errorf("attach draft: %w", err)
	}
	return nil
}

// Get retrieves one import record.
func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	return s.get(ctx, id)
}

// List retrieves a page of import records.
func (s *ImportService) List(ctx context.Context, limit, offset int) ([]model.QuestionImport, int, error) {
	return s.imports.List(ctx, limit, offset)
}

// UpdateDraftMetadata edits the draft targeting fields. Status is never
// touched here.
func (s *ImportService) UpdateDraftMetadata(ctx context.Context, id uuid.UUID, req *model.UpdateImportMetadataRequest) (*model.QuestionImport, error) {
	qi, err := s.imports.UpdateDraftMetadata(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update draft metadata: %w", err)
	}
	return qi, nil
}

// UpdateDraftQuestion replaces one draft question on a reviewable record.
func (s *ImportService) UpdateDraftQuestion(ctx context.Context, id uuid.UUID, index int, req *model.UpdateDraftQuestionRequest) (*model.QuestionImport, error) {
	qi, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !qi.Reviewable() {
		return nil, ErrNotReviewable
	}
	if index < 0 || index >= len(qi.DraftQuestions) {
		return nil, ErrNotFound
	}

	qi.DraftQuestions[index] = model.DraftQuestion{
		QuestionType:  model.QuestionType(req.QuestionType),
		Content:       req.Content,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		CorrectRows:   req.CorrectRows,
		CorrectValue:  req.CorrectValue,
		Explanation:   req.Explanation,
	}
	if err := s.imports.SetDraftQuestions(ctx, id, qi.DraftQuestions); err != nil {
		return nil, fmt.Errorf("set draft questions: %w", err)
	}
	return s.get(ctx, id)
}

// Save moves the reviewed draft into the question bank and seals the
// record. The saved transition is claimed first so racing saves cannot
// insert the bank questions twice.
func (s *ImportService) Save(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	qi, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !qi.Reviewable() {
		return nil, ErrNotReviewable
	}
	if qi.DraftSubtestID == nil {
		return nil, ErrDraftIncomplete
	}

	questions := make([]model.Question, 0, len(qi.DraftQuestions))
	for _, d := range qi.DraftQuestions {
		q, err := draftToQuestion(*qi.DraftSubtestID, d)
		if err != nil {
			return nil, fmt.Errorf("convert draft question: %w", err)
		}
		questions = append(questions, q)
	}

	claimed, err := s.imports.MarkSaved(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark saved: %w", err)
	}
	if !claimed {
		return nil, ErrImportBusy
	}

	if err := s.bank.BulkInsert(ctx, questions); err != nil {
		return nil, fmt.Errorf("insert questions: %w", err)
	}

	s.log.Info().Str("import_id", id.String()).Int("questions", len(questions)).Msg("Import saved to question bank")
	return s.get(ctx, id)
}

// Delete removes the source document, then the extracted images, then the
// record. Any storage failure aborts the remaining steps so the record
// survives and the cleanup can be retried.
func (s *ImportService) Delete(ctx context.Context, id uuid.UUID) error {
	qi, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.objects.Remove(qi.StorageBucket, []string{qi.StoragePath}); err != nil {
		return fmt.Errorf("%w: remove document: %v", ErrStorageFailure, err)
	}

	if len(qi.OCRMetadata.Images) > 0 {
		paths := make([]string, len(qi.OCRMetadata.Images))
		for i, img := range qi.OCRMetadata.Images {
			paths[i] = img.Path
		}
		if err := s.objects.Remove(qi.StorageBucket, paths); err != nil {
			return fmt.Errorf("%w: remove images: %v", ErrStorageFailure, err)
		}
	}

	if _, err := s.imports.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *ImportService) get(ctx context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	qi, err := s.imports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load import: %w", err)
	}
	return qi, nil
}

// draftToQuestion converts a reviewed draft entry into a bank question.
func draftToQuestion(subtestID uuid.UUID, d model.DraftQuestion) (model.Question, error) {
	q := model.Question{
		SubtestID:     subtestID,
		QuestionType:  d.QuestionType,
		Content:       d.Content,
		CorrectOption: d.CorrectOption,
		CorrectValue:  d.CorrectValue,
		Explanation:   d.Explanation,
	}
	if len(d.Options) > 0 {
		raw, err := json.Marshal(d.Options)
		if err != nil {
			return model.Question{}, err
		}
		q.Options = raw
	}
	if len(d.CorrectRows) > 0 {
		raw, err := json.Marshal(d.CorrectRows)
		if err != nil {
			return model.Question{}, err
		}
		q.CorrectRows = raw
	}
	return q, nil
}
