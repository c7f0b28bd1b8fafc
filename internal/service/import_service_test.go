package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/queue"
	"github.com/rs/zerolog"
)

func newImportFixture(imports *memImports, objects *stubObjects, disp *stubDispatcher, extract *stubExtractor, gen *stubGenerator, bank *stubInserter) *ImportService {
	if imports == nil {
		imports = newMemImports()
	}
	if objects == nil {
		objects = &stubObjects{}
	}
	if disp == nil {
		disp = &stubDispatcher{}
	}
	if extract == nil {
		extract = &stubExtractor{text: "soal 1", pages: 2}
	}
	if gen == nil {
		gen = &stubGenerator{drafts: []model.DraftQuestion{
			{QuestionType: model.QuestionSingleChoice, Content: "soal", CorrectOption: strPtr("A")},
		}}
	}
	if bank == nil {
		bank = &stubInserter{}
	}
	return NewImportService(imports, bank, objects, disp, extract, gen, 3, zerolog.Nop())
}

func seedImport(imports *memImports, status model.ImportStatus) *model.QuestionImport {
	qi := &model.QuestionImport{
		ID:               uuid.New(),
		Status:           status,
		StorageBucket:    ImportBucket,
		StoragePath:      "2026/01/doc.pdf",
		OriginalFilename: "doc.pdf",
		CreatedBy:        uuid.New(),
	}
	imports.put(qi)
	return qi
}

func TestImportEnqueue_DedupKeyAndRetries(t *testing.T) {
	imports := newMemImports()
	disp := &stubDispatcher{}
	svc := newImportFixture(imports, nil, disp, nil, nil, nil)
	qi := seedImport(imports, model.ImportPending)

	updated, err := svc.Enqueue(context.Background(), qi.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if disp.calls != 1 {
		t.Fatalf("expected one dispatch, got %d", disp.calls)
	}
	if !strings.HasPrefix(disp.lastOpts.DeduplicationID, "import-"+qi.ID.String()+"-") {
		t.Errorf("unexpected dedup key %q", disp.lastOpts.DeduplicationID)
	}
	if disp.lastOpts.Retries != 3 {
		t.Errorf("expected retry budget 3, got %d", disp.lastOpts.Retries)
	}
	if updated.Status != model.ImportQueued {
		t.Errorf("expected queued, got %s", updated.Status)
	}
	if updated.QueueMessageID == nil || *updated.QueueMessageID != disp.messageID {
		t.Errorf("message id not recorded: %v", updated.QueueMessageID)
	}
}

// immediateDispatcher hands the payload to the worker callback before
// Dispatch returns, the earliest delivery the at-least-once contract allows.
type immediateDispatcher struct {
	process func(ctx context.Context, payload json.RawMessage) error
}

func (d *immediateDispatcher) Dispatch(ctx context.Context, payload any, opts queue.DispatchOptions) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if err := d.process(ctx, raw); err != nil {
		return "", err
	}
	return opts.MessageID, nil
}

func TestImportEnqueue_ImmediateDeliveryIsProcessed(t *testing.T) {
	imports := newMemImports()
	disp := &immediateDispatcher{}
	extract := &stubExtractor{text: "soal 1", pages: 2}
	gen := &stubGenerator{drafts: []model.DraftQuestion{
		{QuestionType: model.QuestionSingleChoice, Content: "soal", CorrectOption: strPtr("A")},
	}}
	svc := NewImportService(imports, &stubInserter{}, &stubObjects{}, disp, extract, gen, 3, zerolog.Nop())
	disp.process = svc.Process

	qi := seedImport(imports, model.ImportPending)

	updated, err := svc.Enqueue(context.Background(), qi.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if updated.Status != model.ImportProcessing {
		t.Fatalf("delivery raced ahead of the status write: got %s", updated.Status)
	}
	if !updated.Reviewable() {
		t.Errorf("expected draft attached by the immediate delivery, got %d drafts", len(updated.DraftQuestions))
	}
}

func TestImportEnqueue_BusyStatesShortCircuit(t *testing.T) {
	for _, status := range []model.ImportStatus{model.ImportQueued, model.ImportProcessing} {
		imports := newMemImports()
		disp := &stubDispatcher{}
		svc := newImportFixture(imports, nil, disp, nil, nil, nil)
		qi := seedImport(imports, status)

		got, err := svc.Enqueue(context.Background(), qi.ID)
		if err != nil {
			t.Fatalf("enqueue with status %s: %v", status, err)
		}
		if disp.calls != 0 {
			t.Errorf("status %s must not dispatch, got %d calls", status, disp.calls)
		}
		if got.Status != status {
			t.Errorf("status %s changed to %s", status, got.Status)
		}
	}
}

func TestImportEnqueue_DispatchFailureRecorded(t *testing.T) {
	imports := newMemImports()
	disp := &stubDispatcher{err: errBoom}
	svc := newImportFixture(imports, nil, disp, nil, nil, nil)
	qi := seedImport(imports, model.ImportPending)

	_, err := svc.Enqueue(context.Background(), qi.ID)
	if err == nil {
		t.Fatal("expected dispatch error to propagate")
	}

	stored, _ := imports.GetByID(context.Background(), qi.ID)
	if stored.Status != model.ImportFailed {
		t.Errorf("expected failed after dispatch error, got %s", stored.Status)
	}
	if stored.ErrorMessage == nil || !strings.Contains(*stored.ErrorMessage, "boom") {
		t.Errorf("error message not recorded: %v", stored.ErrorMessage)
	}
}

func TestImportRetry_OnlyFromFailed(t *testing.T) {
	imports := newMemImports()
	disp := &stubDispatcher{}
	svc := newImportFixture(imports, nil, disp, nil, nil, nil)

	failed := seedImport(imports, model.ImportFailed)
	if _, err := svc.Retry(context.Background(), failed.ID); err != nil {
		t.Fatalf("retry failed import: %v", err)
	}
	stored, _ := imports.GetByID(context.Background(), failed.ID)
	if stored.Status != model.ImportQueued {
		t.Errorf("expected queued after retry, got %s", stored.Status)
	}
	if stored.ErrorMessage != nil {
		t.Error("retry must clear the previous error")
	}

	saved := seedImport(imports, model.ImportSaved)
	if _, err := svc.Retry(context.Background(), saved.ID); !errors.Is(err, ErrImportBusy) {
		t.Errorf("expected ErrImportBusy retrying saved import, got %v", err)
	}
}

func TestImportProcess_AttachesDraft(t *testing.T) {
	imports := newMemImports()
	svc := newImportFixture(imports, nil, nil, nil, nil, nil)
	qi := seedImport(imports, model.ImportQueued)

	payload, _ := json.Marshal(model.ImportJobPayload{ImportID: qi.ID})
	if err := svc.Process(context.Background(), payload); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, _ := imports.GetByID(context.Background(), qi.ID)
	if !stored.Reviewable() {
		t.Errorf("expected reviewable record, got status %s with %d drafts", stored.Status, len(stored.DraftQuestions))
	}
	if stored.OCRMetadata.Pages != 2 {
		t.Errorf("expected page count recorded, got %d", stored.OCRMetadata.Pages)
	}
}

func TestImportProcess_RedeliverySkipped(t *testing.T) {
	imports := newMemImports()
	gen := &stubGenerator{err: errBoom}
	svc := newImportFixture(imports, nil, nil, nil, gen, nil)
	qi := seedImport(imports, model.ImportProcessing)

	payload, _ := json.Marshal(model.ImportJobPayload{ImportID: qi.ID})
	if err := svc.Process(context.Background(), payload); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, _ := imports.GetByID(context.Background(), qi.ID)
	if stored.Status != model.ImportProcessing {
		t.Errorf("redelivery must not touch the record, got %s", stored.Status)
	}
}

func TestImportProcess_ExtractionFailureMarksFailed(t *testing.T) {
	imports := newMemImports()
	extract := &stubExtractor{err: errBoom}
	svc := newImportFixture(imports, nil, nil, extract, nil, nil)
	qi := seedImport(imports, model.ImportQueued)

	payload, _ := json.Marshal(model.ImportJobPayload{ImportID: qi.ID})
	if err := svc.Process(context.Background(), payload); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, _ := imports.GetByID(context.Background(), qi.ID)
	if stored.Status != model.ImportFailed {
		t.Errorf("expected failed, got %s", stored.Status)
	}
	if stored.ErrorMessage == nil {
		t.Error("expected error message on failed record")
	}
	if stored.StoragePath == "" {
		t.Error("stored document reference must survive failure")
	}
}

func TestImportSave_InsertsBankQuestions(t *testing.T) {
	imports := newMemImports()
	bank := &stubInserter{}
	svc := newImportFixture(imports, nil, nil, nil, nil, bank)

	subtestID := uuid.New()
	qi := seedImport(imports, model.ImportProcessing)
	qi.DraftSubtestID = &subtestID
	qi.DraftQuestions = []model.DraftQuestion{
		{QuestionType: model.QuestionSingleChoice, Content: "soal", Options: []string{"A. x", "B. y"}, CorrectOption: strPtr("A")},
		{QuestionType: model.QuestionFillIn, Content: "isian", CorrectValue: strPtr("42")},
	}
	imports.put(qi)

	saved, err := svc.Save(context.Background(), qi.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Status != model.ImportSaved {
		t.Errorf("expected saved, got %s", saved.Status)
	}
	if len(bank.inserted) != 1 || len(bank.inserted[0]) != 2 {
		t.Fatalf("expected one insert of two questions, got %+v", bank.inserted)
	}
	if bank.inserted[0][0].SubtestID != subtestID {
		t.Error("questions must target the draft subtest")
	}

	// A replayed save must not insert again.
	if _, err := svc.Save(context.Background(), qi.ID); !errors.Is(err, ErrNotReviewable) {
		t.Errorf("expected ErrNotReviewable on replay, got %v", err)
	}
	if len(bank.inserted) != 1 {
		t.Errorf("replayed save inserted again: %d batches", len(bank.inserted))
	}
}

func TestImportSave_RequiresSubtestTarget(t *testing.T) {
	imports := newMemImports()
	svc := newImportFixture(imports, nil, nil, nil, nil, nil)

	qi := seedImport(imports, model.ImportProcessing)
	qi.DraftQuestions = []model.DraftQuestion{{QuestionType: model.QuestionFillIn, Content: "isian"}}
	imports.put(qi)

	if _, err := svc.Save(context.Background(), qi.ID); !errors.Is(err, ErrDraftIncomplete) {
		t.Errorf("expected ErrDraftIncomplete, got %v", err)
	}
}

func TestImportDelete_StorageFailureKeepsRecord(t *testing.T) {
	imports := newMemImports()
	objects := &stubObjects{removeErr: errBoom}
	svc := newImportFixture(imports, objects, nil, nil, nil, nil)
	qi := seedImport(imports, model.ImportFailed)

	err := svc.Delete(context.Background(), qi.ID)
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}

	if _, err := imports.GetByID(context.Background(), qi.ID); err != nil {
		t.Error("record must survive a storage failure")
	}
	if imports.deleted != 0 {
		t.Error("record deleted despite storage failure")
	}
}

func TestImportDelete_RemovesObjectsThenRecord(t *testing.T) {
	imports := newMemImports()
	objects := &stubObjects{}
	svc := newImportFixture(imports, objects, nil, nil, nil, nil)

	qi := seedImport(imports, model.ImportSaved)
	qi.OCRMetadata = model.OCRMetadata{Images: []model.ImportImage{{Path: "img/1.png"}}}
	imports.put(qi)

	if err := svc.Delete(context.Background(), qi.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if objects.removeCalls != 2 {
		t.Errorf("expected document then image removal, got %d calls", objects.removeCalls)
	}
	if _, err := imports.GetByID(context.Background(), qi.ID); !errors.Is(err, ErrNotFound) && err == nil {
		t.Error("record should be gone")
	}
}

func TestImportUpdateDraftQuestion_RequiresReviewable(t *testing.T) {
	imports := newMemImports()
	svc := newImportFixture(imports, nil, nil, nil, nil, nil)
	qi := seedImport(imports, model.ImportPending)

	_, err := svc.UpdateDraftQuestion(context.Background(), qi.ID, 0, &model.UpdateDraftQuestionRequest{
		QuestionType: "fill_in",
		Content:      "edited",
	})
	if !errors.Is(err, ErrNotReviewable) {
		t.Errorf("expected ErrNotReviewable, got %v", err)
	}
}
