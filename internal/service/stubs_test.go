package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/queue"
	"github.com/manikandareas/masukptn-backend/internal/scoring"
)

// In-memory store stubs reproducing the conditional-write semantics of the
// repository layer.

type memAttempts struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*model.Attempt
	items    map[uuid.UUID][]model.AttemptItem
}

func newMemAttempts() *memAttempts {
	return &memAttempts{
		attempts: make(map[uuid.UUID]*model.Attempt),
		items:    make(map[uuid.UUID][]model.AttemptItem),
	}
}

func (m *memAttempts) Create(_ context.Context, a *model.Attempt, items []model.AttemptItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	for i := range items {
		items[i].ID = uuid.New()
		items[i].AttemptID = a.ID
	}
	cp := *a
	m.attempts[a.ID] = &cp
	m.items[a.ID] = append([]model.AttemptItem(nil), items...)
	return nil
}

func (m *memAttempts) GetWithItems(_ context.Context, id uuid.UUID) (*model.Attempt, []model.AttemptItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, append([]model.AttemptItem(nil), m.items[id]...), nil
}

func (m *memAttempts) GetItem(_ context.Context, attemptID, itemID uuid.UUID) (*model.AttemptItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range m.items[attemptID] {
		if it.ID == itemID {
			cp := it
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memAttempts) SubmitAnswer(_ context.Context, attemptID, itemID uuid.UUID, answer model.Answer, isCorrect *bool, timeSpent *int) (*model.AttemptItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[attemptID]
	for i := range items {
		if items[i].ID == itemID {
			now := time.Now()
			items[i].UserAnswer = &answer
			items[i].IsCorrect = isCorrect
			items[i].AnsweredAt = &now
			items[i].TimeSpentSeconds = timeSpent
			cp := items[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memAttempts) StartSection(_ context.Context, attemptID, userID uuid.UUID, sectionIndex int, startedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[attemptID]
	if !ok || a.UserID != userID || a.Mode != model.ModeTryout || a.Status != model.AttemptInProgress {
		return false, nil
	}
	if a.ConfigSnapshot.CurrentSectionIndex != sectionIndex || a.ConfigSnapshot.SectionStartedAt != nil {
		return false, nil
	}
	a.ConfigSnapshot.SectionStartedAt = &startedAt
	return true, nil
}

func (m *memAttempts) AdvanceSection(_ context.Context, attemptID, userID uuid.UUID, fromIndex int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[attemptID]
	if !ok || a.UserID != userID || a.Mode != model.ModeTryout || a.Status != model.AttemptInProgress {
		return false, nil
	}
	if a.ConfigSnapshot.CurrentSectionIndex != fromIndex || a.ConfigSnapshot.SectionStartedAt == nil {
		return false, nil
	}
	a.ConfigSnapshot.CurrentSectionIndex = fromIndex + 1
	a.ConfigSnapshot.SectionStartedAt = nil
	return true, nil
}

func (m *memAttempts) Complete(_ context.Context, attemptID, userID uuid.UUID, results scoring.Result, totalTime *int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[attemptID]
	if !ok || a.UserID != userID || a.Status == model.AttemptCompleted {
		return false, nil
	}
	now := time.Now()
	a.Status = model.AttemptCompleted
	a.Results = &results
	a.TotalTimeSeconds = totalTime
	a.CompletedAt = &now
	return true, nil
}

func (m *memAttempts) ListByUser(_ context.Context, userID uuid.UUID, mode *model.AttemptMode) ([]model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Attempt
	for _, a := range m.attempts {
		if a.UserID != userID {
			continue
		}
		if mode != nil && a.Mode != *mode {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

type memQuestions struct {
	bySubtest map[uuid.UUID][]model.Question
}

func (m *memQuestions) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for _, qs := range m.bySubtest {
		for i := range qs {
			if qs[i].ID == id {
				return &qs[i], nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memQuestions) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error) {
	out := make(map[uuid.UUID]*model.Question)
	for _, id := range ids {
		if q, err := m.GetByID(context.Background(), id); err == nil {
			out[id] = q
		}
	}
	return out, nil
}

func (m *memQuestions) PickRandom(_ context.Context, subtestID uuid.UUID, n int) ([]model.Question, error) {
	qs := m.bySubtest[subtestID]
	if n > len(qs) {
		n = len(qs)
	}
	return append([]model.Question(nil), qs[:n]...), nil
}

type memBlueprints struct {
	byID map[uuid.UUID]*model.Blueprint
}

func (m *memBlueprints) GetByID(_ context.Context, id uuid.UUID) (*model.Blueprint, error) {
	bp, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *bp
	return &cp, nil
}

type memClock struct {
	mu       sync.Mutex
	starts   map[uuid.UUID]time.Time
	clearErr error
}

func newMemClock() *memClock {
	return &memClock{starts: make(map[uuid.UUID]time.Time)}
}

func (m *memClock) GetStart(_ context.Context, attemptID uuid.UUID) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.starts[attemptID]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *memClock) SetStart(_ context.Context, attemptID uuid.UUID, startedAt time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts[attemptID] = startedAt
	return nil
}

func (m *memClock) ClearStart(_ context.Context, attemptID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		// Entry stays behind, like a failed redis DEL.
		return m.clearErr
	}
	delete(m.starts, attemptID)
	return nil
}

// Import pipeline stubs.

type memImports struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*model.QuestionImport
	deleted int
}

func newMemImports() *memImports {
	return &memImports{byID: make(map[uuid.UUID]*model.QuestionImport)}
}

func (m *memImports) put(qi *model.QuestionImport) {
	if qi.ID == uuid.Nil {
		qi.ID = uuid.New()
	}
	m.byID[qi.ID] = qi
}

func (m *memImports) Create(_ context.Context, qi *model.QuestionImport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi.ID = uuid.New()
	qi.CreatedAt = time.Now()
	cp := *qi
	m.byID[qi.ID] = &cp
	return nil
}

func (m *memImports) GetByID(_ context.Context, id uuid.UUID) (*model.QuestionImport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *qi
	return &cp, nil
}

func (m *memImports) List(_ context.Context, _, _ int) ([]model.QuestionImport, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuestionImport
	for _, qi := range m.byID {
		out = append(out, *qi)
	}
	return out, len(out), nil
}

func (m *memImports) MarkQueued(_ context.Context, id uuid.UUID, messageID, dedupID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok || (qi.Status != model.ImportPending && qi.Status != model.ImportFailed) {
		return false, nil
	}
	qi.Status = model.ImportQueued
	qi.QueueMessageID = &messageID
	qi.QueueDedupID = &dedupID
	qi.ErrorMessage = nil
	return true, nil
}

func (m *memImports) MarkProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok || qi.Status != model.ImportQueued {
		return false, nil
	}
	qi.Status = model.ImportProcessing
	return true, nil
}

func (m *memImports) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	qi.Status = model.ImportFailed
	qi.ErrorMessage = &message
	return nil
}

func (m *memImports) AttachDraft(_ context.Context, id uuid.UUID, questions []model.DraftQuestion, meta model.OCRMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	qi.DraftQuestions = questions
	qi.OCRMetadata = meta
	return nil
}

func (m *memImports) UpdateDraftMetadata(_ context.Context, id uuid.UUID, req *model.UpdateImportMetadataRequest) (*model.QuestionImport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if req.DraftExamID != nil {
		qi.DraftExamID = req.DraftExamID
	}
	if req.DraftSubtestID != nil {
		qi.DraftSubtestID = req.DraftSubtestID
	}
	if req.DraftName != nil {
		qi.DraftName = req.DraftName
	}
	if req.DraftDescription != nil {
		qi.DraftDescription = req.DraftDescription
	}
	cp := *qi
	return &cp, nil
}

func (m *memImports) SetDraftQuestions(_ context.Context, id uuid.UUID, questions []model.DraftQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	qi.DraftQuestions = questions
	return nil
}

func (m *memImports) MarkSaved(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qi, ok := m.byID[id]
	if !ok || qi.Status != model.ImportProcessing {
		return false, nil
	}
	qi.Status = model.ImportSaved
	return true, nil
}

func (m *memImports) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	m.deleted++
	return true, nil
}

type stubObjects struct {
	removeErr   error
	removeCalls int
	saveErr     error
}

func (s *stubObjects) Save(_, _ string, _ io.Reader) error { return s.saveErr }

func (s *stubObjects) AbsPath(bucket, path string) (string, error) {
	return "/tmp/" + bucket + "/" + path, nil
}

func (s *stubObjects) Remove(_ string, _ []string) error {
	s.removeCalls++
	return s.removeErr
}

type stubDispatcher struct {
	err       error
	calls     int
	lastOpts  queue.DispatchOptions
	messageID string
}

func (s *stubDispatcher) Dispatch(_ context.Context, _ any, opts queue.DispatchOptions) (string, error) {
	s.calls++
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	if opts.MessageID != "" {
		s.messageID = opts.MessageID
	} else if s.messageID == "" {
		s.messageID = uuid.New().String()
	}
	return s.messageID, nil
}

type stubExtractor struct {
	text  string
	pages int
	err   error
}

func (s *stubExtractor) ExtractPDF(string) (string, int, error) { return s.text, s.pages, s.err }

type stubGenerator struct {
	drafts []model.DraftQuestion
	err    error
}

func (s *stubGenerator) GenerateDraftQuestions(context.Context, string) ([]model.DraftQuestion, error) {
	return s.drafts, s.err
}

type stubInserter struct {
	inserted [][]model.Question
	err      error
}

func (s *stubInserter) BulkInsert(_ context.Context, qs []model.Question) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, qs)
	return nil
}

// strPtr is a test shorthand.
func strPtr(s string) *string { return &s }

var errBoom = fmt.Errorf("boom")
