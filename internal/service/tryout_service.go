package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/manikandareas/masukptn-backend/internal/examclock"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/scoring"
	"github.com/rs/zerolog"
)

// clockCacheSlack pads the section-start cache TTL past the section budget
// so a section running into overtime still hits the cache.
const clockCacheSlack = time.Hour

// TryoutState is the clock-bearing view of a running tryout. ServerTime is
// the reference for client offset correction; RemainingSeconds is nil while
// the current section's clock has not started.
type TryoutState struct {
	Attempt          model.Attempt           `json:"attempt"`
	Section          *model.BlueprintSection `json:"section,omitempty"`
	SectionCount     int                     `json:"section_count"`
	ServerTime       time.Time               `json:"server_time"`
	RemainingSeconds *int                    `json:"remaining_seconds,omitempty"`
	Finished         bool                    `json:"finished"`
}

// TryoutService runs multi-section timed tryout attempts. All clock
// decisions use the server clock; the section state machine lives in
// conditional attempt-row updates so concurrent requests cannot corrupt it.
type TryoutService struct {
	attempts   attemptStore
	questions  questionStore
	blueprints blueprintStore
	clock      clockCache
	log        zerolog.Logger
	now        func() time.Time
}

// NewTryoutService creates a new TryoutService.
func NewTryoutService(attempts attemptStore, questions questionStore, blueprints blueprintStore, clock clockCache, log zerolog.Logger) *TryoutService {
	return &TryoutService{
		attempts:   attempts,
		questions:  questions,
		blueprints: blueprints,
		clock:      clock,
		log:        log.With().Str("component", "tryout_service").Logger(),
		now:        time.Now,
	}
}

// Start creates a tryout attempt from an active blueprint: items drawn per
// section in section order, section index at zero, no clock running.
func (s *TryoutService) Start(ctx context.Context, userID uuid.UUID, req *model.StartTryoutRequest) (*AttemptDetail, error) {
	bp, err := s.blueprints.GetByID(ctx, req.BlueprintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load blueprint: %w", err)
	}
	if bp.Status != model.BlueprintStatusActive || len(bp.Sections) == 0 {
		return nil, ErrMissingBlueprint
	}

	var items []model.AttemptItem
	var picked []model.Question
	orderNum := 0
	for _, section := range bp.Sections {
		qs, err := s.questions.PickRandom(ctx, section.SubtestID, section.QuestionCount)
		if err != nil {
			return nil, fmt.Errorf("pick questions for section %d: %w", section.OrderNum, err)
		}
		if len(qs) < section.QuestionCount {
			return nil, ErrInsufficientBank
		}
		for _, q := range qs {
			items = append(items, model.AttemptItem{QuestionID: q.ID, OrderNum: orderNum})
			picked = append(picked, q)
			orderNum++
		}
	}

	attempt := &model.Attempt{
		UserID:         userID,
		Mode:           model.ModeTryout,
		Status:         model.AttemptInProgress,
		BlueprintID:    &bp.ID,
		ConfigSnapshot: model.ConfigSnapshot{CurrentSectionIndex: 0},
	}
	if err := s.attempts.Create(ctx, attempt, items); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	detail := &AttemptDetail{Attempt: *attempt, Items: make([]AttemptItemDetail, len(items))}
	for i := range items {
		detail.Items[i] = AttemptItemDetail{
			AttemptItem: items[i],
			Question:    picked[i].ForAttempt(),
		}
	}
	return detail, nil
}

// Get retrieves the attempt detail together with the current clock state.
func (s *TryoutService) Get(ctx context.Context, userID, attemptID uuid.UUID) (*AttemptDetail, *TryoutState, error) {
	attempt, items, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}

	detail, err := buildDetail(ctx, s.questions, attempt, items)
	if err != nil {
		return nil, nil, err
	}
	state, err := s.State(ctx, attempt)
	if err != nil {
		return nil, nil, err
	}
	return detail, state, nil
}

// StateByID loads the attempt and computes its clock state. Lighter than
// Get: no question payloads, suitable for polling and the clock stream.
func (s *TryoutService) StateByID(ctx context.Context, userID, attemptID uuid.UUID) (*TryoutState, error) {
	attempt, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	return s.State(ctx, attempt)
}

// State computes the clock view for a loaded attempt. The section start
// timestamp is read through the cache with the attempt row as fallback; a
// miss self-heals the cache.
func (s *TryoutService) State(ctx context.Context, attempt *model.Attempt) (*TryoutState, error) {
	if attempt.BlueprintID == nil {
		return nil, ErrMissingBlueprint
	}
	bp, err := s.blueprints.GetByID(ctx, *attempt.BlueprintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMissingBlueprint
		}
		return nil, fmt.Errorf("load blueprint: %w", err)
	}

	state := &TryoutState{
		Attempt:      *attempt,
		SectionCount: len(bp.Sections),
		ServerTime:   s.now().UTC(),
	}

	idx := attempt.ConfigSnapshot.CurrentSectionIndex
	if idx >= len(bp.Sections) {
		state.Finished = true
		return state, nil
	}
	section := bp.Sections[idx]
	state.Section = &section

	// The attempt row is authoritative. When it says the section has not
	// started, any cache entry is leftover from the previous section (a
	// ClearStart that never landed) and must be ignored; a cache entry that
	// disagrees with a started row is equally stale and gets overwritten.
	startedAt := attempt.ConfigSnapshot.SectionStartedAt
	if startedAt != nil {
		if cached, err := s.clock.GetStart(ctx, attempt.ID); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Clock cache read failed, using attempt row")
		} else if cached == nil || !cached.Equal(*startedAt) {
			ttl := time.Duration(section.DurationSeconds)*time.Second + clockCacheSlack
			if err := s.clock.SetStart(ctx, attempt.ID, *startedAt, ttl); err != nil {
				s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Clock cache heal failed")
			}
		}
	}

	if startedAt != nil {
		remaining := examclock.Remaining(0, *startedAt, section.DurationSeconds, s.now)
		state.RemainingSeconds = &remaining
	}
	return state, nil
}

// StartSection starts the clock for the given section index. Idempotent: a
// retry that finds the same section already running is reported as success
// with the original timestamp intact. An index other than the current one
// is rejected.
func (s *TryoutService) StartSection(ctx context.Context, userID, attemptID uuid.UUID, sectionIndex int) (*TryoutState, error) {
	attempt, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrAlreadyCompleted
	}
	if sectionIndex != attempt.ConfigSnapshot.CurrentSectionIndex {
		return nil, ErrSectionOrder
	}

	startedAt := s.now().UTC()
	claimed, err := s.attempts.StartSection(ctx, attemptID, userID, sectionIndex, startedAt)
	if err != nil {
		return nil, fmt.Errorf("start section: %w", err)
	}

	attempt, _, err = s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the conditional write. Same index with a running clock means
		// another request already started it: treat as success.
		if attempt.ConfigSnapshot.CurrentSectionIndex != sectionIndex ||
			attempt.ConfigSnapshot.SectionStartedAt == nil {
			return nil, ErrSectionOrder
		}
	}

	// State caches the fresh start timestamp as part of its self-heal.
	return s.State(ctx, attempt)
}

// AdvanceSection closes the running section and moves to the next one. Past
// the last section the attempt is finalized instead. Replays of the same
// advance are harmless: the conditional update only fires once.
func (s *TryoutService) AdvanceSection(ctx context.Context, userID, attemptID uuid.UUID, fromIndex int) (*TryoutState, error) {
	attempt, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrAlreadyCompleted
	}
	if fromIndex != attempt.ConfigSnapshot.CurrentSectionIndex {
		return nil, ErrSectionOrder
	}
	if attempt.ConfigSnapshot.SectionStartedAt == nil {
		return nil, ErrSectionNotStarted
	}

	if _, err := s.attempts.AdvanceSection(ctx, attemptID, userID, fromIndex); err != nil {
		return nil, fmt.Errorf("advance section: %w", err)
	}
	if err := s.clock.ClearStart(ctx, attemptID); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Clock cache clear failed")
	}

	attempt, _, err = s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	state, err := s.State(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if state.Finished {
		if _, err := s.CalculateResults(ctx, userID, attemptID); err != nil {
			return nil, err
		}
		attempt, _, err = s.loadOwned(ctx, userID, attemptID)
		if err != nil {
			return nil, err
		}
		state.Attempt = *attempt
	}
	return state, nil
}

// SubmitAnswer validates and grades an answer for a tryout item. The
// section clock must be running.
func (s *TryoutService) SubmitAnswer(ctx context.Context, userID, attemptID, itemID uuid.UUID, req *model.SubmitAnswerRequest) (*model.AttemptItem, error) {
	attempt, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrAlreadyCompleted
	}
	if attempt.ConfigSnapshot.SectionStartedAt == nil {
		return nil, ErrSectionNotStarted
	}

	item, err := s.attempts.GetItem(ctx, attemptID, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}

	question, err := s.questions.GetByID(ctx, item.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if err := req.Answer.ValidateFor(question.QuestionType); err != nil {
		return nil, err
	}

	verdict := model.Grade(question, req.Answer)
	updated, err := s.attempts.SubmitAnswer(ctx, attemptID, itemID, req.Answer, verdict, req.TimeSpentSeconds)
	if err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}
	return updated, nil
}

// CalculateResults computes the aggregate over all items and seals the
// attempt. Idempotent: once completed, re-invocation leaves the stored
// results untouched and returns them as-is.
func (s *TryoutService) CalculateResults(ctx context.Context, userID, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, items, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptCompleted {
		return attempt, nil
	}

	outcomes := make([]scoring.ItemOutcome, len(items))
	for i, it := range items {
		outcomes[i] = scoring.ItemOutcome{
			IsCorrect:        it.IsCorrect,
			TimeSpentSeconds: it.TimeSpentSeconds,
		}
	}
	results := scoring.Calculate(outcomes, nil, attempt.TotalTimeSeconds)

	applied, err := s.attempts.Complete(ctx, attemptID, userID, results, &results.TotalTimeSeconds)
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if !applied {
		s.log.Debug().Str("attempt_id", attemptID.String()).Msg("Attempt already completed, returning stored results")
	}
	if err := s.clock.ClearStart(ctx, attemptID); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Clock cache clear failed")
	}

	sealed, _, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// List retrieves the user's tryout attempts.
func (s *TryoutService) List(ctx context.Context, userID uuid.UUID) ([]model.Attempt, error) {
	mode := model.ModeTryout
	return s.attempts.ListByUser(ctx, userID, &mode)
}

// loadOwned loads an attempt and enforces ownership and tryout mode.
func (s *TryoutService) loadOwned(ctx context.Context, userID, attemptID uuid.UUID) (*model.Attempt, []model.AttemptItem, error) {
	attempt, items, err := s.attempts.GetWithItems(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("load attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, nil, ErrForbidden
	}
	if attempt.Mode != model.ModeTryout {
		return nil, nil, ErrInvalidMode
	}
	return attempt, items, nil
}
