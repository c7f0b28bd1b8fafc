package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/scoring"
)

// AttemptRepository handles attempt and attempt-item data access. It is the
// session record store: answer correctness is computed by callers but only
// persisted here, and the conditional writes below are what make section
// start and completion race-safe.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts an attempt together with its ordered items in one
// transaction.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt, items []model.AttemptItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	snapshot, err := json.Marshal(a.ConfigSnapshot)
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (user_id, mode, status, blueprint_id, subtest_id, config_snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.UserID, a.Mode, a.Status, a.BlueprintID, a.SubtestID, snapshot,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	for i := range items {
		items[i].AttemptID = a.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO attempt_items (attempt_id, question_id, order_num)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			a.ID, items[i].QuestionID, items[i].OrderNum,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetWithItems retrieves an attempt and its items ordered by order_num.
// Returns pgx.ErrNoRows when the attempt does not exist.
func (r *AttemptRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*model.Attempt, []model.AttemptItem, error) {
	a, err := r.scanAttempt(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, order_num, user_answer, is_correct, answered_at, time_spent_seconds
		 FROM attempt_items
		 WHERE attempt_id = $1
		 ORDER BY order_num ASC`, id,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []model.AttemptItem
	for rows.Next() {
		var it model.AttemptItem
		var answerRaw []byte
		if err := rows.Scan(&it.ID, &it.AttemptID, &it.QuestionID, &it.OrderNum,
			&answerRaw, &it.IsCorrect, &it.AnsweredAt, &it.TimeSpentSeconds); err != nil {
			return nil, nil, err
		}
		if len(answerRaw) > 0 {
			var ans model.Answer
			if err := json.Unmarshal(answerRaw, &ans); err != nil {
				return nil, nil, fmt.Errorf("unmarshal answer for item %s: %w", it.ID, err)
			}
			it.UserAnswer = &ans
		}
		items = append(items, it)
	}

	return a, items, rows.Err()
}

// GetItem retrieves one attempt item scoped to its parent attempt.
func (r *AttemptRepository) GetItem(ctx context.Context, attemptID, itemID uuid.UUID) (*model.AttemptItem, error) {
	var it model.AttemptItem
	var answerRaw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, attempt_id, question_id, order_num, user_answer, is_correct, answered_at, time_spent_seconds
		 FROM attempt_items
		 WHERE attempt_id = $1 AND id = $2`, attemptID, itemID,
	).Scan(&it.ID, &it.AttemptID, &it.QuestionID, &it.OrderNum,
		&answerRaw, &it.IsCorrect, &it.AnsweredAt, &it.TimeSpentSeconds)
	if err != nil {
		return nil, err
	}
	if len(answerRaw) > 0 {
		var ans model.Answer
		if err := json.Unmarshal(answerRaw, &ans); err != nil {
			return nil, fmt.Errorf("unmarshal answer: %w", err)
		}
		it.UserAnswer = &ans
	}
	return &it, nil
}

// SubmitAnswer persists an item's answer, verdict and timing, returning the
// updated item. Only this write mutates items — completion never touches
// them directly.
func (r *AttemptRepository) SubmitAnswer(ctx context.Context, attemptID, itemID uuid.UUID, answer model.Answer, isCorrect *bool, timeSpent *int) (*model.AttemptItem, error) {
	raw, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("marshal answer: %w", err)
	}

	var it model.AttemptItem
	var answerRaw []byte
	err = r.pool.QueryRow(ctx,
		`UPDATE attempt_items
		 SET user_answer = $1, is_correct = $2, answered_at = NOW(), time_spent_seconds = $3
		 WHERE attempt_id = $4 AND id = $5
		 RETURNING id, attempt_id, question_id, order_num, user_answer, is_correct, answered_at, time_spent_seconds`,
		raw, isCorrect, timeSpent, attemptID, itemID,
	).Scan(&it.ID, &it.AttemptID, &it.QuestionID, &it.OrderNum,
		&answerRaw, &it.IsCorrect, &it.AnsweredAt, &it.TimeSpentSeconds)
	if err != nil {
		return nil, err
	}
	if len(answerRaw) > 0 {
		var ans model.Answer
		if err := json.Unmarshal(answerRaw, &ans); err != nil {
			return nil, fmt.Errorf("unmarshal answer: %w", err)
		}
		it.UserAnswer = &ans
	}
	return &it, nil
}

// StartSection stamps the section start timestamp, conditional on the
// requested index being current and the clock not already running. Returns
// whether this call claimed the start: the loser of a near-simultaneous
// race observes false and must re-read rather than overwrite the timestamp.
func (r *AttemptRepository) StartSection(ctx context.Context, attemptID, userID uuid.UUID, sectionIndex int, startedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET config_snapshot = config_snapshot ||
		     jsonb_build_object('section_started_at', to_jsonb($1::timestamptz))
		 WHERE id = $2 AND user_id = $3 AND mode = 'tryout' AND status = 'in_progress'
		   AND (config_snapshot->>'current_section_index')::int = $4
		   AND config_snapshot->>'section_started_at' IS NULL`,
		startedAt, attemptID, userID, sectionIndex)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AdvanceSection moves a running attempt to the next section: bumps the
// index and clears the start timestamp. Conditional on the expected index
// so replays of an expiry advance are harmless.
func (r *AttemptRepository) AdvanceSection(ctx context.Context, attemptID, userID uuid.UUID, fromIndex int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET config_snapshot = (config_snapshot - 'section_started_at') ||
		     jsonb_build_object('current_section_index', $1::int)
		 WHERE id = $2 AND user_id = $3 AND mode = 'tryout' AND status = 'in_progress'
		   AND (config_snapshot->>'current_section_index')::int = $4
		   AND config_snapshot->>'section_started_at' IS NOT NULL`,
		fromIndex+1, attemptID, userID, fromIndex)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Complete seals an attempt with its results, conditional on it not being
// completed yet. Returns whether this call performed the completion.
func (r *AttemptRepository) Complete(ctx context.Context, attemptID, userID uuid.UUID, results scoring.Result, totalTime *int) (bool, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return false, fmt.Errorf("marshal results: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'completed', results = $1, total_time_seconds = $2, completed_at = NOW()
		 WHERE id = $3 AND user_id = $4 AND status <> 'completed'`,
		raw, totalTime, attemptID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser retrieves a user's attempts, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID, mode *model.AttemptMode) ([]model.Attempt, error) {
	query := `SELECT id, user_id, mode, status, blueprint_id, subtest_id, config_snapshot,
	                 results, total_time_seconds, completed_at, created_at
	          FROM attempts WHERE user_id = $1`
	args := []any{userID}
	if mode != nil {
		args = append(args, *mode)
		query += ` AND mode = $2`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttemptRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

func (r *AttemptRepository) scanAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, mode, status, blueprint_id, subtest_id, config_snapshot,
		        results, total_time_seconds, completed_at, created_at
		 FROM attempts WHERE id = $1`, id)
	return scanAttemptRow(row.Scan)
}

// scanAttemptRow decodes one attempt row, unpacking the jsonb columns.
func scanAttemptRow(scan func(dest ...any) error) (*model.Attempt, error) {
	a := &model.Attempt{}
	var snapshotRaw, resultsRaw []byte

	err := scan(&a.ID, &a.UserID, &a.Mode, &a.Status, &a.BlueprintID, &a.SubtestID,
		&snapshotRaw, &resultsRaw, &a.TotalTimeSeconds, &a.CompletedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(snapshotRaw) > 0 {
		if err := json.Unmarshal(snapshotRaw, &a.ConfigSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal config snapshot: %w", err)
		}
	}
	if len(resultsRaw) > 0 {
		var res scoring.Result
		if err := json.Unmarshal(resultsRaw, &res); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		a.Results = &res
	}
	return a, nil
}
