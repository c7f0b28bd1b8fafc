package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manikandareas/masukptn-backend/internal/model"
)

// QuestionRepository handles question-bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, subtest_id, question_type, content, options,
	correct_option, correct_rows, correct_value, explanation, created_at, updated_at`

// Create inserts a question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (subtest_id, question_type, content, options,
		        correct_option, correct_rows, correct_value, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		q.SubtestID, q.QuestionType, q.Content, q.Options,
		q.CorrectOption, q.CorrectRows, q.CorrectValue, q.Explanation,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a question with its answer key.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.SubtestID, &q.QuestionType, &q.Content, &q.Options,
		&q.CorrectOption, &q.CorrectRows, &q.CorrectValue, &q.Explanation,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByIDs retrieves multiple questions keyed by id.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*model.Question, len(ids))
	for rows.Next() {
		q := &model.Question{}
		if err := rows.Scan(&q.ID, &q.SubtestID, &q.QuestionType, &q.Content, &q.Options,
			&q.CorrectOption, &q.CorrectRows, &q.CorrectValue, &q.Explanation,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

// ListBySubtest retrieves a page of questions for one subtest.
func (r *QuestionRepository) ListBySubtest(ctx context.Context, subtestID uuid.UUID, limit, offset int) ([]model.Question, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE subtest_id = $1`, subtestID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE subtest_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		subtestID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SubtestID, &q.QuestionType, &q.Content, &q.Options,
			&q.CorrectOption, &q.CorrectRows, &q.CorrectValue, &q.Explanation,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// PickRandom draws up to n random questions from one subtest. Fewer rows
// than requested is not an error; callers decide whether the draw is usable.
func (r *QuestionRepository) PickRandom(ctx context.Context, subtestID uuid.UUID, n int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE subtest_id = $1
		 ORDER BY RANDOM()
		 LIMIT $2`,
		subtestID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SubtestID, &q.QuestionType, &q.Content, &q.Options,
			&q.CorrectOption, &q.CorrectRows, &q.CorrectValue, &q.Explanation,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Update applies a partial edit and returns the updated question.
func (r *QuestionRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`UPDATE questions SET
		     content        = COALESCE($1, content),
		     options        = COALESCE($2, options),
		     correct_option = COALESCE($3, correct_option),
		     correct_rows   = COALESCE($4, correct_rows),
		     correct_value  = COALESCE($5, correct_value),
		     explanation    = COALESCE($6, explanation),
		     updated_at     = NOW()
		 WHERE id = $7
		 RETURNING `+questionColumns,
		req.Content, req.Options, req.CorrectOption, req.CorrectRows,
		req.CorrectValue, req.Explanation, id,
	).Scan(&q.ID, &q.SubtestID, &q.QuestionType, &q.Content, &q.Options,
		&q.CorrectOption, &q.CorrectRows, &q.CorrectValue, &q.Explanation,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// BulkInsert stores a batch of questions in one transaction. Used when an
// admin saves a reviewed import draft.
func (r *QuestionRepository) BulkInsert(ctx context.Context, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (subtest_id, question_type, content, options,
			        correct_option, correct_rows, correct_value, explanation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at, updated_at`,
			q.SubtestID, q.QuestionType, q.Content, q.Options,
			q.CorrectOption, q.CorrectRows, q.CorrectValue, q.Explanation,
		).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// CountBySubtest returns the bank size for one subtest.
func (r *QuestionRepository) CountBySubtest(ctx context.Context, subtestID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE subtest_id = $1`, subtestID).Scan(&n)
	return n, err
}
