package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manikandareas/masukptn-backend/internal/model"
)

// BlueprintRepository handles blueprint and blueprint-section data access.
type BlueprintRepository struct {
	pool *pgxpool.Pool
}

// NewBlueprintRepository creates a new BlueprintRepository.
func NewBlueprintRepository(pool *pgxpool.Pool) *BlueprintRepository {
	return &BlueprintRepository{pool: pool}
}

// Create inserts a blueprint with its ordered sections in one transaction.
// Sections are numbered by their position in the payload.
func (r *BlueprintRepository) Create(ctx context.Context, b *model.Blueprint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO blueprints (exam_id, version, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		b.ExamID, b.Version, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert blueprint: %w", err)
	}

	for i := range b.Sections {
		s := &b.Sections[i]
		s.BlueprintID = b.ID
		s.OrderNum = i
		err = tx.QueryRow(ctx,
			`INSERT INTO blueprint_sections (blueprint_id, subtest_id, order_num, question_count, duration_seconds)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			b.ID, s.SubtestID, s.OrderNum, s.QuestionCount, s.DurationSeconds,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("insert section %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a blueprint with its sections in order, each section
// joined with its subtest code and name.
func (r *BlueprintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Blueprint, error) {
	b := &model.Blueprint{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, version, status, created_at
		 FROM blueprints WHERE id = $1`, id,
	).Scan(&b.ID, &b.ExamID, &b.Version, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT bs.id, bs.blueprint_id, bs.subtest_id, st.code, st.name,
		        bs.order_num, bs.question_count, bs.duration_seconds
		 FROM blueprint_sections bs
		 JOIN subtests st ON st.id = bs.subtest_id
		 WHERE bs.blueprint_id = $1
		 ORDER BY bs.order_num ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.BlueprintSection
		if err := rows.Scan(&s.ID, &s.BlueprintID, &s.SubtestID, &s.SubtestCode, &s.SubtestName,
			&s.OrderNum, &s.QuestionCount, &s.DurationSeconds); err != nil {
			return nil, err
		}
		b.Sections = append(b.Sections, s)
	}
	return b, rows.Err()
}

// ListByExam retrieves an exam's blueprints without sections, newest version
// first.
func (r *BlueprintRepository) ListByExam(ctx context.Context, examID uuid.UUID, status *model.BlueprintStatus) ([]model.Blueprint, error) {
	query := `SELECT id, exam_id, version, status, created_at
	          FROM blueprints WHERE exam_id = $1`
	args := []any{examID}
	if status != nil {
		args = append(args, *status)
		query += ` AND status = $2`
	}
	query += ` ORDER BY version DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blueprints []model.Blueprint
	for rows.Next() {
		var b model.Blueprint
		if err := rows.Scan(&b.ID, &b.ExamID, &b.Version, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		blueprints = append(blueprints, b)
	}
	return blueprints, rows.Err()
}

// Archive marks a blueprint archived. Existing attempts keep their snapshot
// and are unaffected.
func (r *BlueprintRepository) Archive(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE blueprints SET status = 'archived' WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
