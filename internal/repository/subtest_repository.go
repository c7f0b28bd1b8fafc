package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manikandareas/masukptn-backend/internal/model"
)

// SubtestRepository handles subtest data access.
type SubtestRepository struct {
	pool *pgxpool.Pool
}

// NewSubtestRepository creates a new SubtestRepository.
func NewSubtestRepository(pool *pgxpool.Pool) *SubtestRepository {
	return &SubtestRepository{pool: pool}
}

// Create inserts a subtest.
func (r *SubtestRepository) Create(ctx context.Context, s *model.Subtest) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subtests (code, name, order_num)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.Code, s.Name, s.OrderNum,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves a subtest.
func (r *SubtestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subtest, error) {
	s := &model.Subtest{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, order_num, created_at
		 FROM subtests WHERE id = $1`, id,
	).Scan(&s.ID, &s.Code, &s.Name, &s.OrderNum, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List retrieves all subtests in display order.
func (r *SubtestRepository) List(ctx context.Context) ([]model.Subtest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, order_num, created_at
		 FROM subtests ORDER BY order_num ASC, code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtests []model.Subtest
	for rows.Next() {
		var s model.Subtest
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.OrderNum, &s.CreatedAt); err != nil {
			return nil, err
		}
		subtests = append(subtests, s)
	}
	return subtests, rows.Err()
}

// Delete removes a subtest.
func (r *SubtestRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subtests WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
