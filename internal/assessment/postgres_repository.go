package assessment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grainguard/grainguard/internal/risk"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL assessment repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new assessment.
func (r *PostgresRepository) Create(ctx context.Context, a *Assessment) error {
	query := `
		INSERT INTO assessments (
			id, operator_id, mode, score, level,
			factors, recommendations, lat, lon, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.OperatorID,
		string(a.Mode),
		a.Score,
		string(a.Level),
		a.Factors,
		a.Recommendations,
		a.Lat,
		a.Lon,
		a.CreatedAt,
	)
	return err
}

// GetByOperatorAndID retrieves an assessment scoped to an operator.
func (r *PostgresRepository) GetByOperatorAndID(ctx context.Context, operatorID, id string) (*Assessment, error) {
	query := `
		SELECT
			id, operator_id, mode, score, level,
			factors, recommendations, lat, lon, created_at
		FROM assessments
		WHERE id = $1 AND operator_id = $2
	`

	var a Assessment
	var mode, level string

	err := r.pool.QueryRow(ctx, query, id, operatorID).Scan(
		&a.ID,
		&a.OperatorID,
		&mode,
		&a.Score,
		&level,
		&a.Factors,
		&a.Recommendations,
		&a.Lat,
		&a.Lon,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	a.Mode = Mode(mode)
	a.Level = risk.Level(level)
	return &a, nil
}

// List retrieves assessments for an operator, newest first, with cursor
// pagination keyed on created_at.
func (r *PostgresRepository) List(ctx context.Context, operatorID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT
			id, operator_id, mode, score, level,
			factors, recommendations, lat, lon, created_at
		FROM assessments
		WHERE operator_id = $1
	`
	args := []interface{}{operatorID}

	if opts.Cursor != "" {
		cursor, err := time.Parse(time.RFC3339Nano, opts.Cursor)
		if err != nil {
			return nil, err
		}
		query += ` AND created_at < $2`
		args = append(args, cursor)
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Assessment
	for rows.Next() {
		var a Assessment
		var mode, level string

		err := rows.Scan(
			&a.ID,
			&a.OperatorID,
			&mode,
			&a.Score,
			&level,
			&a.Factors,
			&a.Recommendations,
			&a.Lat,
			&a.Lon,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		a.Mode = Mode(mode)
		a.Level = risk.Level(level)
		items = append(items, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{}
	if len(items) > limit {
		items = items[:limit]
		result.NextCursor = items[limit-1].CreatedAt.Format(time.RFC3339Nano)
	}
	result.Items = items

	return result, nil
}

// Delete removes an assessment scoped to an operator.
func (r *PostgresRepository) Delete(ctx context.Context, operatorID, id string) error {
	query := `DELETE FROM assessments WHERE id = $1 AND operator_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, operatorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssessmentNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
