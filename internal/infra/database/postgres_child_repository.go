package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"task_reminder_engine/internal/domain/child"
)

var ErrChildNotFound = fmt.Errorf("child not found")

type PostgresChildRepository struct {
	db *sql.DB
}

func NewPostgresChildRepository(db *sql.DB) *PostgresChildRepository {
	return &PostgresChildRepository{db: db}
}

func (r *PostgresChildRepository) Create(ctx context.Context, c *child.Child) error {
	query := `INSERT INTO children (id, display_name, parent_telegram_id, is_active)
               VALUES ($1, $2, $3, $4)
               RETURNING created_at, updated_at`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query, c.ID, c.DisplayName, c.ParentTelegramID, c.IsActive).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating child: %w", err)
	}
	return nil
}

func (r *PostgresChildRepository) GetByID(ctx context.Context, id uuid.UUID) (*child.Child, error) {
	query := `SELECT id, display_name, parent_telegram_id, is_active, created_at, updated_at
               FROM children WHERE id = $1`
	c := child.Child{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.DisplayName, &c.ParentTelegramID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("error getting child by ID: %w", err)
	}
	return &c, nil
}

func (r *PostgresChildRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM children WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking child existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresChildRepository) ListActive(ctx context.Context) ([]*child.Child, error) {
	query := `SELECT id, display_name, parent_telegram_id, is_active, created_at, updated_at
               FROM children WHERE is_active = TRUE ORDER BY display_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying active children: %w", err)
	}
	defer rows.Close()
	return scanChildren(rows)
}

func (r *PostgresChildRepository) ListAll(ctx context.Context) ([]*child.Child, error) {
	query := `SELECT id, display_name, parent_telegram_id, is_active, created_at, updated_at
               FROM children ORDER BY display_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying children: %w", err)
	}
	defer rows.Close()
	return scanChildren(rows)
}

func scanChildren(rows *sql.Rows) ([]*child.Child, error) {
	children := make([]*child.Child, 0)
	for rows.Next() {
		c := child.Child{}
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.ParentTelegramID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning child row: %w", err)
		}
		children = append(children, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating child rows: %w", err)
	}
	return children, nil
}
