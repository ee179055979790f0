package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imperionite/fm-core/internal/domain"
)

func (r *Repository) EnsureUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, is_staff)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, is_staff = EXCLUDED.is_staff`

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Staff); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, email, is_staff, created_at FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Staff,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return &user, nil
}
