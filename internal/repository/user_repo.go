package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/domain"
)

// UserRepo is a SQLite implementation of UserRepository
type UserRepo struct {
	q db.Querier
}

// NewUserRepo creates a new UserRepo
func NewUserRepo(q db.Querier) *UserRepo {
	return &UserRepo{q: q}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO users (username, full_name, is_admin) VALUES (?, ?, ?)`,
		user.Username, user.FullName, user.IsAdmin)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}

	user.ID = id
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user := &domain.User{}
	err := r.q.QueryRowContext(ctx,
		`SELECT id, username, full_name, is_admin FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, username, full_name, is_admin FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.IsAdmin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
