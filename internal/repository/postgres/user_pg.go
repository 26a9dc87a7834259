// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/util"
	"ledger-bank/pkg/db"
)

const userColumns = `user_id, name, email, phone, address, password_hash`

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user into the database using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (name, email, phone, address, password_hash)
              VALUES ($1, $2, $3, $4, $5) RETURNING user_id`
	err := q.QueryRowContext(ctx, query, user.Name, user.Email, user.Phone, user.Address, user.PasswordHash).Scan(&user.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email '%s' is already registered", util.ErrDuplicateEntry, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID using the provided DBExecutor.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	if err := q.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email using the provided DBExecutor.
func (r *UserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := q.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email '%s': %w", email, err)
	}
	return &user, nil
}

// ListUsers retrieves every user.
func (r *UserRepository) ListUsers(ctx context.Context, q repository.DBExecutor) ([]domain.User, error) {
	users := []domain.User{}
	if err := q.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser writes every column of user.
func (r *UserRepository) UpdateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `UPDATE users SET name = $1, email = $2, phone = $3, address = $4, password_hash = $5 WHERE user_id = $6`
	result, err := q.ExecContext(ctx, query, user.Name, user.Email, user.Phone, user.Address, user.PasswordHash, user.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email '%s' is already registered", util.ErrDuplicateEntry, user.Email)
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return expectOneRow(result, "user", user.ID)
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return util.ErrUserInUse
		}
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return expectOneRow(result, "user", id)
}
