package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medhealth/vitalcore/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const pqUniqueViolation = "23505"

const insertUserQuery = `
	INSERT INTO users (id, email, password_hash, password_salt, role, is_active, failed_login_attempts, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// CreateUser inserts a new viewer account.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.IsActive = true

	_, err := s.DB.ExecContext(ctx, insertUserQuery,
		u.ID, u.Email, u.PasswordHash, u.PasswordSalt, u.Role, u.IsActive, u.FailedLoginAttempts, u.CreatedAt, u.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const selectUserByEmailQuery = `
	SELECT id, email, password_hash, password_salt, role, is_active, failed_login_attempts, locked_until, last_login_at, created_at, updated_at
	FROM users WHERE email = $1`

// GetUserByEmail looks up an active or inactive account by its normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.DB.GetContext(ctx, &u, selectUserByEmailQuery, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// EmailExists reports whether a user with the given email already exists.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// RecordLoginFailure increments the failed-attempt counter and, once it
// reaches threshold, sets locked_until in a single read-modify-write
// statement.
func (s *Store) RecordLoginFailure(ctx context.Context, userID uuid.UUID, threshold int, lockoutFor time.Duration) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = $4
		WHERE id = $1`,
		userID, threshold, time.Now().UTC().Add(lockoutFor), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// RecordLoginSuccess resets the failure counter and stamps last_login_at.
func (s *Store) RecordLoginSuccess(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	_, err := s.DB.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, last_login_at = $2, updated_at = $2
		WHERE id = $1`,
		userID, now)
	if err != nil {
		return fmt.Errorf("record login success: %w", err)
	}
	return nil
}
