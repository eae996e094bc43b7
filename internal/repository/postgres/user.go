package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
)

const userColumns = `id, first_name, last_name, email, password_hash, phone, affiliation, newsletter,
	role, provider, external_id, avatar, is_active, is_email_verified, refresh_token_hash,
	login_attempts, lock_until, password_reset_token, password_reset_expiry,
	email_verification_token, email_verification_expiry, last_login, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Phone,
		u.Affiliation,
		u.Newsletter,
		string(u.Role),
		string(u.Provider),
		u.ExternalID,
		u.Avatar,
		u.IsActive,
		u.IsEmailVerified,
		u.RefreshTokenHash,
		u.LoginAttempts,
		u.LockUntil,
		u.PasswordResetToken,
		u.PasswordResetExpiry,
		u.EmailVerificationToken,
		u.EmailVerificationExpiry,
		u.LastLogin,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(ctx, query, email)
}

// GetByExternalID retrieves a user by their OAuth provider subject.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1 AND external_id <> ''`
	return r.scanUser(ctx, query, externalID)
}

// GetByResetToken retrieves a user whose reset token matches and is unexpired.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token = $1 AND password_reset_token <> '' AND password_reset_expiry > now()`
	return r.scanUser(ctx, query, token)
}

// GetByVerificationToken retrieves a user whose verification token matches and is unexpired.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email_verification_token = $1 AND email_verification_token <> '' AND email_verification_expiry > now()`
	return r.scanUser(ctx, query, token)
}

// Update persists the full mutated user record.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, password_hash = $4, phone = $5,
		    affiliation = $6, newsletter = $7, role = $8, provider = $9, external_id = $10,
		    avatar = $11, is_active = $12, is_email_verified = $13, refresh_token_hash = $14,
		    login_attempts = $15, lock_until = $16, password_reset_token = $17,
		    password_reset_expiry = $18, email_verification_token = $19,
		    email_verification_expiry = $20, last_login = $21, updated_at = $22
		WHERE id = $23`

	ct, err := r.db.Exec(ctx, query,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Phone,
		u.Affiliation,
		u.Newsletter,
		string(u.Role),
		string(u.Provider),
		u.ExternalID,
		u.Avatar,
		u.IsActive,
		u.IsEmailVerified,
		u.RefreshTokenHash,
		u.LoginAttempts,
		u.LockUntil,
		u.PasswordResetToken,
		u.PasswordResetExpiry,
		u.EmailVerificationToken,
		u.EmailVerificationExpiry,
		u.LastLogin,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var (
		u        domain.User
		role     string
		provider string
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Affiliation,
		&u.Newsletter,
		&role,
		&provider,
		&u.ExternalID,
		&u.Avatar,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.RefreshTokenHash,
		&u.LoginAttempts,
		&u.LockUntil,
		&u.PasswordResetToken,
		&u.PasswordResetExpiry,
		&u.EmailVerificationToken,
		&u.EmailVerificationExpiry,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = domain.Role(role)
	u.Provider = domain.Provider(provider)

	return &u, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
