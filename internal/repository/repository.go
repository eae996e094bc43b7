package repository

import (
	"context"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByExternalID retrieves a user by their OAuth provider subject.
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)

	// GetByResetToken retrieves a user whose password reset token matches and
	// has not expired.
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)

	// GetByVerificationToken retrieves a user whose email verification token
	// matches and has not expired.
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)

	// Update persists the full mutated user record.
	Update(ctx context.Context, user *domain.User) error
}

// ContactRepository defines the interface for contact submission persistence.
type ContactRepository interface {
	// Create inserts a new contact submission.
	Create(ctx context.Context, contact *domain.Contact) error

	// GetByID retrieves a submission by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Contact, error)

	// List returns a page of submissions, optionally filtered by status,
	// newest first, along with the total matching count.
	List(ctx context.Context, status domain.ContactStatus, params pagination.Params) ([]domain.Contact, int, error)

	// UpdateStatus changes the moderation status of a submission. Moving to
	// responded records the responder and an optional note.
	UpdateStatus(ctx context.Context, id string, status domain.ContactStatus, respondedBy, responseNote string) error

	// Delete removes a submission by its identifier.
	Delete(ctx context.Context, id string) error

	// Stats returns aggregate submission counts by status, subject, and the
	// trailing seven days.
	Stats(ctx context.Context) (*domain.ContactStats, error)
}
