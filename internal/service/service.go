package service

import (
	"context"
	"fmt"
	"unicode"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// EventPublisher publishes domain events for downstream consumers such as
// the mailer. Implemented by event.Producer; mocked in tests.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User, verificationToken string) error
	PublishPasswordResetRequested(ctx context.Context, user *domain.User, resetToken string) error
	PublishPasswordChanged(ctx context.Context, user *domain.User) error
	PublishEmailVerified(ctx context.Context, user *domain.User) error
	PublishContactReceived(ctx context.Context, contact *domain.Contact) error
	PublishContactStatusChanged(ctx context.Context, id string, status domain.ContactStatus) error
}

// issueTokenPair generates a fresh token pair for the user. When remember is
// true the SHA-256 hash of the refresh token is written onto the user record,
// replacing any outstanding session; the caller is responsible for persisting
// the mutation. When remember is false only an access token is issued and the
// stored session, if any, is left untouched.
func issueTokenPair(m *auth.JWTManager, user *domain.User, remember bool) (*domain.TokenPair, error) {
	accessToken, err := m.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	if !remember {
		return &domain.TokenPair{AccessToken: accessToken}, nil
	}

	refreshToken, err := m.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	user.RefreshTokenHash = auth.HashToken(refreshToken)

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// validatePassword enforces the password policy for new passwords.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
