package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/repository"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
)

// AuthService implements the account and session lifecycle: registration,
// credential login with lockout, refresh token rotation, and the single-use
// password reset and email verification token flows.
type AuthService struct {
	userRepo        repository.UserRepository
	jwtManager      *auth.JWTManager
	lockout         auth.LockoutPolicy
	events          EventPublisher
	verificationTTL time.Duration
	resetTTL        time.Duration
	logger          *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *auth.JWTManager,
	lockout auth.LockoutPolicy,
	events EventPublisher,
	verificationTTL time.Duration,
	resetTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		jwtManager:      jwtManager,
		lockout:         lockout,
		events:          events,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		logger:          logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Phone       string
	Affiliation string
	Newsletter  bool
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// UpdateProfileInput holds the parameters for updating a user's profile.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Affiliation *string
	Newsletter  *bool
}

// Register creates a new local account, issues an initial token pair, and
// starts the email verification flow.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.FirstName == "" {
		return nil, nil, apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, nil, apperrors.InvalidInput("last name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, apperrors.AlreadyExists("user", "email", input.Email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, fmt.Errorf("check existing email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate verification token: %w", err)
	}

	now := time.Now().UTC()
	verificationExpiry := now.Add(s.verificationTTL)
	user := &domain.User{
		ID:                      uuid.New().String(),
		FirstName:               input.FirstName,
		LastName:                input.LastName,
		Email:                   input.Email,
		PasswordHash:            string(hashedPassword),
		Phone:                   input.Phone,
		Affiliation:             input.Affiliation,
		Newsletter:              input.Newsletter,
		Role:                    domain.RoleUser,
		Provider:                domain.ProviderLocal,
		IsActive:                true,
		IsEmailVerified:         false,
		EmailVerificationToken:  verificationToken,
		EmailVerificationExpiry: &verificationExpiry,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	// Issue the initial token pair before the insert so the session slot
	// lands in the same write.
	tokens, err := issueTokenPair(s.jwtManager, user, true)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, nil, apperrors.AlreadyExists("user", "email", input.Email)
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user, verificationToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates a user with email and password. A durable refresh
// session is stored only when the caller asked to be remembered.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	now := time.Now().UTC()

	// A locked account rejects the attempt before the password is even
	// checked.
	if s.lockout.IsLocked(user.LockUntil, now) {
		return nil, nil, apperrors.Locked("account is temporarily locked due to too many failed login attempts")
	}

	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	if !user.HasPassword() {
		// Social-only account; indistinguishable from a bad password.
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		state := s.lockout.OnFailedAttempt(auth.LockoutState{
			Attempts:  user.LoginAttempts,
			LockUntil: user.LockUntil,
		}, now)
		user.LoginAttempts = state.Attempts
		user.LockUntil = state.LockUntil

		// The counter must land before the caller learns the attempt failed;
		// otherwise a flaky store silently disables the lockout.
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("persist failed login attempt: %w", err)
		}

		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	state := s.lockout.OnSuccess()
	user.LoginAttempts = state.Attempts
	user.LockUntil = state.LockUntil
	user.LastLogin = &now

	tokens, err := issueTokenPair(s.jwtManager, user, input.RememberMe)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("update user after login: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Refresh rotates the session: the presented refresh token must match the
// single stored slot, and a successful call overwrites that slot so the old
// token is permanently unusable.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid or expired refresh token")
		}
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenHash != auth.HashToken(refreshToken) {
		return nil, apperrors.Unauthorized("refresh token is no longer valid")
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	tokens, err := issueTokenPair(s.jwtManager, user, true)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user after refresh: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return tokens, nil
}

// Logout clears the stored refresh session for the user. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user for logout: %w", err)
	}

	user.RefreshTokenHash = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("clear refresh session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ChangePassword allows an authenticated user to change their password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}

	if !user.HasPassword() {
		return apperrors.InvalidInput("account has no password set")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if err := s.events.PublishPasswordChanged(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_changed event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// RequestPasswordReset starts the reset flow. The outcome is identical
// whether or not the email exists; the issued token is returned so the
// handler can surface it in development environments.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email",
				slog.String("email", email),
			)
			return "", nil
		}
		return "", fmt.Errorf("get user by email: %w", err)
	}

	resetToken, err := auth.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	expiry := time.Now().UTC().Add(s.resetTTL)
	user.PasswordResetToken = resetToken
	user.PasswordResetExpiry = &expiry

	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("persist reset token: %w", err)
	}

	if err := s.events.PublishPasswordResetRequested(ctx, user, resetToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_reset_requested event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return resetToken, nil
}

// ResetPassword consumes a single-use reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.InvalidToken("reset token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidToken("invalid or expired reset token")
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	// Consume the token in the same write that changes the password.
	user.PasswordHash = string(hashedPassword)
	user.PasswordResetToken = ""
	user.PasswordResetExpiry = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if err := s.events.PublishPasswordChanged(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_changed event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// VerifyEmail consumes a single-use verification token and marks the
// account's email as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.InvalidToken("verification token is required")
	}

	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidToken("invalid or expired verification token")
		}
		return nil, fmt.Errorf("get user by verification token: %w", err)
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpiry = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user after verification: %w", err)
	}

	if err := s.events.PublishEmailVerified(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.email_verified event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// GetProfile retrieves a user by their ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, apperrors.InvalidInput("first name must not be empty")
		}
		user.FirstName = *input.FirstName
	}

	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, apperrors.InvalidInput("last name must not be empty")
		}
		user.LastName = *input.LastName
	}

	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if input.Affiliation != nil {
		user.Affiliation = *input.Affiliation
	}

	if input.Newsletter != nil {
		user.Newsletter = *input.Newsletter
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}
