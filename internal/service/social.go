package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/repository"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
)

// SocialService links verified external identities to local accounts. Three
// outcomes exist for a sign-in: an account already bound to the external
// subject, an existing local account with the same email that gets linked,
// or a brand new account.
type SocialService struct {
	userRepo    repository.UserRepository
	jwtManager  *auth.JWTManager
	adminEmails map[string]struct{}
	events      EventPublisher
	logger      *slog.Logger
}

// NewSocialService creates a new social identity service. adminEmails is the
// allow-list of addresses that are promoted to the admin role on sign-in.
func NewSocialService(
	userRepo repository.UserRepository,
	jwtManager *auth.JWTManager,
	adminEmails []string,
	events EventPublisher,
	logger *slog.Logger,
) *SocialService {
	allow := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allow[email] = struct{}{}
		}
	}
	return &SocialService{
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		adminEmails: allow,
		events:      events,
		logger:      logger,
	}
}

// HandleExternalSignIn resolves a provider-verified identity to a local
// account, creating or linking one as needed, and issues a token pair.
func (s *SocialService) HandleExternalSignIn(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, *domain.TokenPair, error) {
	if identity.ExternalID == "" {
		return nil, nil, apperrors.InvalidInput("external identity is missing a subject")
	}
	if identity.Email == "" {
		return nil, nil, apperrors.InvalidInput("external identity is missing an email")
	}
	// Linking and creation trust the provider's email claim to prove address
	// ownership, so an identity the provider has not verified is rejected
	// before any lookup.
	if !identity.EmailVerified {
		return nil, nil, apperrors.Unauthorized("external account email is not verified")
	}

	user, err := s.userRepo.GetByExternalID(ctx, identity.ExternalID)
	switch {
	case err == nil:
		return s.signIn(ctx, user)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, nil, fmt.Errorf("get user by external id: %w", err)
	}

	user, err = s.userRepo.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return s.linkAndSignIn(ctx, user, identity)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	return s.createAndSignIn(ctx, identity)
}

// signIn completes a sign-in for an account already bound to the external
// subject.
func (s *SocialService) signIn(ctx context.Context, user *domain.User) (*domain.User, *domain.TokenPair, error) {
	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	s.applyAdminAllowList(user)

	tokens, err := issueTokenPair(s.jwtManager, user, true)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("update user after social sign-in: %w", err)
	}

	s.logger.InfoContext(ctx, "social sign-in",
		slog.String("user_id", user.ID),
		slog.String("provider", string(user.Provider)),
	)

	return user, tokens, nil
}

// linkAndSignIn binds the external identity to an existing local account.
// The provider has already verified the email, so the account's verification
// flag is forced on.
func (s *SocialService) linkAndSignIn(ctx context.Context, user *domain.User, identity domain.ExternalIdentity) (*domain.User, *domain.TokenPair, error) {
	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	user.ExternalID = identity.ExternalID
	user.Provider = identity.Provider
	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpiry = nil
	if user.Avatar == "" {
		user.Avatar = identity.Avatar
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	s.applyAdminAllowList(user)

	tokens, err := issueTokenPair(s.jwtManager, user, true)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("link external identity: %w", err)
	}

	s.logger.InfoContext(ctx, "external identity linked",
		slog.String("user_id", user.ID),
		slog.String("provider", string(identity.Provider)),
	)

	return user, tokens, nil
}

// createAndSignIn provisions a new account from the external identity.
func (s *SocialService) createAndSignIn(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, *domain.TokenPair, error) {
	role := domain.RoleUser
	if _, ok := s.adminEmails[strings.ToLower(identity.Email)]; ok {
		role = domain.RoleAdmin
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:              uuid.New().String(),
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		Email:           identity.Email,
		Role:            role,
		Provider:        identity.Provider,
		ExternalID:      identity.ExternalID,
		Avatar:          identity.Avatar,
		IsActive:        true,
		IsEmailVerified: true,
		LastLogin:       &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tokens, err := issueTokenPair(s.jwtManager, user, true)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user from external identity: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user, ""); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user created from external identity",
		slog.String("user_id", user.ID),
		slog.String("provider", string(identity.Provider)),
	)

	return user, tokens, nil
}

// applyAdminAllowList promotes allow-listed emails to admin. Promotion is
// one-directional: existing admin and super-admin roles are never touched.
func (s *SocialService) applyAdminAllowList(user *domain.User) {
	if _, ok := s.adminEmails[strings.ToLower(user.Email)]; !ok {
		return
	}
	if user.Role == domain.RoleAdmin || user.Role == domain.RoleSuperAdmin {
		return
	}
	user.Role = domain.RoleAdmin
}
