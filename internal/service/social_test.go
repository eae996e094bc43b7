package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
)

func newTestSocialService(userRepo *mockUserRepository, adminEmails []string) *SocialService {
	return NewSocialService(userRepo, newTestJWTManager(), adminEmails, newRelaxedPublisher(), newTestLogger())
}

func googleIdentity() domain.ExternalIdentity {
	return domain.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		ExternalID:    "google-sub-1",
		Email:         "john@example.com",
		FirstName:     "John",
		LastName:      "Doe",
		Avatar:        "https://example.com/avatar.png",
		EmailVerified: true,
	}
}

func TestExternalSignIn_ExistingExternalID(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.Provider = domain.ProviderGoogle
	user.ExternalID = "google-sub-1"
	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, tokens, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, auth.HashToken(tokens.RefreshToken), user.RefreshTokenHash)
	require.NotNil(t, user.LastLogin)
	userRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestExternalSignIn_LinksExistingLocalAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, nil)
	ctx := context.Background()

	// Local account with an unconsumed verification token and no avatar.
	user := activeUser()
	expiry := time.Now().UTC().Add(24 * time.Hour)
	user.EmailVerificationToken = "pending-token"
	user.EmailVerificationExpiry = &expiry
	user.IsEmailVerified = false

	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(nil, apperrors.NotFound("user", "google-sub-1"))
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, tokens, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", got.ExternalID)
	assert.Equal(t, domain.ProviderGoogle, got.Provider)
	assert.True(t, got.IsEmailVerified)
	assert.Empty(t, got.EmailVerificationToken)
	assert.Nil(t, got.EmailVerificationExpiry)
	assert.Equal(t, "https://example.com/avatar.png", got.Avatar)
	assert.NotEmpty(t, tokens.RefreshToken)

	// The local password survives linking.
	assert.True(t, got.HasPassword())
}

func TestExternalSignIn_LinkKeepsExistingAvatar(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.Avatar = "https://example.com/custom.png"

	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(nil, apperrors.NotFound("user", "google-sub-1"))
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, _, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/custom.png", got.Avatar)
}

func TestExternalSignIn_CreatesNewAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(nil, apperrors.NotFound("user", "google-sub-1"))
	userRepo.On("GetByEmail", ctx, "john@example.com").Return(nil, apperrors.NotFound("user", "john@example.com"))
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	got, tokens, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, got.Provider)
	assert.Equal(t, "google-sub-1", got.ExternalID)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.True(t, got.IsEmailVerified)
	assert.False(t, got.HasPassword())
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	userRepo.AssertExpectations(t)
}

func TestExternalSignIn_AllowListGrantsAdminOnCreate(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, []string{"John@Example.com"})
	ctx := context.Background()

	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(nil, apperrors.NotFound("user", "google-sub-1"))
	userRepo.On("GetByEmail", ctx, "john@example.com").Return(nil, apperrors.NotFound("user", "john@example.com"))
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	got, _, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}

func TestExternalSignIn_AllowListPromotesOnEverySignIn(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, []string{"john@example.com"})
	ctx := context.Background()

	user := activeUser()
	user.Provider = domain.ProviderGoogle
	user.ExternalID = "google-sub-1"
	user.Role = domain.RoleUser
	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, _, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}

func TestExternalSignIn_NeverDemotes(t *testing.T) {
	// An email absent from the allow-list keeps whatever role it already has.
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, []string{"someone-else@example.com"})
	ctx := context.Background()

	user := activeUser()
	user.Provider = domain.ProviderGoogle
	user.ExternalID = "google-sub-1"
	user.Role = domain.RoleSuperAdmin
	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, _, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, got.Role)
}

func TestExternalSignIn_SuperAdminNotReplacedByAllowList(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, []string{"john@example.com"})
	ctx := context.Background()

	user := activeUser()
	user.Provider = domain.ProviderGoogle
	user.ExternalID = "google-sub-1"
	user.Role = domain.RoleSuperAdmin
	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, _, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, got.Role)
}

func TestExternalSignIn_DeactivatedAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.Provider = domain.ProviderGoogle
	user.ExternalID = "google-sub-1"
	user.IsActive = false
	userRepo.On("GetByExternalID", ctx, "google-sub-1").Return(user, nil)

	_, _, err := svc.HandleExternalSignIn(ctx, googleIdentity())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestExternalSignIn_MissingSubject(t *testing.T) {
	svc := newTestSocialService(&mockUserRepository{}, nil)

	identity := googleIdentity()
	identity.ExternalID = ""

	_, _, err := svc.HandleExternalSignIn(context.Background(), identity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestExternalSignIn_UnverifiedProviderEmail(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestSocialService(userRepo, nil)

	identity := googleIdentity()
	identity.EmailVerified = false

	_, _, err := svc.HandleExternalSignIn(context.Background(), identity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	userRepo.AssertNotCalled(t, "GetByExternalID", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}
