package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/pagination"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock Contact Repository ---

type mockContactRepository struct {
	mock.Mock
}

func (m *mockContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *mockContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) List(ctx context.Context, status domain.ContactStatus, params pagination.Params) ([]domain.Contact, int, error) {
	args := m.Called(ctx, status, params)
	return args.Get(0).([]domain.Contact), args.Int(1), args.Error(2)
}

func (m *mockContactRepository) UpdateStatus(ctx context.Context, id string, status domain.ContactStatus, respondedBy, responseNote string) error {
	args := m.Called(ctx, id, status, respondedBy, responseNote)
	return args.Error(0)
}

func (m *mockContactRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockContactRepository) Stats(ctx context.Context) (*domain.ContactStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContactStats), args.Error(1)
}

// --- Mock Event Publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishUserRegistered(ctx context.Context, user *domain.User, verificationToken string) error {
	args := m.Called(ctx, user, verificationToken)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishPasswordResetRequested(ctx context.Context, user *domain.User, resetToken string) error {
	args := m.Called(ctx, user, resetToken)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishPasswordChanged(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishEmailVerified(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishContactReceived(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishContactStatusChanged(ctx context.Context, id string, status domain.ContactStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// newRelaxedPublisher returns a publisher that accepts any event. Most tests
// do not care about events; publish failures are non-fatal anyway.
func newRelaxedPublisher() *mockEventPublisher {
	events := &mockEventPublisher{}
	events.On("PublishUserRegistered", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishPasswordResetRequested", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishPasswordChanged", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishEmailVerified", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishContactReceived", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishContactStatusChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return events
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-access-secret-for-testing", "test-refresh-secret-for-testing", 15*time.Minute, 30*24*time.Hour)
}

func newTestAuthService(userRepo *mockUserRepository, events EventPublisher) *AuthService {
	if events == nil {
		events = newRelaxedPublisher()
	}
	return NewAuthService(
		userRepo,
		newTestJWTManager(),
		auth.DefaultLockoutPolicy(),
		events,
		24*time.Hour,
		time.Hour,
		newTestLogger(),
	)
}

func strPtr(s string) *string {
	return &s
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}

func activeUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           "user-1",
		FirstName:    "John",
		LastName:     "Doe",
		Email:        "john@example.com",
		PasswordHash: hashForTest("Secret123"),
		Role:         domain.RoleUser,
		Provider:     domain.ProviderLocal,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "john@example.com").Return(nil, apperrors.NotFound("user", "john@example.com"))
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, tokens, err := svc.Register(ctx, RegisterInput{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Password:  "Secret123",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)

	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, domain.ProviderLocal, user.Provider)
	assert.False(t, user.IsEmailVerified)
	assert.NotEmpty(t, user.EmailVerificationToken)
	require.NotNil(t, user.EmailVerificationExpiry)
	assert.True(t, user.EmailVerificationExpiry.After(time.Now()))

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, auth.HashToken(tokens.RefreshToken), user.RefreshTokenHash)

	// The stored hash must never be the plaintext password.
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Secret123")))

	userRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "john@example.com").Return(activeUser(), nil)

	_, _, err := svc.Register(ctx, RegisterInput{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Password:  "Secret123",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestAuthService(&mockUserRepository{}, nil)

	for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		_, _, err := svc.Register(context.Background(), RegisterInput{
			FirstName: "John",
			LastName:  "Doe",
			Email:     "john@example.com",
			Password:  password,
		})
		require.Error(t, err, "password %q should be rejected", password)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
}

func TestRegister_PublishesVerificationToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	events := &mockEventPublisher{}
	svc := newTestAuthService(userRepo, events)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "john@example.com").Return(nil, apperrors.NotFound("user", "john@example.com"))
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	var published string
	events.On("PublishUserRegistered", ctx, mock.AnythingOfType("*domain.User"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			published = args.String(2)
		}).
		Return(nil)

	user, _, err := svc.Register(ctx, RegisterInput{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Password:  "Secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, user.EmailVerificationToken, published)
	events.AssertExpectations(t)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.LoginAttempts = 3
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, tokens, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123", RememberMe: true})

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, auth.HashToken(tokens.RefreshToken), user.RefreshTokenHash)

	// A successful login resets the failure counter and stamps lastLogin.
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockUntil)
	require.NotNil(t, user.LastLogin)
}

func TestLogin_WithoutRemember_NoDurableSession(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	_, tokens, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123"})

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Empty(t, tokens.RefreshToken)
	assert.Empty(t, user.RefreshTokenHash)
}

func TestLogin_UnknownEmailAndWrongPassword_Indistinguishable(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.NotFound("user", "nobody@example.com"))
	_, _, errUnknown := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Secret123"})

	user := activeUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	_, _, errWrong := svc.Login(ctx, LoginInput{Email: user.Email, Password: "WrongPass1"})

	require.Error(t, errUnknown)
	require.Error(t, errWrong)

	var appErrUnknown, appErrWrong *apperrors.AppError
	require.True(t, errors.As(errUnknown, &appErrUnknown))
	require.True(t, errors.As(errWrong, &appErrWrong))
	assert.Equal(t, appErrUnknown.Message, appErrWrong.Message)
	assert.Equal(t, appErrUnknown.Status, appErrWrong.Status)
}

func TestLogin_FailedAttemptPersistErrorPropagates(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	storeErr := errors.New("connection reset")
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(storeErr)

	_, _, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "WrongPass1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, storeErr))
	assert.False(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestLogin_Deactivated(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.IsActive = false
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestLogin_FifthFailureLocksAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "WrongPass1"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized), "attempt %d", i+1)
	}

	// The fifth failure sets the lock and restarts the counter.
	require.NotNil(t, user.LockUntil)
	assert.True(t, user.LockUntil.After(time.Now()))
	assert.Zero(t, user.LoginAttempts)

	// The sixth attempt is rejected even with the correct password.
	_, _, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLocked))
}

func TestLogin_ExpiredLockAllowsLogin(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	past := time.Now().UTC().Add(-time.Minute)
	user.LockUntil = &past
	user.LoginAttempts = 0
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	_, tokens, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123"})

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Nil(t, user.LockUntil)
	assert.Zero(t, user.LoginAttempts)
}

func TestLogin_SocialOnlyAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.PasswordHash = ""
	user.Provider = domain.ProviderGoogle
	user.ExternalID = "google-sub-1"
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

// --- Refresh ---

func TestRefresh_RotatesSession(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	_, first, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123", RememberMe: true})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.AccessToken)
	assert.NotEmpty(t, second.RefreshToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The superseded token no longer matches the stored slot.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	// The fresh token works exactly once before its own rotation.
	third, err := svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestRefresh_NoDurableSession(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	// Login without remember issues no durable session, so even a freshly
	// signed refresh token must be rejected.
	_, _, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Secret123"})
	require.NoError(t, err)

	stray, err := newTestJWTManager().GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, stray)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestAuthService(&mockUserRepository{}, nil)

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Refresh(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRefresh_DeactivatedAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	refresh, err := newTestJWTManager().GenerateRefreshToken(user.ID)
	require.NoError(t, err)
	user.RefreshTokenHash = auth.HashToken(refresh)
	user.IsActive = false

	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err = svc.Refresh(ctx, refresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

// --- Logout ---

func TestLogout_ClearsSession(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	user.RefreshTokenHash = "some-stored-hash"
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	require.NoError(t, svc.Logout(ctx, user.ID))
	assert.Empty(t, user.RefreshTokenHash)

	// Logging out again is a no-op, not an error.
	require.NoError(t, svc.Logout(ctx, user.ID))
}

// --- Change password ---

func TestChangePassword_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	oldHash := user.PasswordHash
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "Secret123", "NewSecret456"))

	assert.NotEqual(t, oldHash, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("NewSecret456")))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	err := svc.ChangePassword(ctx, user.ID, "WrongPass1", "NewSecret456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangePassword_SameAsCurrent(t *testing.T) {
	svc := newTestAuthService(&mockUserRepository{}, nil)

	err := svc.ChangePassword(context.Background(), "user-1", "Secret123", "Secret123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// --- Password reset ---

func TestRequestPasswordReset_UnknownEmailSucceeds(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	token, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRequestPasswordReset_PersistsToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	events := &mockEventPublisher{}
	svc := newTestAuthService(userRepo, events)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	var published string
	events.On("PublishPasswordResetRequested", ctx, user, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			published = args.String(2)
		}).
		Return(nil)

	token, err := svc.RequestPasswordReset(ctx, user.Email)
	require.NoError(t, err)

	assert.NotEmpty(t, user.PasswordResetToken)
	assert.Equal(t, user.PasswordResetToken, token)
	assert.Equal(t, user.PasswordResetToken, published)
	require.NotNil(t, user.PasswordResetExpiry)
	assert.True(t, user.PasswordResetExpiry.After(time.Now()))
}

func TestResetPassword_ConsumesToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	expiry := time.Now().UTC().Add(time.Hour)
	user.PasswordResetToken = "reset-token-1"
	user.PasswordResetExpiry = &expiry

	userRepo.On("GetByResetToken", ctx, "reset-token-1").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	require.NoError(t, svc.ResetPassword(ctx, "reset-token-1", "NewSecret456"))

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("NewSecret456")))
	assert.Empty(t, user.PasswordResetToken)
	assert.Nil(t, user.PasswordResetExpiry)
}

func TestResetPassword_InvalidToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByResetToken", ctx, "stale-token").Return(nil, apperrors.NotFound("user", "stale-token"))

	err := svc.ResetPassword(ctx, "stale-token", "NewSecret456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}

// --- Verify email ---

func TestVerifyEmail_ConsumesToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	expiry := time.Now().UTC().Add(24 * time.Hour)
	user.EmailVerificationToken = "verify-token-1"
	user.EmailVerificationExpiry = &expiry

	userRepo.On("GetByVerificationToken", ctx, "verify-token-1").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	got, err := svc.VerifyEmail(ctx, "verify-token-1")

	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.Empty(t, got.EmailVerificationToken)
	assert.Nil(t, got.EmailVerificationExpiry)
}

func TestVerifyEmail_InvalidToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByVerificationToken", ctx, "consumed-token").Return(nil, apperrors.NotFound("user", "consumed-token"))

	_, err := svc.VerifyEmail(ctx, "consumed-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}

// --- Profile ---

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	newsletter := true
	got, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		FirstName:   strPtr("Jane"),
		Affiliation: strPtr("Nairobi Chapel"),
		Newsletter:  &newsletter,
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, "Nairobi Chapel", got.Affiliation)
	assert.True(t, got.Newsletter)
}

func TestUpdateProfile_EmptyFirstName(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, nil)
	ctx := context.Background()

	user := activeUser()
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{FirstName: strPtr("")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
