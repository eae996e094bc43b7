package domain

import (
	"time"
)

// User represents a registered user in the system. Sensitive fields carry
// `json:"-"` so marshaling a User never leaks credentials or tokens.
type User struct {
	ID              string   `json:"id"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Email           string   `json:"email"`
	PasswordHash    string   `json:"-"`
	Phone           string   `json:"phone,omitempty"`
	Affiliation     string   `json:"affiliation,omitempty"`
	Newsletter      bool     `json:"newsletter"`
	Role            Role     `json:"role"`
	Provider        Provider `json:"provider"`
	ExternalID      string   `json:"-"`
	Avatar          string   `json:"avatar,omitempty"`
	IsActive        bool     `json:"isActive"`
	IsEmailVerified bool     `json:"isEmailVerified"`

	// RefreshTokenHash holds the SHA-256 hash of the single outstanding
	// refresh token, or empty when no durable session exists.
	RefreshTokenHash string `json:"-"`

	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`

	PasswordResetToken  string     `json:"-"`
	PasswordResetExpiry *time.Time `json:"-"`

	EmailVerificationToken  string     `json:"-"`
	EmailVerificationExpiry *time.Time `json:"-"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasPassword reports whether the account can authenticate with credentials.
// Social-only accounts have no password hash until one is set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ExternalIdentity is the verified profile handed over by an OAuth provider.
type ExternalIdentity struct {
	Provider      Provider
	ExternalID    string
	Email         string
	FirstName     string
	LastName      string
	Avatar        string
	EmailVerified bool
}
