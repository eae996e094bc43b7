package auth

import "time"

// LockoutPolicy is the pure decision logic over failed-attempt counters.
// It never touches storage; callers persist the returned state.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// DefaultLockoutPolicy returns the standard policy: lock for two hours after
// five consecutive failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:  5,
		LockDuration: 2 * time.Hour,
	}
}

// LockoutState is the durable lockout portion of a user record.
type LockoutState struct {
	Attempts  int
	LockUntil *time.Time
}

// IsLocked reports whether the account is locked at the given instant.
func (p LockoutPolicy) IsLocked(lockUntil *time.Time, now time.Time) bool {
	return lockUntil != nil && lockUntil.After(now)
}

// OnFailedAttempt returns the next lockout state after a failed login.
// Reaching MaxAttempts locks the account and resets the counter so it
// restarts cleanly after the lock expires.
func (p LockoutPolicy) OnFailedAttempt(state LockoutState, now time.Time) LockoutState {
	attempts := state.Attempts + 1
	if attempts >= p.MaxAttempts {
		until := now.Add(p.LockDuration)
		return LockoutState{Attempts: 0, LockUntil: &until}
	}
	return LockoutState{Attempts: attempts, LockUntil: state.LockUntil}
}

// OnSuccess resets the lockout state after a successful login.
func (p LockoutPolicy) OnSuccess() LockoutState {
	return LockoutState{Attempts: 0, LockUntil: nil}
}
