package accounts

import (
	"time"

	"github.com/saudievents/server/internal/store"
)

// LockoutPolicy is the account lockout state machine: an account moves from
// open to locked on the Nth consecutive failure and back to open when the
// deadline elapses. Any successful login resets the counter.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// Locked reports whether the account is inside its lockout window. While
// locked the password is never checked, so hashing cost cannot leak lock
// state timing.
func (p LockoutPolicy) Locked(u *store.User, now time.Time) bool {
	return u.LockUntil > now.Unix()
}

// RecordFailure increments the failure counter and, at or past the
// threshold, (re)arms the lockout deadline. The returned notify flag tells
// the caller a lockout alert should fire; locked is true when the deadline
// was set this call.
func (p LockoutPolicy) RecordFailure(u *store.User, now time.Time) (locked, notify bool) {
	u.FailedAttempts++
	if u.FailedAttempts >= p.Threshold {
		u.LockUntil = now.Add(p.Duration).Unix()
		return true, true
	}
	return false, false
}

// RecordSuccess clears the lockout state after a successful login.
func (p LockoutPolicy) RecordSuccess(u *store.User) {
	u.FailedAttempts = 0
	u.LockUntil = 0
}
