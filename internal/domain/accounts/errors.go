package accounts

import (
	"errors"
	"fmt"
)

// Domain-specific errors for account operations.
var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned when email/password authentication fails.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked is returned when a login is rejected because the
	// account is inside its lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrPasswordTooShort is returned when a password is less than 8 characters.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// ErrPasswordTooLong is returned when a password exceeds 72 characters.
	ErrPasswordTooLong = errors.New("password must not exceed 72 characters")
)

// CredentialsError carries the running failed-attempt count alongside the
// invalid-credentials rejection. errors.Is(err, ErrInvalidCredentials) holds.
type CredentialsError struct {
	Attempts int
}

func (e *CredentialsError) Error() string {
	return ErrInvalidCredentials.Error()
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// LockedError carries the epoch-seconds deadline after which logins are
// accepted again. errors.Is(err, ErrAccountLocked) holds.
type LockedError struct {
	LockUntil int64
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account temporarily locked until %d", e.LockUntil)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// ValidationError identifies the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
