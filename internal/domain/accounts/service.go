// Package accounts handles registration and password authentication,
// including the account lockout state machine. All mutations of user state
// run inside a single document store update cycle so concurrent login
// attempts on the same account cannot lose counter increments.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/saudievents/server/internal/auth"
	"github.com/saudievents/server/internal/metrics"
	"github.com/saudievents/server/internal/store"
)

// NotificationSink delivers lockout alerts. Failures are logged and
// swallowed: mail being down must never change a login outcome.
type NotificationSink interface {
	SendLockoutAlert(ctx context.Context, to string, attempts int) error
}

// Service implements registration and login over the document store.
type Service struct {
	store    *store.Store
	tokens   *auth.JWTManager
	notifier NotificationSink
	lockout  LockoutPolicy
	validate *validator.Validate
	logger   zerolog.Logger

	// now is swappable in tests to step through the lockout window.
	now func() time.Time
}

func NewService(st *store.Store, tokens *auth.JWTManager, notifier NotificationSink, lockout LockoutPolicy, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		tokens:   tokens,
		notifier: notifier,
		lockout:  lockout,
		validate: validator.New(),
		logger:   logger.With().Str("component", "accounts").Logger(),
		now:      time.Now,
	}
}

// RegisterParams contains parameters for creating a new account.
type RegisterParams struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	AccountType string
	OrgName     string
}

// Account is the public view of a user, safe to return to clients.
type Account struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	AccountType string `json:"type"`
	OrgName     string `json:"orgName,omitempty"`
}

// LoginResult carries the issued token and the claims embedded in it.
type LoginResult struct {
	Token  string
	Claims auth.Claims
}

// Register creates a user or organization account. The duplicate-email
// check and the ID allocation happen inside the same update cycle, so two
// racing registrations for one email cannot both land.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Account, error) {
	if err := s.validate.Struct(params); err != nil {
		return Account{}, ValidationError{Field: "email", Message: "a valid email and password are required"}
	}
	if err := validatePassword(params.Password); err != nil {
		return Account{}, err
	}

	accountType := auth.NormalizeAccountType(params.AccountType)
	if accountType == auth.AccountOrganization && params.OrgName == "" {
		return Account{}, ValidationError{Field: "orgName", Message: "organization name is required"}
	}
	orgName := ""
	if accountType == auth.AccountOrganization {
		orgName = params.OrgName
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	var created store.User
	err = s.store.Update(func(doc *store.Document) error {
		if doc.UserByEmail(params.Email) != nil {
			return ErrEmailTaken
		}
		created = store.User{
			ID:           doc.NextUserID(),
			Email:        params.Email,
			PasswordHash: hash,
			AccountType:  string(accountType),
			OrgName:      orgName,
		}
		doc.Users = append(doc.Users, created)
		return nil
	})
	if err != nil {
		return Account{}, err
	}

	s.logger.Info().
		Int64("user_id", created.ID).
		Str("email", created.Email).
		Str("type", created.AccountType).
		Msg("account registered")

	return Account{
		ID:          created.ID,
		Email:       created.Email,
		AccountType: created.AccountType,
		OrgName:     created.OrgName,
	}, nil
}

// Login authenticates an email/password pair and issues a session token.
//
// Rejection order matters: an active lockout short-circuits before any hash
// comparison, so a locked account rejects even the correct password and the
// response timing says nothing about it. Every failed attempt increments
// the persisted counter; the attempt that reaches the lockout threshold
// arms the deadline and fires a best-effort alert email.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, ValidationError{Field: "email", Message: "email and password are required"}
	}

	var user store.User
	found := false
	_ = s.store.View(func(doc *store.Document) error {
		if u := doc.UserByEmail(email); u != nil {
			user = *u
			found = true
		}
		return nil
	})
	if !found {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return LoginResult{}, &CredentialsError{}
	}

	now := s.now()
	if s.lockout.Locked(&user, now) {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return LoginResult{}, &LockedError{LockUntil: user.LockUntil}
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return LoginResult{}, s.recordFailure(ctx, email, now)
	}

	if err := s.store.Update(func(doc *store.Document) error {
		u := doc.UserByEmail(email)
		if u == nil {
			return ErrInvalidCredentials
		}
		s.lockout.RecordSuccess(u)
		user = *u
		return nil
	}); err != nil {
		return LoginResult{}, err
	}

	claims := auth.Claims{
		UserID:      user.ID,
		Email:       user.Email,
		AccountType: user.AccountType,
		OrgName:     user.OrgName,
	}
	token, err := s.tokens.Generate(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("login succeeded")

	return LoginResult{Token: token, Claims: claims}, nil
}

// recordFailure persists the failed-attempt bookkeeping and returns the
// error the caller should surface.
func (s *Service) recordFailure(ctx context.Context, email string, now time.Time) error {
	var (
		attempts int
		locked   bool
		notify   bool
		deadline int64
	)
	err := s.store.Update(func(doc *store.Document) error {
		u := doc.UserByEmail(email)
		if u == nil {
			return ErrInvalidCredentials
		}
		locked, notify = s.lockout.RecordFailure(u, now)
		attempts = u.FailedAttempts
		deadline = u.LockUntil
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrWriteFailed) {
			return err
		}
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return &CredentialsError{}
	}

	if locked {
		metrics.AccountLockouts.Inc()
		s.logger.Warn().
			Str("email", email).
			Int("attempts", attempts).
			Int64("lock_until", deadline).
			Msg("account locked after repeated failed logins")
	}
	if notify {
		s.sendLockoutAlert(ctx, email, attempts)
	}

	metrics.LoginAttempts.WithLabelValues("invalid").Inc()
	return &CredentialsError{Attempts: attempts}
}

// sendLockoutAlert is strictly best-effort.
func (s *Service) sendLockoutAlert(ctx context.Context, email string, attempts int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendLockoutAlert(ctx, email, attempts); err != nil {
		metrics.NotificationSends.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("email", email).Msg("lockout alert delivery failed")
		return
	}
	metrics.NotificationSends.WithLabelValues("ok").Inc()
}
