// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/custos-project/custos/pkg/errutil"
)

// DefaultSessionTTL is used when no session lifetime is configured.
const DefaultSessionTTL = 24 * time.Hour

// dummyPasswordHash keeps login timing uniform when the email is unknown:
// password verification still runs against a hash that can never match.
// This is NOT a credential.
//
//nolint:gosec // G101: intentionally fake hash for timing uniformity.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// throwawayPasswordChars is the alphabet for generated placeholder
// passwords on self-service registration.
const throwawayPasswordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

const throwawayPasswordLen = 12

// EmailSender delivers account notifications. Sending happens out of band;
// implementations decide transport and formatting.
type EmailSender interface {
	// SendWelcome delivers the welcome notice for a freshly registered
	// account, carrying the reset token that activates it.
	SendWelcome(ctx context.Context, email, token string) error

	// SendPasswordReset delivers a reset notice carrying the reset token.
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Service orchestrates login, registration and the password-reset surface.
type Service struct {
	users      UserRepository
	hasher     PasswordHasher
	codec      TokenCodec
	reset      *ResetCoordinator
	mail       EmailSender
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewService creates a Service. All collaborators are required; a
// non-positive sessionTTL falls back to DefaultSessionTTL.
func NewService(users UserRepository, hasher PasswordHasher, codec TokenCodec, reset *ResetCoordinator, mail EmailSender, sessionTTL time.Duration) (*Service, error) {
	return NewServiceWithLogger(users, hasher, codec, reset, mail, sessionTTL, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, codec TokenCodec, reset *ResetCoordinator, mail EmailSender, sessionTTL time.Duration, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	if reset == nil {
		return nil, oops.Errorf("reset coordinator is required")
	}
	if mail == nil {
		return nil, oops.Errorf("email sender is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		users:      users,
		hasher:     hasher,
		codec:      codec,
		reset:      reset,
		mail:       mail,
		sessionTTL: sessionTTL,
		logger:     logger,
	}, nil
}

// Login authenticates a principal and returns a signed session token whose
// claims carry the principal's id, email and role. Password verification
// runs even for unknown emails so response timing does not reveal account
// existence.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	if lookupErr == nil {
		targetHash = user.PasswordHash
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid := s.hasher.Verify(password, targetHash)

	if user == nil {
		return "", invalidCredentials()
	}
	if !user.IsVerified {
		return "", oops.Code("AUTH_EMAIL_NOT_VERIFIED").Errorf("email not verified")
	}
	if !valid {
		return "", invalidCredentials()
	}

	claims := Claims{Email: user.Email, Role: user.Role}
	claims.Subject = user.ID.String()
	token, err := s.codec.Sign(claims, s.sessionTTL)
	if err != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "sign session token").
			Wrap(err)
	}
	return token, nil
}

// RegisterSelfService creates an account that cannot log in until its owner
// completes the emailed reset flow: the stored credential is a random
// throwaway, the account is unverified, and the welcome notice carries the
// reset token that activates it. Returns the secret-free view.
func (s *Service) RegisterSelfService(ctx context.Context, email string, role Role) (*View, error) {
	if role == "" {
		role = RoleUser
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	throwaway, err := generateThrowawayPassword()
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "generate placeholder password").
			Wrap(err)
	}
	hash, err := s.hasher.Hash(throwaway)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash placeholder password").
			Wrap(err)
	}

	user, err := NewUser(email, hash, role, false)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.reset.Issue(ctx, user)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue activation token").
			Wrap(err)
	}

	// Delivery is best effort: the account exists either way, and the owner
	// can request a fresh token through the reset endpoint.
	if mailErr := s.mail.SendWelcome(ctx, user.Email, token); mailErr != nil {
		errutil.LogError(s.logger, "welcome email delivery failed", mailErr)
	}

	view := user.View()
	return &view, nil
}

// RegisterAdmin creates a pre-verified ADMIN account with the supplied
// password. No reset flow is involved.
func (s *Service) RegisterAdmin(ctx context.Context, email, password string) (*User, error) {
	return s.registerVerified(ctx, email, password, RoleAdmin)
}

// CreateSupportUser creates a pre-verified SUPPORT_DESK account with the
// supplied password.
func (s *Service) CreateSupportUser(ctx context.Context, email, password string) (*User, error) {
	return s.registerVerified(ctx, email, password, RoleSupportDesk)
}

func (s *Service) registerVerified(ctx context.Context, email, password string, role Role) (*User, error) {
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	user, err := NewUser(email, hash, role, true)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for the account and emails it.
// If no account holds the email the call returns silently: the endpoint
// never confirms or denies existence.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, err := s.reset.Issue(ctx, user)
	if err != nil {
		return oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "issue reset token").
			Wrap(err)
	}

	if mailErr := s.mail.SendPasswordReset(ctx, user.Email, token); mailErr != nil {
		errutil.LogError(s.logger, "reset email delivery failed", mailErr)
	}
	return nil
}

// ResetPassword redeems a reset token against a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.reset.Consume(ctx, token, newPassword)
}

// FindByID is the read-only lookup exposed to sibling subsystems that need
// to validate a principal reference.
func (s *Service) FindByID(ctx context.Context, id ulid.ULID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// EnsureSuperAdmin creates the bootstrap SUPER_ADMIN account from seed
// configuration if no SUPER_ADMIN exists yet. Idempotent.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	exists, err := s.users.ExistsByRole(ctx, RoleSuperAdmin)
	if err != nil {
		return oops.Code("AUTH_SEED_FAILED").
			With("operation", "check for existing super admin").
			Wrap(err)
	}
	if exists {
		s.logger.Info("super admin already exists, skipping seed")
		return nil
	}
	if password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("super admin seed password is not set")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("AUTH_SEED_FAILED").
			With("operation", "hash seed password").
			Wrap(err)
	}
	user, err := NewUser(email, hash, RoleSuperAdmin, true)
	if err != nil {
		return err
	}
	if err := s.create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("super admin created", "email", email)
	return nil
}

// ensureEmailFree maps an existing account to the stable email-exists
// failure. The database uniqueness constraint remains the backstop for
// races; create surfaces the same code.
func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return emailExists(email)
	}
	if !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check email uniqueness").
			Wrap(err)
	}
	return nil
}

func (s *Service) create(ctx context.Context, user *User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return emailExists(user.Email)
		}
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}
	return nil
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}

func emailExists(email string) error {
	return oops.Code("AUTH_EMAIL_EXISTS").
		With("email", email).
		Errorf("email already exists")
}

// generateThrowawayPassword produces a random placeholder credential for
// accounts that activate through the reset flow.
func generateThrowawayPassword() (string, error) {
	buf := make([]byte, throwawayPasswordLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, throwawayPasswordLen)
	for i, b := range buf {
		out[i] = throwawayPasswordChars[int(b)%len(throwawayPasswordChars)]
	}
	return string(out), nil
}
