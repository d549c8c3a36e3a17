package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	cryptoutil "dayflow/internal/platform/crypto"
)

const statusTerminated = "TERMINATED"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountTerminated  = errors.New("account terminated")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrMFAUnavailable     = errors.New("mfa requires encryption key")
	ErrMFANotSetUp        = errors.New("mfa setup required")
)

type StoreAPI interface {
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error
	GetMFASecret(ctx context.Context, userID string) ([]byte, error)
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
}

type Service struct {
	store    StoreAPI
	crypto   *cryptoutil.Service
	secret   string
	tokenTTL time.Duration
	Issuer   string
}

func NewService(store StoreAPI, crypto *cryptoutil.Service, secret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, crypto: crypto, secret: secret, tokenTTL: tokenTTL, Issuer: "Dayflow"}
}

type Session struct {
	Token string      `json:"token"`
	User  UserContext `json:"user"`
}

// Login verifies credentials (and the TOTP code when MFA is on) and issues
// a bearer token carrying the user id and role.
func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (Session, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if user.Status == statusTerminated {
		return Session{}, ErrAccountTerminated
	}

	if user.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return Session{}, ErrMFARequired
		}
		secret, err := s.crypto.DecryptString(user.MFASecretEnc)
		if err != nil || secret == "" || !totp.Validate(mfaCode, secret) {
			return Session{}, ErrMFAInvalid
		}
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, Role: user.Role}, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return Session{Token: token, User: UserContext{UserID: user.ID, Role: user.Role}}, nil
}

func (s *Service) IssueToken(user UserContext) (string, error) {
	return GenerateToken(s.secret, Claims{UserID: user.UserID, Role: user.Role}, s.tokenTTL)
}

// SetupMFA generates and stores a fresh TOTP secret. MFA stays disabled
// until EnableMFA confirms a code.
func (s *Service) SetupMFA(ctx context.Context, userID, accountName string) (secret, url string, err error) {
	if !s.crypto.Configured() {
		return "", "", ErrMFAUnavailable
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return "", "", err
	}
	encrypted, err := s.crypto.EncryptString(key.Secret())
	if err != nil {
		return "", "", err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, encrypted); err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	return s.confirmMFA(ctx, userID, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, userID, code string) error {
	return s.confirmMFA(ctx, userID, code, false)
}

func (s *Service) confirmMFA(ctx context.Context, userID, code string, enabled bool) error {
	if !s.crypto.Configured() {
		return ErrMFAUnavailable
	}
	secretEnc, err := s.store.GetMFASecret(ctx, userID)
	if err != nil || len(secretEnc) == 0 {
		return ErrMFANotSetUp
	}
	secret, err := s.crypto.DecryptString(secretEnc)
	if err != nil {
		return ErrMFAInvalid
	}
	if !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}
