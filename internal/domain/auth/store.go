package auth

import (
	"context"

	"dayflow/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID           string
	Role         string
	Status       string
	PasswordHash string
	MFAEnabled   bool
	MFASecretEnc []byte
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, role, status, password_hash, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE email = $1
  `, email).Scan(&out.ID, &out.Role, &out.Status, &out.PasswordHash, &out.MFAEnabled, &out.MFASecretEnc)
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false, updated_at = now() WHERE id = $2
  `, secretEnc, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	var secretEnc []byte
	if err := s.DB.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&secretEnc); err != nil {
		return nil, err
	}
	return secretEnc, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1, updated_at = now() WHERE id = $2", enabled, userID)
	return err
}
