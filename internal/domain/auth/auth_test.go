package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp/totp"

	cryptoutil "dayflow/internal/platform/crypto"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleEmployee}, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	unknownRole, err := GenerateToken("secret", Claims{UserID: "u1", Role: "HR"}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	valid, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "expired", secret: "secret", token: expired},
		{name: "unknown role", secret: "secret", token: unknownRole},
		{name: "wrong secret", secret: "other", token: valid},
		{name: "garbage", secret: "secret", token: "not-a-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseToken(tc.secret, tc.token); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestStaticPermissions(t *testing.T) {
	perms := StaticPermissions{}
	ok, _ := perms.HasPermission(context.Background(), RoleEmployee, PermAttendanceWrite)
	if !ok {
		t.Fatal("employee should clock in")
	}
	ok, _ = perms.HasPermission(context.Background(), RoleEmployee, PermAttendanceManage)
	if ok {
		t.Fatal("employee must not manage attendance")
	}
	for _, perm := range DefaultPermissions {
		ok, _ := perms.HasPermission(context.Background(), RoleAdmin, perm)
		if !ok {
			t.Fatalf("admin missing %s", perm)
		}
	}
}

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

type memoryStore struct {
	users      map[string]AuthUser
	mfaSecrets map[string][]byte
}

func (m *memoryStore) FindUserByEmail(_ context.Context, email string) (AuthUser, error) {
	user, ok := m.users[email]
	if !ok {
		return AuthUser{}, pgx.ErrNoRows
	}
	user.MFASecretEnc = m.mfaSecrets[user.ID]
	return user, nil
}

func (m *memoryStore) UpdateLastLogin(context.Context, string) error { return nil }

func (m *memoryStore) UpdateMFASecret(_ context.Context, userID string, secretEnc []byte) error {
	m.mfaSecrets[userID] = secretEnc
	return nil
}

func (m *memoryStore) GetMFASecret(_ context.Context, userID string) ([]byte, error) {
	return m.mfaSecrets[userID], nil
}

func (m *memoryStore) SetMFAEnabled(_ context.Context, userID string, enabled bool) error {
	for email, user := range m.users {
		if user.ID == userID {
			user.MFAEnabled = enabled
			m.users[email] = user
		}
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	hash, err := HashPassword("Password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := &memoryStore{
		users: map[string]AuthUser{
			"jane.e001@odoodo.com": {ID: "u1", Role: RoleEmployee, Status: "ACTIVE", PasswordHash: hash},
			"old.e002@odoodo.com":  {ID: "u2", Role: RoleEmployee, Status: "TERMINATED", PasswordHash: hash},
		},
		mfaSecrets: map[string][]byte{},
	}
	crypto, err := cryptoutil.New(strings.Repeat("0f", 32))
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	return NewService(store, crypto, "secret", time.Hour), store
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.Login(context.Background(), " Jane.E001@odoodo.com ", "Password1", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := ParseToken("secret", session.Token)
	if err != nil || claims.UserID != "u1" || claims.Role != RoleEmployee {
		t.Fatalf("unexpected token claims %+v err=%v", claims, err)
	}

	if _, err := svc.Login(context.Background(), "jane.e001@odoodo.com", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody.x1@odoodo.com", "Password1", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "old.e002@odoodo.com", "Password1", ""); !errors.Is(err, ErrAccountTerminated) {
		t.Fatalf("expected ErrAccountTerminated, got %v", err)
	}
}

func TestLoginWithMFA(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	secret, _, err := svc.SetupMFA(ctx, "u1", "jane.e001@odoodo.com")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := svc.EnableMFA(ctx, "u1", "abcdef"); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected ErrMFAInvalid, got %v", err)
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if err := svc.EnableMFA(ctx, "u1", code); err != nil {
		t.Fatalf("enable: %v", err)
	}

	if _, err := svc.Login(ctx, "jane.e001@odoodo.com", "Password1", ""); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected ErrMFARequired, got %v", err)
	}
	if _, err := svc.Login(ctx, "jane.e001@odoodo.com", "Password1", code); err != nil {
		t.Fatalf("login with code: %v", err)
	}
}
