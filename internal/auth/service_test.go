package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/auth"
	"github.com/davronbekov/taxipark-backend/pkg/auth/session"
	"github.com/davronbekov/taxipark-backend/pkg/config"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "taxipark-test",
	ExpirationMinutes: 15,
}

type stubUserFinder struct {
	users map[uuid.UUID]*models.AdminUser
}

func (s *stubUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserFinder) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func seedUser(t *testing.T, finder *stubUserFinder, password string, active bool) *models.AdminUser {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.AdminUser{
		ID:           uuid.New(),
		Email:        "ops@taxipark.uz",
		PasswordHash: hash,
		Name:         "Ops",
		Role:         enums.AdminRoleAdmin,
		IsActive:     active,
	}
	finder.users[user.ID] = user
	return user
}

func buildService(t *testing.T) (Service, *stubUserFinder, *stubSessions) {
	t.Helper()
	finder := &stubUserFinder{users: map[uuid.UUID]*models.AdminUser{}}
	sessions := &stubSessions{}
	svc, err := NewService(finder, sessions, testJWTConfig)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, finder, sessions
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, finder, sessions := buildService(t)
	user := seedUser(t, finder, "hunter2hunter2", true)

	result, err := svc.Login(context.Background(), "OPS@taxipark.uz", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
	if result.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, result.User.ID)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig, result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != user.Role {
		t.Fatalf("claims must carry the account identity, got %+v", claims)
	}
	if len(sessions.generated) != 1 || sessions.generated[0] != claims.ID {
		t.Fatalf("session must be keyed by the token jti, got %v", sessions.generated)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, finder, _ := buildService(t)
	seedUser(t, finder, "hunter2hunter2", true)
	inactive := seedUser(t, finder, "hunter2hunter2", false)
	inactive.Email = "gone@taxipark.uz"

	cases := []struct {
		email    string
		password string
	}{
		{"ops@taxipark.uz", "wrong-password"},
		{"nobody@taxipark.uz", "hunter2hunter2"},
		{"gone@taxipark.uz", "hunter2hunter2"},
	}
	var messages []string
	for _, tc := range cases {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("%s: expected unauthorized, got %v", tc.email, err)
		}
		messages = append(messages, typed.Error())
	}
	if messages[0] != messages[1] || messages[1] != messages[2] {
		t.Fatalf("failure messages must not reveal which accounts exist: %v", messages)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, finder, _ := buildService(t)
	seedUser(t, finder, "hunter2hunter2", true)

	login, err := svc.Login(context.Background(), "ops@taxipark.uz", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.Tokens.AccessToken, login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Tokens.AccessToken == login.Tokens.AccessToken {
		t.Fatal("refresh must issue a new access token")
	}

	oldClaims, _ := auth.ParseAccessToken(testJWTConfig, login.Tokens.AccessToken)
	newClaims, err := auth.ParseAccessToken(testJWTConfig, refreshed.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if newClaims.ID == oldClaims.ID {
		t.Fatal("refresh must rotate the jti")
	}
}

func TestRefreshRejectsInvalidRefreshToken(t *testing.T) {
	svc, finder, sessions := buildService(t)
	seedUser(t, finder, "hunter2hunter2", true)
	sessions.rotateErr = session.ErrInvalidRefreshToken

	login, err := svc.Login(context.Background(), "ops@taxipark.uz", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), login.Tokens.AccessToken, "stolen-token")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRejectsDeactivatedAccount(t *testing.T) {
	svc, finder, _ := buildService(t)
	user := seedUser(t, finder, "hunter2hunter2", true)

	login, err := svc.Login(context.Background(), "ops@taxipark.uz", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	finder.users[user.ID].IsActive = false

	_, err = svc.Refresh(context.Background(), login.Tokens.AccessToken, login.Tokens.RefreshToken)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("deactivation must end the session, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, finder, sessions := buildService(t)
	seedUser(t, finder, "hunter2hunter2", true)

	login, err := svc.Login(context.Background(), "ops@taxipark.uz", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), login.Tokens.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	claims, _ := auth.ParseAccessToken(testJWTConfig, login.Tokens.AccessToken)
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Fatalf("logout must revoke the session key, got %v", sessions.revoked)
	}
}
