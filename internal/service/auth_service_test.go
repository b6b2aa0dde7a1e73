package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sukunslide/docshare-api/internal/models"
	"github.com/sukunslide/docshare-api/internal/repository"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail    *models.User
	userByID       *models.User
	findByEmailErr error
	findByIDErr    error
	created        *models.User
	createErr      error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.userByID, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-id"
	m.created = user
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "docshare-test",
	})
}

func activeUser(password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           "u1",
		Email:        "user@example.com",
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
}

func TestRegisterCreatesUserRole(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := newAuthService(repo)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "New@Example.com",
		Password: "secret-pass",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.Equal(t, "new@example.com", repo.created.Email)
	assert.Equal(t, models.StatusActive, repo.created.Status)
	assert.NotEqual(t, "secret-pass", repo.created.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser("pw")}
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "user@example.com",
		Password: "secret-pass",
		FullName: "Dup User",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestRegisterMapsConcurrentDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows, createErr: repository.ErrDuplicateEmail}
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "race@example.com",
		Password: "secret-pass",
		FullName: "Race User",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser("secret-pass")}
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "user@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser("secret-pass")}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "user@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser("secret-pass")
	user.Status = models.StatusInactive
	repo := &mockAuthRepo{userByEmail: user}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "user@example.com",
		Password: "secret-pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	user := activeUser("secret-pass")
	repo := &mockAuthRepo{userByEmail: user, userByID: user}
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "user@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	resolved, err := svc.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	user := activeUser("secret-pass")
	repo := &mockAuthRepo{userByEmail: user, findByIDErr: sql.ErrNoRows}
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "user@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), resp.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{})

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
