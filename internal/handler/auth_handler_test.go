package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukunslide/docshare-api/internal/models"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
)

type stubAuthService struct {
	registerResp *models.LoginResponse
	registerErr  error
	loginResp    *models.LoginResponse
	loginErr     error
}

func (s *stubAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return s.registerResp, nil
}

func (s *stubAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResp, nil
}

func newAuthRouter(svc *stubAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(svc)
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	return router
}

func TestRegisterEndpointCreated(t *testing.T) {
	svc := &stubAuthService{registerResp: &models.LoginResponse{
		Token:     "signed-token",
		ExpiresIn: 86400,
		User:      models.UserInfo{ID: "u1", Email: "new@example.com", Role: models.RoleUser},
	}}
	router := newAuthRouter(svc)

	body := `{"email":"new@example.com","password":"secret-pass","full_name":"New User"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "u1", envelope.Data.User.ID)
	assert.Equal(t, "signed-token", envelope.Data.Token)
}

func TestRegisterEndpointConflict(t *testing.T) {
	svc := &stubAuthService{registerErr: appErrors.ErrEmailTaken}
	router := newAuthRouter(svc)

	body := `{"email":"dup@example.com","password":"secret-pass","full_name":"Dup"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_TAKEN")
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{loginErr: appErrors.ErrInvalidCredentials}
	router := newAuthRouter(svc)

	body := `{"email":"user@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestLoginEndpointMalformedBody(t *testing.T) {
	router := newAuthRouter(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
