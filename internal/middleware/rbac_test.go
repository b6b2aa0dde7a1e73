package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukunslide/docshare-api/internal/models"
)

func newRBACRouter(user *models.User, mutated *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	})
	router.PUT("/admin/documents/:id/reject", RequireAdmin(), func(c *gin.Context) {
		*mutated = true
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireAdminRefusesNonAdmin(t *testing.T) {
	mutated := false
	router := newRBACRouter(&models.User{ID: "u1", Role: models.RoleUser, Status: models.StatusActive}, &mutated)

	req := httptest.NewRequest(http.MethodPut, "/admin/documents/d1/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
	assert.False(t, mutated, "handler must not run for non-admin callers")
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	mutated := false
	router := newRBACRouter(&models.User{ID: "a1", Role: models.RoleAdmin, Status: models.StatusActive}, &mutated)

	req := httptest.NewRequest(http.MethodPut, "/admin/documents/d1/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mutated)
}

func TestRequireAdminRefusesAnonymous(t *testing.T) {
	mutated := false
	router := newRBACRouter(nil, &mutated)

	req := httptest.NewRequest(http.MethodPut, "/admin/documents/d1/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, mutated)
}
