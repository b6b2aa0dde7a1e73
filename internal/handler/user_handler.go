package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
	"github.com/sukunslide/docshare-api/pkg/response"
)

type userService interface {
	Profile(ctx context.Context, userID string) (*models.UserInfo, error)
	UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.UserInfo, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.UserInfo, int, error)
	SetUserStatus(ctx context.Context, principal *models.User, userID string, req dto.UpdateUserStatusRequest) (*models.UserInfo, error)
	DownloadHistory(ctx context.Context, userID string, page, pageSize int) ([]models.DownloadWithDocument, int, error)
	AddFavorite(ctx context.Context, userID, documentID string) error
	RemoveFavorite(ctx context.Context, userID, documentID string) error
	ListFavorites(ctx context.Context, userID string, page, pageSize int) ([]models.FavoriteWithDocument, int, error)
}

// UserHandler manages profile, favorites and admin user endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs the handler.
func NewUserHandler(service userService) *UserHandler {
	return &UserHandler{service: service}
}

// Profile godoc
// @Summary Current user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Profile(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	info, err := h.service.Profile(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Partial profile update"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid profile payload"))
		return
	}
	info, err := h.service.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Downloads godoc
// @Summary Current user's download history
// @Tags Users
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users/downloads [get]
func (h *UserHandler) Downloads(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)
	rows, total, err := h.service.DownloadHistory(c.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, paginationMeta(page, pageSize, total))
}

// ListFavorites godoc
// @Summary Current user's favorites
// @Tags Favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users/favorites [get]
func (h *UserHandler) ListFavorites(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)
	rows, total, err := h.service.ListFavorites(c.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, paginationMeta(page, pageSize, total))
}

// AddFavorite godoc
// @Summary Add a document to favorites
// @Tags Favorites
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /users/favorites/{id} [post]
func (h *UserHandler) AddFavorite(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.AddFavorite(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"document_id": c.Param("id")}, nil)
}

// RemoveFavorite godoc
// @Summary Remove a document from favorites
// @Tags Favorites
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 204
// @Router /users/favorites/{id} [delete]
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.RemoveFavorite(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListUsers godoc
// @Summary List user accounts
// @Tags Admin
// @Produce json
// @Param role query string false "Role filter"
// @Param status query string false "Status filter"
// @Param search query string false "Email or name search"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	if raw := c.Query("status"); raw != "" {
		status := models.UserStatus(raw)
		filter.Status = &status
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, paginationMeta(filter.Page, filter.PageSize, total))
}

// SetUserStatus godoc
// @Summary Activate or deactivate a user account
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserStatusRequest true "New status"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/status [put]
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	var req dto.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	info, err := h.service.SetUserStatus(c.Request.Context(), userFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
