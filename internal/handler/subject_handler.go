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

type subjectService interface {
	List(ctx context.Context) ([]models.Subject, error)
	Get(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, principal *models.User, req dto.CreateSubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, principal *models.User, id string, req dto.UpdateSubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, principal *models.User, id string) error
}

// SubjectHandler manages the subject reference endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(service subjectService) *SubjectHandler {
	return &SubjectHandler{service: service}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Get godoc
// @Summary Get a subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Create godoc
// @Summary Create a subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /admin/subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subject payload"))
		return
	}
	subject, err := h.service.Create(c.Request.Context(), userFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, subject, nil)
}

// Update godoc
// @Summary Update a subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.UpdateSubjectRequest true "Partial update"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subject payload"))
		return
	}
	subject, err := h.service.Update(c.Request.Context(), userFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete a subject
// @Tags Admin
// @Param id path string true "Subject ID"
// @Security BearerAuth
// @Success 204
// @Router /admin/subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), userFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
