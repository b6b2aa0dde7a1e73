package handler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
	"github.com/sukunslide/docshare-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, principal *models.User, filter models.DocumentFilter) ([]models.Document, int, error)
	Get(ctx context.Context, principal *models.User, id string) (*models.Document, error)
	Submit(ctx context.Context, principal *models.User, req dto.CreateDocumentRequest, filename string, size int64, contentType string, file io.Reader) (*models.Document, error)
	AdminUpload(ctx context.Context, principal *models.User, req dto.CreateDocumentRequest, filename string, size int64, contentType string, file io.Reader) (*models.Document, error)
	Approve(ctx context.Context, principal *models.User, id string) (*models.Document, error)
	Reject(ctx context.Context, principal *models.User, id string) (*models.Document, error)
	AdminUpdate(ctx context.Context, principal *models.User, id string, req dto.UpdateDocumentRequest) (*models.Document, error)
	AdminDelete(ctx context.Context, principal *models.User, id string) error
	RecordDownload(ctx context.Context, principal *models.User, id, ip, userAgent string) (*dto.DownloadResponse, error)
	ServeFile(ctx context.Context, id, token string) (*models.Document, io.ReadCloser, int64, error)
}

// DocumentHandler manages document HTTP endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param subject_id query string false "Subject filter"
// @Param format query string false "Format filter"
// @Param search query string false "Title or description search"
// @Param status query string false "Status filter (admin only)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	filter := models.DocumentFilter{
		Status:    models.DocumentStatus(c.Query("status")),
		SubjectID: c.Query("subject_id"),
		Format:    c.Query("format"),
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}

	docs, total, err := h.service.List(c.Request.Context(), userFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, paginationMeta(filter.Page, filter.PageSize, total))
}

// Pending godoc
// @Summary List the moderation queue
// @Tags Admin
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/documents/pending [get]
func (h *DocumentHandler) Pending(c *gin.Context) {
	filter := models.DocumentFilter{
		Status:   models.DocumentPending,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	docs, total, err := h.service.List(c.Request.Context(), userFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, paginationMeta(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), userFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Submit godoc
// @Summary Upload a document for moderation
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subject_id formData string true "Subject"
// @Param description formData string false "Description"
// @Param author formData string false "Author"
// @Param tags formData []string false "Tags"
// @Param file formData file true "Document file"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Submit(c *gin.Context) {
	h.ingest(c, false)
}

// AdminUpload godoc
// @Summary Upload a document as admin, approved immediately
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /admin/documents/upload [post]
func (h *DocumentHandler) AdminUpload(c *gin.Context) {
	h.ingest(c, true)
}

func (h *DocumentHandler) ingest(c *gin.Context, asAdmin bool) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid document payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFilename, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	var doc *models.Document
	if asAdmin {
		doc, err = h.service.AdminUpload(c.Request.Context(), user, req, fileHeader.Filename, fileHeader.Size, contentType, src)
	} else {
		doc, err = h.service.Submit(c.Request.Context(), user, req, fileHeader.Filename, fileHeader.Size, contentType, src)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, doc, nil)
}

// Approve godoc
// @Summary Approve a pending document
// @Tags Admin
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/documents/{id}/approve [put]
func (h *DocumentHandler) Approve(c *gin.Context) {
	doc, err := h.service.Approve(c.Request.Context(), userFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Reject godoc
// @Summary Reject a pending document
// @Tags Admin
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/documents/{id}/reject [put]
func (h *DocumentHandler) Reject(c *gin.Context) {
	doc, err := h.service.Reject(c.Request.Context(), userFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Update godoc
// @Summary Edit document metadata
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.UpdateDocumentRequest true "Partial update"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid update payload"))
		return
	}
	doc, err := h.service.AdminUpdate(c.Request.Context(), userFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Delete godoc
// @Summary Delete a document and its file
// @Tags Admin
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 204
// @Router /admin/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.AdminDelete(c.Request.Context(), userFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Register a download and get a signed file URL
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/download [post]
func (h *DocumentHandler) Download(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resp, err := h.service.RecordDownload(c.Request.Context(), user, c.Param("id"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// ServeFile godoc
// @Summary Stream a document file referenced by a signed token
// @Tags Documents
// @Param id path string true "Document ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /documents/{id}/file [get]
func (h *DocumentHandler) ServeFile(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidDownload, "token is required"))
		return
	}

	doc, rc, size, err := h.service.ServeFile(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension("." + doc.Format)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := strings.ReplaceAll(doc.Title, `"`, "")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, filename, doc.Format))
	c.DataFromReader(http.StatusOK, size, contentType, rc, nil)
}
