package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sukunslide/docshare-api/internal/models"
	"github.com/sukunslide/docshare-api/pkg/response"
)

type analyticsService interface {
	Overview(ctx context.Context) (*models.AnalyticsOverview, error)
	DocumentsBySubject(ctx context.Context) ([]models.SubjectDocumentCount, error)
	TopDownloads(ctx context.Context, limit int) ([]models.TopDocument, error)
	Export(ctx context.Context, format string) ([]byte, string, error)
}

type activityService interface {
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// AnalyticsHandler serves admin dashboard aggregates and exports.
type AnalyticsHandler struct {
	analytics analyticsService
	activity  activityService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(analytics analyticsService, activity activityService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, activity: activity}
}

// Overview godoc
// @Summary Platform-wide counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	overview, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// DocumentsBySubject godoc
// @Summary Approved documents per subject
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/subjects [get]
func (h *AnalyticsHandler) DocumentsBySubject(c *gin.Context) {
	rows, err := h.analytics.DocumentsBySubject(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// TopDownloads godoc
// @Summary Most downloaded documents
// @Tags Admin
// @Produce json
// @Param limit query int false "Row limit"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/top-downloads [get]
func (h *AnalyticsHandler) TopDownloads(c *gin.Context) {
	rows, err := h.analytics.TopDownloads(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Export godoc
// @Summary Export analytics as csv or pdf
// @Tags Admin
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /admin/analytics/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.analytics.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("analytics-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, payload)
}

// RecentActivity godoc
// @Summary Recent administrative actions
// @Tags Admin
// @Produce json
// @Param limit query int false "Row limit"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/activity-logs [get]
func (h *AnalyticsHandler) RecentActivity(c *gin.Context) {
	entries, err := h.activity.Recent(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
