package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sukunslide/docshare-api/internal/models"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
	"github.com/sukunslide/docshare-api/pkg/export"
)

type analyticsRepository interface {
	Overview(ctx context.Context) (*models.AnalyticsOverview, error)
	DocumentsBySubject(ctx context.Context) ([]models.SubjectDocumentCount, error)
	TopDownloads(ctx context.Context, limit int) ([]models.TopDocument, error)
}

const analyticsOverviewCacheKey = "analytics:overview"

// AnalyticsService serves admin dashboard aggregates and exports.
type AnalyticsService struct {
	repo    analyticsRepository
	cache   documentCache
	metrics documentMetrics
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
	ttl     time.Duration
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(repo analyticsRepository, cache documentCache, metrics documentMetrics, logger *zap.Logger, ttl time.Duration) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnalyticsService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		ttl:     ttl,
	}
}

// Overview returns platform-wide counters, cached briefly.
func (s *AnalyticsService) Overview(ctx context.Context) (*models.AnalyticsOverview, error) {
	if s.cache != nil {
		var cached models.AnalyticsOverview
		if err := s.cache.Get(ctx, analyticsOverviewCacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	overview, err := s.repo.Overview(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute overview")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, analyticsOverviewCacheKey, overview, s.ttl); err != nil {
			s.logger.Warn("failed to cache analytics overview", zap.Error(err))
		}
	}
	return overview, nil
}

// DocumentsBySubject tallies approved documents per subject.
func (s *AnalyticsService) DocumentsBySubject(ctx context.Context) ([]models.SubjectDocumentCount, error) {
	rows, err := s.repo.DocumentsBySubject(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tally documents")
	}
	return rows, nil
}

// TopDownloads returns the download leaderboard.
func (s *AnalyticsService) TopDownloads(ctx context.Context, limit int) ([]models.TopDocument, error) {
	rows, err := s.repo.TopDownloads(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list top downloads")
	}
	return rows, nil
}

// Export renders the overview and leaderboard as csv or pdf.
func (s *AnalyticsService) Export(ctx context.Context, format string) ([]byte, string, error) {
	overview, err := s.Overview(ctx)
	if err != nil {
		return nil, "", err
	}
	top, err := s.TopDownloads(ctx, 10)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Title:       "Platform analytics",
		GeneratedAt: time.Now(),
		Headers:     []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Total users", "Value": fmt.Sprintf("%d", overview.TotalUsers)},
			{"Metric": "Active users", "Value": fmt.Sprintf("%d", overview.ActiveUsers)},
			{"Metric": "Total documents", "Value": fmt.Sprintf("%d", overview.TotalDocuments)},
			{"Metric": "Pending documents", "Value": fmt.Sprintf("%d", overview.PendingDocuments)},
			{"Metric": "Approved documents", "Value": fmt.Sprintf("%d", overview.ApprovedDocuments)},
			{"Metric": "Rejected documents", "Value": fmt.Sprintf("%d", overview.RejectedDocuments)},
			{"Metric": "Total downloads", "Value": fmt.Sprintf("%d", overview.TotalDownloads)},
			{"Metric": "Total favorites", "Value": fmt.Sprintf("%d", overview.TotalFavorites)},
		},
	}
	for i, doc := range top {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Metric": fmt.Sprintf("Top download #%d: %s", i+1, doc.Title),
			"Value":  fmt.Sprintf("%d", doc.DownloadCount),
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
