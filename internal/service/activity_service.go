package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/sukunslide/docshare-api/internal/models"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
	"github.com/sukunslide/docshare-api/pkg/jobs"
)

type activityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type activityMetrics interface {
	RecordActivityFailure()
}

// ActivityService records audit entries asynchronously. Writes go through a
// background queue so a slow or failing audit table never blocks the request
// path; entries dropped after retries are counted and logged.
type ActivityService struct {
	repo    activityRepository
	queue   *jobs.Queue
	metrics activityMetrics
	logger  *zap.Logger
}

// ActivityConfig tunes the background writer.
type ActivityConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NewActivityService constructs the service and its queue. Start must be
// called before Record.
func NewActivityService(repo activityRepository, metrics activityMetrics, logger *zap.Logger, cfg ActivityConfig) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ActivityService{repo: repo, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("activity-log", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *ActivityService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ActivityService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged, never returned.
func (s *ActivityService) Record(userID *string, action string, detail interface{}) {
	var payload types.JSONText
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			s.logger.Warn("failed to marshal activity detail", zap.String("action", action), zap.Error(err))
		} else {
			payload = types.JSONText(raw)
		}
	}

	entry := models.ActivityLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Detail:    payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: action, Payload: entry}); err != nil {
		s.logger.Warn("failed to enqueue activity log", zap.String("action", action), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordActivityFailure()
		}
	}
}

// Recent returns the newest audit entries for the admin dashboard.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity logs")
	}
	return entries, nil
}

func (s *ActivityService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ActivityLog)
	if !ok {
		s.logger.Error("invalid activity payload type", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		if job.Attempt >= 2 && s.metrics != nil {
			s.metrics.RecordActivityFailure()
		}
		return err
	}
	return nil
}
