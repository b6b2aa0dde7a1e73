package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	GetByID(ctx context.Context, id string) (*models.Subject, error)
	GetByCode(ctx context.Context, code string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectUsageCounter interface {
	CountBySubject(ctx context.Context, subjectID string) (int, error)
}

// SubjectService manages the subject reference table.
type SubjectService struct {
	repo      subjectRepository
	documents subjectUsageCounter
	validator *validator.Validate
	activity  activityRecorder
	logger    *zap.Logger
}

// NewSubjectService constructs the service.
func NewSubjectService(repo subjectRepository, documents subjectUsageCounter, validate *validator.Validate, activity activityRecorder, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, documents: documents, validator: validate, activity: activity, logger: logger}
}

// List returns all subjects.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	return subject, nil
}

// Create adds a subject. Codes are unique case-insensitively.
func (s *SubjectService) Create(ctx context.Context, principal *models.User, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}

	subject := &models.Subject{Code: code, Name: strings.TrimSpace(req.Name)}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.record(principal, models.ActivitySubjectCreate, map[string]string{"subject_id": subject.ID, "code": subject.Code})
	return subject, nil
}

// Update applies a partial edit to a subject.
func (s *SubjectService) Update(ctx context.Context, principal *models.User, id string, req dto.UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if code != subject.Code {
			if existing, err := s.repo.GetByCode(ctx, code); err == nil && existing.ID != id {
				return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
			} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
			}
			subject.Code = code
		}
	}
	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}

	s.record(principal, models.ActivitySubjectUpdate, map[string]string{"subject_id": subject.ID, "code": subject.Code})
	return subject, nil
}

// Delete removes a subject unless documents still reference it.
func (s *SubjectService) Delete(ctx context.Context, principal *models.User, id string) error {
	count, err := s.documents.CountBySubject(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "subject still referenced by documents")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	s.record(principal, models.ActivitySubjectDelete, map[string]string{"subject_id": id})
	return nil
}

func (s *SubjectService) record(principal *models.User, action string, detail interface{}) {
	if s.activity == nil || principal == nil {
		return
	}
	id := principal.ID
	s.activity.Record(&id, action, detail)
}
