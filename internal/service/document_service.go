package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	"github.com/sukunslide/docshare-api/internal/upload"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
	"github.com/sukunslide/docshare-api/pkg/storage"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	Update(ctx context.Context, doc *models.Document) error
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
	IncrementDownloadCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type subjectLookup interface {
	GetByID(ctx context.Context, id string) (*models.Subject, error)
}

type downloadWriter interface {
	Create(ctx context.Context, d *models.Download) error
}

type documentCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type activityRecorder interface {
	Record(userID *string, action string, detail interface{})
}

type documentMetrics interface {
	RecordUpload(outcome string)
	RecordDownload()
	RecordCacheOperation(hit bool)
}

// DocumentConfig tunes caching of approved listings.
type DocumentConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

const documentCachePrefix = "documents:approved:"

// documentListPage is the cached shape of an approved listing page.
type documentListPage struct {
	Documents []models.Document `json:"documents"`
	Total     int               `json:"total"`
}

// DocumentService implements the document lifecycle: upload, moderation,
// listing and downloads.
type DocumentService struct {
	repo      documentRepository
	subjects  subjectLookup
	downloads downloadWriter
	cache     documentCache
	blobs     storage.BlobStore
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	files     *upload.Validator
	activity  activityRecorder
	metrics   documentMetrics
	logger    *zap.Logger
	config    DocumentConfig
}

// NewDocumentService constructs the service.
func NewDocumentService(
	repo documentRepository,
	subjects subjectLookup,
	downloads downloadWriter,
	cache documentCache,
	blobs storage.BlobStore,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	files *upload.Validator,
	activity activityRecorder,
	metrics documentMetrics,
	logger *zap.Logger,
	config DocumentConfig,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	return &DocumentService{
		repo:      repo,
		subjects:  subjects,
		downloads: downloads,
		cache:     cache,
		blobs:     blobs,
		signer:    signer,
		validator: validate,
		files:     files,
		activity:  activity,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

// List returns documents matching the filter. Non-admin callers always see
// only approved documents regardless of the requested status.
func (s *DocumentService) List(ctx context.Context, principal *models.User, filter models.DocumentFilter) ([]models.Document, int, error) {
	if principal == nil || principal.Role != models.RoleAdmin {
		filter.Status = models.DocumentApproved
	}

	cacheable := s.config.CacheEnabled && s.cache != nil && filter.Status == models.DocumentApproved
	cacheKey := s.listCacheKey(filter)
	if cacheable {
		var page documentListPage
		if err := s.cache.Get(ctx, cacheKey, &page); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return page.Documents, page.Total, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	if cacheable {
		if err := s.cache.Set(ctx, cacheKey, documentListPage{Documents: docs, Total: total}, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache document list", zap.Error(err))
		}
	}
	return docs, total, nil
}

// Get returns one document. Non-admin callers can only see approved
// documents; anything else reads as not found.
func (s *DocumentService) Get(ctx context.Context, principal *models.User, id string) (*models.Document, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if (principal == nil || principal.Role != models.RoleAdmin) && doc.Status != models.DocumentApproved {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return doc, nil
}

// Submit stores an upload from a regular user. The document enters the
// moderation queue as pending.
func (s *DocumentService) Submit(ctx context.Context, principal *models.User, req dto.CreateDocumentRequest, filename string, size int64, contentType string, file io.Reader) (*models.Document, error) {
	return s.ingest(ctx, principal, req, filename, size, contentType, file, models.DocumentPending)
}

// AdminUpload stores an upload from an administrator. The document is
// approved immediately.
func (s *DocumentService) AdminUpload(ctx context.Context, principal *models.User, req dto.CreateDocumentRequest, filename string, size int64, contentType string, file io.Reader) (*models.Document, error) {
	doc, err := s.ingest(ctx, principal, req, filename, size, contentType, file, models.DocumentApproved)
	if err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	s.recordActivity(principal, models.ActivityDocumentUpload, map[string]string{"document_id": doc.ID, "title": doc.Title})
	return doc, nil
}

func (s *DocumentService) ingest(ctx context.Context, principal *models.User, req dto.CreateDocumentRequest, filename string, size int64, contentType string, file io.Reader, status models.DocumentStatus) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		s.recordUploadOutcome("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	verdict, err := s.files.Validate(filename, size, contentType)
	if err != nil {
		s.recordUploadOutcome("rejected")
		return nil, err
	}
	if verdict.MimeWarning != "" {
		s.logger.Warn("content type does not match extension",
			zap.String("filename", filename),
			zap.String("declared", verdict.MimeWarning),
			zap.String("extension", verdict.Extension))
	}

	if _, err := s.subjects.GetByID(ctx, req.SubjectID); err != nil {
		s.recordUploadOutcome("rejected")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
	}

	key := upload.GenerateFilename(req.Title, verdict.Extension)
	reader := io.Reader(file)
	if maxSize := s.files.MaxSize(); maxSize > 0 && size < 0 {
		reader = io.LimitReader(file, maxSize+1)
	}
	storedKey, written, err := s.saveBlob(ctx, key, reader)
	if err != nil {
		s.recordUploadOutcome("rejected")
		return nil, err
	}
	if maxSize := s.files.MaxSize(); maxSize > 0 && written > maxSize {
		s.cleanupBlob(ctx, storedKey)
		s.recordUploadOutcome("rejected")
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, "")
	}

	doc := &models.Document{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		SubjectID:   req.SubjectID,
		Format:      verdict.Extension,
		FilePath:    storedKey,
		FileSize:    written,
		Author:      strings.TrimSpace(req.Author),
		Tags:        normalizeTags(req.Tags),
		Status:      status,
		UploadedBy:  principal.ID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		s.cleanupBlob(ctx, storedKey)
		s.recordUploadOutcome("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document metadata")
	}

	s.recordUploadOutcome("accepted")
	s.logger.Info("document stored",
		zap.String("document_id", doc.ID),
		zap.String("status", string(doc.Status)),
		zap.Int64("size", doc.FileSize))
	return doc, nil
}

// cleanupBlob removes an orphaned blob after a failed pipeline step. Its own
// failure is logged and never masks the error that triggered the cleanup.
func (s *DocumentService) cleanupBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		wrapped := appErrors.Wrap(err, appErrors.ErrStorageDelete.Code, appErrors.ErrStorageDelete.Status, appErrors.ErrStorageDelete.Message)
		s.logger.Warn("failed to delete orphaned blob", zap.String("path", key), zap.Error(wrapped))
	}
}

func (s *DocumentService) saveBlob(ctx context.Context, key string, r io.Reader) (string, int64, error) {
	counting := &countingReader{r: r}
	storedKey, err := s.blobs.Save(ctx, key, counting)
	if err != nil {
		return "", 0, appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, appErrors.ErrStorageWrite.Message)
	}
	return storedKey, counting.n, nil
}

// Approve transitions a document to approved.
func (s *DocumentService) Approve(ctx context.Context, principal *models.User, id string) (*models.Document, error) {
	return s.moderate(ctx, principal, id, models.DocumentApproved, models.ActivityDocumentApprove)
}

// Reject transitions a document to rejected.
func (s *DocumentService) Reject(ctx context.Context, principal *models.User, id string) (*models.Document, error) {
	return s.moderate(ctx, principal, id, models.DocumentRejected, models.ActivityDocumentReject)
}

func (s *DocumentService) moderate(ctx context.Context, principal *models.User, id string, status models.DocumentStatus, action string) (*models.Document, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status != status {
		if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
		}
		doc.Status = status
		s.invalidateListCache(ctx)
	}

	s.recordActivity(principal, action, map[string]string{"document_id": doc.ID})
	return doc, nil
}

// AdminUpdate applies a partial metadata edit. An explicit status field must
// name a valid moderation state or the whole request is rejected.
func (s *DocumentService) AdminUpdate(ctx context.Context, principal *models.User, id string, req dto.UpdateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	if req.Title != nil && strings.TrimSpace(*req.Title) != doc.Title {
		doc.Title = strings.TrimSpace(*req.Title)
		changed["title"] = doc.Title
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) != doc.Description {
		doc.Description = strings.TrimSpace(*req.Description)
		changed["description"] = doc.Description
	}
	if req.SubjectID != nil && *req.SubjectID != doc.SubjectID {
		if _, err := s.subjects.GetByID(ctx, *req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
		}
		doc.SubjectID = *req.SubjectID
		changed["subject_id"] = doc.SubjectID
	}
	if req.Author != nil && strings.TrimSpace(*req.Author) != doc.Author {
		doc.Author = strings.TrimSpace(*req.Author)
		changed["author"] = doc.Author
	}
	if req.Tags != nil {
		doc.Tags = normalizeTags(*req.Tags)
		changed["tags"] = []string(doc.Tags)
	}
	if req.Status != nil {
		status := models.DocumentStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", *req.Status))
		}
		if status != doc.Status {
			doc.Status = status
			changed["status"] = string(status)
		}
	}

	if len(changed) == 0 {
		return doc, nil
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document")
	}

	s.invalidateListCache(ctx)
	changed["document_id"] = doc.ID
	s.recordActivity(principal, models.ActivityDocumentUpdate, changed)
	return doc, nil
}

// AdminDelete removes the blob and the metadata row. A blob that cannot be
// deleted is logged but does not block removal of the record.
func (s *DocumentService) AdminDelete(ctx context.Context, principal *models.User, id string) error {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, doc.FilePath); err != nil {
		s.logger.Warn("failed to delete document blob",
			zap.String("document_id", doc.ID),
			zap.String("path", doc.FilePath),
			zap.Error(err))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}

	s.invalidateListCache(ctx)
	s.recordActivity(principal, models.ActivityDocumentDelete, map[string]string{"document_id": doc.ID, "title": doc.Title})
	return nil
}

// RecordDownload registers a download of an approved document and returns a
// short-lived signed file reference.
func (s *DocumentService) RecordDownload(ctx context.Context, principal *models.User, id, ip, userAgent string) (*dto.DownloadResponse, error) {
	doc, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	dl := &models.Download{
		UserID:     principal.ID,
		DocumentID: doc.ID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.downloads.Create(ctx, dl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record download")
	}
	if err := s.repo.IncrementDownloadCount(ctx, doc.ID); err != nil {
		s.logger.Warn("failed to increment download count", zap.String("document_id", doc.ID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordDownload()
	}

	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	return &dto.DownloadResponse{
		DocumentID: doc.ID,
		URL:        fmt.Sprintf("/api/documents/%s/file?token=%s", doc.ID, token),
		ExpiresIn:  int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// ServeFile validates a signed token and opens the referenced blob.
func (s *DocumentService) ServeFile(ctx context.Context, id, token string) (*models.Document, io.ReadCloser, int64, error) {
	docID, key, _, err := s.signer.Parse(token)
	if err != nil || docID != id {
		return nil, nil, 0, appErrors.Clone(appErrors.ErrInvalidDownload, "")
	}

	doc, err := s.getDocument(ctx, docID)
	if err != nil {
		return nil, nil, 0, err
	}
	if doc.FilePath != key {
		return nil, nil, 0, appErrors.Clone(appErrors.ErrInvalidDownload, "")
	}

	rc, size, err := s.blobs.Open(ctx, key)
	if err != nil {
		return nil, nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return doc, rc, size, nil
}

func (s *DocumentService) getDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch document")
	}
	return doc, nil
}

func (s *DocumentService) listCacheKey(filter models.DocumentFilter) string {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return fmt.Sprintf("%sp%d:n%d:subject:%s:format:%s:q:%s",
		documentCachePrefix, page, pageSize, filter.SubjectID, strings.ToLower(filter.Format), strings.ToLower(filter.Search))
}

func (s *DocumentService) invalidateListCache(ctx context.Context) {
	if !s.config.CacheEnabled || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, documentCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate document cache", zap.Error(err))
	}
}

func (s *DocumentService) recordActivity(principal *models.User, action string, detail interface{}) {
	if s.activity == nil {
		return
	}
	var userID *string
	if principal != nil {
		id := principal.ID
		userID = &id
	}
	s.activity.Record(userID, action, detail)
}

func (s *DocumentService) recordUploadOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordUpload(outcome)
	}
}

func normalizeTags(tags []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		lower := strings.ToLower(t)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, t)
	}
	return out
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
