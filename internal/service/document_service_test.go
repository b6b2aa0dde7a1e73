package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	"github.com/sukunslide/docshare-api/internal/upload"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
	"github.com/sukunslide/docshare-api/pkg/storage"
)

type mockDocumentRepo struct {
	docs         map[string]*models.Document
	created      *models.Document
	createErr    error
	listStatus   models.DocumentStatus
	deleted      []string
	incremented  []string
	statusWrites map[string]models.DocumentStatus
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: map[string]*models.Document{}, statusWrites: map[string]models.DocumentStatus{}}
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	doc.ID = "doc-1"
	m.created = doc
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *doc
	return &copied, nil
}

func (m *mockDocumentRepo) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	m.listStatus = filter.Status
	var out []models.Document
	for _, d := range m.docs {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	doc, ok := m.docs[id]
	if !ok {
		return sql.ErrNoRows
	}
	doc.Status = status
	m.statusWrites[id] = status
	return nil
}

func (m *mockDocumentRepo) IncrementDownloadCount(ctx context.Context, id string) error {
	m.incremented = append(m.incremented, id)
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSubjects struct {
	err error
}

func (m *mockSubjects) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Subject{ID: id, Code: "MATH", Name: "Mathematics"}, nil
}

type mockDownloads struct {
	created []*models.Download
	err     error
}

func (m *mockDownloads) Create(ctx context.Context, d *models.Download) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, d)
	return nil
}

type mockBlobStore struct {
	saved     map[string][]byte
	saveErr   error
	deleted   []string
	deleteErr error
	openErr   error
	contents  []byte
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{saved: map[string][]byte{}, contents: []byte("file-bytes")}
}

func (m *mockBlobStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, _ := io.ReadAll(r)
	m.saved[key] = data
	return key, nil
}

func (m *mockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if m.openErr != nil {
		return nil, 0, m.openErr
	}
	return io.NopCloser(strings.NewReader(string(m.contents))), int64(len(m.contents)), nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return m.deleteErr
}

type mockActivity struct {
	actions []string
}

func (m *mockActivity) Record(userID *string, action string, detail interface{}) {
	m.actions = append(m.actions, action)
}

func newDocumentService(repo *mockDocumentRepo, blobs *mockBlobStore, downloads *mockDownloads, activity *mockActivity) *DocumentService {
	signer := storage.NewSignedURLSigner("test-secret", 30*time.Minute)
	files := upload.NewValidator(1<<20, []string{"pdf", "docx"})
	return NewDocumentService(repo, &mockSubjects{}, downloads, nil, blobs, signer, nil, files, activity, nil, nil, DocumentConfig{})
}

func adminPrincipal() *models.User {
	return &models.User{ID: "admin-1", Role: models.RoleAdmin, Status: models.StatusActive}
}

func userPrincipal() *models.User {
	return &models.User{ID: "user-1", Role: models.RoleUser, Status: models.StatusActive}
}

func validUpload() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		Title:     "Calculus Summary",
		SubjectID: "3d2e8e7a-6f3b-4f25-9c70-0a5a4fbe2f11",
	}
}

func TestSubmitStoresPendingDocument(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	svc := newDocumentService(repo, blobs, &mockDownloads{}, nil)

	doc, err := svc.Submit(context.Background(), userPrincipal(), validUpload(), "notes.pdf", 10, "application/pdf", strings.NewReader("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, models.DocumentPending, doc.Status)
	assert.Equal(t, "pdf", doc.Format)
	assert.Equal(t, int64(10), doc.FileSize)
	assert.Equal(t, "user-1", doc.UploadedBy)
	assert.Len(t, blobs.saved, 1)
}

func TestAdminUploadIsApprovedAndAudited(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	activity := &mockActivity{}
	svc := newDocumentService(repo, blobs, &mockDownloads{}, activity)

	doc, err := svc.AdminUpload(context.Background(), adminPrincipal(), validUpload(), "notes.pdf", 10, "application/pdf", strings.NewReader("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, doc.Status)
	assert.Contains(t, activity.actions, models.ActivityDocumentUpload)
}

func TestSubmitRejectsUnsupportedExtension(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	_, err := svc.Submit(context.Background(), userPrincipal(), validUpload(), "payload.exe", 10, "", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedType.Code, appErrors.FromError(err).Code)
}

func TestSubmitCleansUpBlobWhenMetadataFails(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.createErr = sql.ErrConnDone
	blobs := newMockBlobStore()
	svc := newDocumentService(repo, blobs, &mockDownloads{}, nil)

	_, err := svc.Submit(context.Background(), userPrincipal(), validUpload(), "notes.pdf", 10, "application/pdf", strings.NewReader("0123456789"))
	require.Error(t, err)
	assert.Len(t, blobs.deleted, 1)
}

func TestSubmitLogsFailedBlobCleanup(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.createErr = sql.ErrConnDone
	blobs := newMockBlobStore()
	blobs.deleteErr = errors.New("disk gone")

	core, logs := observer.New(zap.WarnLevel)
	signer := storage.NewSignedURLSigner("test-secret", 30*time.Minute)
	files := upload.NewValidator(1<<20, []string{"pdf", "docx"})
	svc := NewDocumentService(repo, &mockSubjects{}, &mockDownloads{}, nil, blobs, signer, nil, files, nil, nil, zap.New(core), DocumentConfig{})

	_, err := svc.Submit(context.Background(), userPrincipal(), validUpload(), "notes.pdf", 10, "application/pdf", strings.NewReader("0123456789"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, blobs.deleteErr)

	require.Len(t, blobs.deleted, 1)
	entries := logs.FilterMessage("failed to delete orphaned blob").All()
	require.Len(t, entries, 1)
}

func TestSubmitRejectsOversizedStream(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	svc := newDocumentService(repo, blobs, &mockDownloads{}, nil)

	big := strings.NewReader(strings.Repeat("a", (1<<20)+10))
	_, err := svc.Submit(context.Background(), userPrincipal(), validUpload(), "big.pdf", -1, "application/pdf", big)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileTooLarge.Code, appErrors.FromError(err).Code)
	assert.Len(t, blobs.deleted, 1)
}

func TestListForcesApprovedForUsers(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", Status: models.DocumentApproved}
	repo.docs["d2"] = &models.Document{ID: "d2", Status: models.DocumentPending}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	docs, total, err := svc.List(context.Background(), userPrincipal(), models.DocumentFilter{Status: models.DocumentPending})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, repo.listStatus)
	assert.Equal(t, 1, total)
	assert.Len(t, docs, 1)
}

func TestGetHidesPendingFromUsers(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d2"] = &models.Document{ID: "d2", Status: models.DocumentPending}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	_, err := svc.Get(context.Background(), userPrincipal(), "d2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	doc, err := svc.Get(context.Background(), adminPrincipal(), "d2")
	require.NoError(t, err)
	assert.Equal(t, "d2", doc.ID)
}

func TestApproveTransitionsAndAudits(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", Status: models.DocumentPending}
	activity := &mockActivity{}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, activity)

	doc, err := svc.Approve(context.Background(), adminPrincipal(), "d1")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, doc.Status)
	assert.Contains(t, activity.actions, models.ActivityDocumentApprove)
}

func TestRejectMissingDocument(t *testing.T) {
	svc := newDocumentService(newMockDocumentRepo(), newMockBlobStore(), &mockDownloads{}, nil)

	_, err := svc.Reject(context.Background(), adminPrincipal(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminUpdateRejectsInvalidStatus(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", Status: models.DocumentPending}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	bad := "archived"
	_, err := svc.AdminUpdate(context.Background(), adminPrincipal(), "d1", dto.UpdateDocumentRequest{Status: &bad})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminUpdateAppliesPartialEdit(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", Title: "Old Title", Status: models.DocumentPending}
	activity := &mockActivity{}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, activity)

	title := "New Better Title"
	status := "approved"
	doc, err := svc.AdminUpdate(context.Background(), adminPrincipal(), "d1", dto.UpdateDocumentRequest{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "New Better Title", doc.Title)
	assert.Equal(t, models.DocumentApproved, doc.Status)
	assert.Contains(t, activity.actions, models.ActivityDocumentUpdate)
}

func TestAdminDeleteRemovesBlobAndRow(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", FilePath: "notes-abc.pdf", Status: models.DocumentApproved}
	blobs := newMockBlobStore()
	activity := &mockActivity{}
	svc := newDocumentService(repo, blobs, &mockDownloads{}, activity)

	err := svc.AdminDelete(context.Background(), adminPrincipal(), "d1")
	require.NoError(t, err)
	assert.Contains(t, blobs.deleted, "notes-abc.pdf")
	assert.Contains(t, repo.deleted, "d1")
	assert.Contains(t, activity.actions, models.ActivityDocumentDelete)
}

func TestRecordDownloadIssuesSignedURL(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", FilePath: "notes-abc.pdf", Status: models.DocumentApproved}
	downloads := &mockDownloads{}
	svc := newDocumentService(repo, newMockBlobStore(), downloads, nil)

	resp, err := svc.RecordDownload(context.Background(), userPrincipal(), "d1", "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, "d1", resp.DocumentID)
	assert.Contains(t, resp.URL, "/api/documents/d1/file?token=")
	assert.Greater(t, resp.ExpiresIn, int64(0))
	require.Len(t, downloads.created, 1)
	assert.Equal(t, "user-1", downloads.created[0].UserID)
	assert.Contains(t, repo.incremented, "d1")
}

func TestRecordDownloadRejectsPendingForUsers(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", Status: models.DocumentPending}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	_, err := svc.RecordDownload(context.Background(), userPrincipal(), "d1", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestServeFileRoundTrip(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", FilePath: "notes-abc.pdf", Status: models.DocumentApproved}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	resp, err := svc.RecordDownload(context.Background(), userPrincipal(), "d1", "", "")
	require.NoError(t, err)
	token := resp.URL[strings.Index(resp.URL, "token=")+len("token="):]

	doc, rc, size, err := svc.ServeFile(context.Background(), "d1", token)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "d1", doc.ID)
	assert.Equal(t, int64(len("file-bytes")), size)
}

func TestServeFileRejectsTamperedToken(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.docs["d1"] = &models.Document{ID: "d1", FilePath: "notes-abc.pdf", Status: models.DocumentApproved}
	svc := newDocumentService(repo, newMockBlobStore(), &mockDownloads{}, nil)

	_, _, _, err := svc.ServeFile(context.Background(), "d1", "bogus.token.value.sig")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDownload.Code, appErrors.FromError(err).Code)
}
