package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	"github.com/sukunslide/docshare-api/internal/repository"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
)

type mockUserRepo struct {
	users        map[string]*models.User
	statusWrites map[string]models.UserStatus
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}, statusWrites: map[string]models.UserStatus{}}
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Status = status
	m.statusWrites[id] = status
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

type mockDownloadReader struct {
	rows []models.DownloadWithDocument
}

func (m *mockDownloadReader) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.DownloadWithDocument, int, error) {
	return m.rows, len(m.rows), nil
}

type mockFavoriteRepo struct {
	createErr error
	deleted   int64
	rows      []models.FavoriteWithDocument
	created   []*models.Favorite
}

func (m *mockFavoriteRepo) Create(ctx context.Context, f *models.Favorite) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, f)
	return nil
}

func (m *mockFavoriteRepo) Delete(ctx context.Context, userID, documentID string) (int64, error) {
	return m.deleted, nil
}

func (m *mockFavoriteRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.FavoriteWithDocument, int, error) {
	return m.rows, len(m.rows), nil
}

type mockDocLookup struct {
	doc *models.Document
	err error
}

func (m *mockDocLookup) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

func newUserService(repo *mockUserRepo, favorites *mockFavoriteRepo, docs *mockDocLookup) *UserService {
	return NewUserService(repo, &mockDownloadReader{}, favorites, docs, nil, nil, nil)
}

func TestUpdateProfileChangesNameAndPassword(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", FullName: "Old Name", PasswordHash: "old-hash", Status: models.StatusActive}
	svc := newUserService(repo, &mockFavoriteRepo{}, &mockDocLookup{})

	name := "New Name"
	password := "brand-new-pass"
	info, err := svc.UpdateProfile(context.Background(), "u1", dto.UpdateProfileRequest{FullName: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "New Name", info.FullName)
	assert.NotEqual(t, "old-hash", repo.users["u1"].PasswordHash)
}

func TestSetUserStatusMissingUser(t *testing.T) {
	svc := newUserService(newMockUserRepo(), &mockFavoriteRepo{}, &mockDocLookup{})

	_, err := svc.SetUserStatus(context.Background(), adminPrincipal(), "ghost", dto.UpdateUserStatusRequest{Status: "inactive"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSetUserStatusDeactivates(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Status: models.StatusActive}
	svc := newUserService(repo, &mockFavoriteRepo{}, &mockDocLookup{})

	info, err := svc.SetUserStatus(context.Background(), adminPrincipal(), "u1", dto.UpdateUserStatusRequest{Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, info.Status)
	assert.Equal(t, models.StatusInactive, repo.statusWrites["u1"])
}

func TestAddFavoriteRequiresApprovedDocument(t *testing.T) {
	repo := newMockUserRepo()
	svc := newUserService(repo, &mockFavoriteRepo{}, &mockDocLookup{doc: &models.Document{ID: "d1", Status: models.DocumentPending}})

	err := svc.AddFavorite(context.Background(), "u1", "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddFavoriteDuplicateIsConflict(t *testing.T) {
	favorites := &mockFavoriteRepo{createErr: repository.ErrDuplicateFavorite}
	svc := newUserService(newMockUserRepo(), favorites, &mockDocLookup{doc: &models.Document{ID: "d1", Status: models.DocumentApproved}})

	err := svc.AddFavorite(context.Background(), "u1", "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRemoveFavoriteIsIdempotent(t *testing.T) {
	favorites := &mockFavoriteRepo{deleted: 0}
	svc := newUserService(newMockUserRepo(), favorites, &mockDocLookup{})

	err := svc.RemoveFavorite(context.Background(), "u1", "d1")
	assert.NoError(t, err)
}
