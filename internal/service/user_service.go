package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sukunslide/docshare-api/internal/dto"
	"github.com/sukunslide/docshare-api/internal/models"
	"github.com/sukunslide/docshare-api/internal/repository"
	appErrors "github.com/sukunslide/docshare-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type downloadReader interface {
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.DownloadWithDocument, int, error)
}

type favoriteRepository interface {
	Create(ctx context.Context, f *models.Favorite) error
	Delete(ctx context.Context, userID, documentID string) (int64, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.FavoriteWithDocument, int, error)
}

type approvedDocumentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

// UserService covers profile management, admin user administration,
// download history and favorites.
type UserService struct {
	repo      userRepository
	downloads downloadReader
	favorites favoriteRepository
	documents approvedDocumentLookup
	validator *validator.Validate
	activity  activityRecorder
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, downloads downloadReader, favorites favoriteRepository, documents approvedDocumentLookup, validate *validator.Validate, activity activityRecorder, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:      repo,
		downloads: downloads,
		favorites: favorites,
		documents: documents,
		validator: validate,
		activity:  activity,
		logger:    logger,
	}
}

// Profile returns the public projection of the given user.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := user.PublicInfo()
	return &info, nil
}

// UpdateProfile applies a partial self-service edit.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.University != nil {
		user.University = strings.TrimSpace(*req.University)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	info := user.PublicInfo()
	return &info, nil
}

// ListUsers returns users for the admin panel.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.UserInfo, int, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].PublicInfo())
	}
	return infos, total, nil
}

// SetUserStatus activates or deactivates an account.
func (s *UserService) SetUserStatus(ctx context.Context, principal *models.User, userID string, req dto.UpdateUserStatusRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	status := models.UserStatus(req.Status)
	if err := s.repo.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user status")
	}

	if s.activity != nil && principal != nil {
		id := principal.ID
		s.activity.Record(&id, models.ActivityUserStatus, map[string]string{"user_id": userID, "status": req.Status})
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := user.PublicInfo()
	return &info, nil
}

// DownloadHistory lists the user's downloads, newest first.
func (s *UserService) DownloadHistory(ctx context.Context, userID string, page, pageSize int) ([]models.DownloadWithDocument, int, error) {
	rows, total, err := s.downloads.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list downloads")
	}
	return rows, total, nil
}

// AddFavorite marks an approved document as a favorite. Adding the same
// document twice is a conflict.
func (s *UserService) AddFavorite(ctx context.Context, userID, documentID string) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch document")
	}
	if doc.Status != models.DocumentApproved {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}

	err = s.favorites.Create(ctx, &models.Favorite{UserID: userID, DocumentID: documentID})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateFavorite) {
			return appErrors.Clone(appErrors.ErrConflict, "document already in favorites")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add favorite")
	}
	return nil
}

// RemoveFavorite removes the pair. Removing an absent favorite succeeds.
func (s *UserService) RemoveFavorite(ctx context.Context, userID, documentID string) error {
	if _, err := s.favorites.Delete(ctx, userID, documentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove favorite")
	}
	return nil
}

// ListFavorites returns the user's favorites with document metadata.
func (s *UserService) ListFavorites(ctx context.Context, userID string, page, pageSize int) ([]models.FavoriteWithDocument, int, error) {
	rows, total, err := s.favorites.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list favorites")
	}
	return rows, total, nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}
