package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/repository"
	"library-backend/internal/infrastructure/storage"
	"library-backend/pkg/jwt"
)

const avatarMaxDim = 256

// UserService implements ServiceInterface.
type UserService struct {
	repo           repository.RepositoryInterface
	jwtManager     *jwt.Manager
	minio          *storage.MinIOStorage
	imageProcessor *storage.ImageProcessor
}

func NewService(
	repo repository.RepositoryInterface,
	jwtManager *jwt.Manager,
	minio *storage.MinIOStorage,
	imageProcessor *storage.ImageProcessor,
) ServiceInterface {
	return &UserService{
		repo:           repo,
		jwtManager:     jwtManager,
		minio:          minio,
		imageProcessor: imageProcessor,
	}
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user, model.RoleMember); err != nil {
		return nil, err
	}

	return s.authResponse(user)
}

func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		// Indistinguishable from a bad password.
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *UserService) Refresh(ctx context.Context, req model.RefreshRequest) (*model.TokenPair, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	// Re-read the user so a role change since issuance lands in the
	// new access token.
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokenPair(user)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *UserService) authResponse(user *model.User) (*model.AuthResponse, error) {
	pair, err := s.tokenPair(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{User: user, Tokens: pair}, nil
}

func (s *UserService) tokenPair(user *model.User) (model.TokenPair, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, req model.ListUsersRequest) ([]model.User, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}

	return s.repo.ListUsers(ctx, &repository.UserFilter{
		Search: req.Search,
		Limit:  req.PerPage,
		Offset: (req.Page - 1) * req.PerPage,
	})
}

func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, req model.AssignRoleRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.AssignRole(ctx, userID, req.RoleID); err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserService) UploadAvatar(ctx context.Context, id uuid.UUID, data []byte) (string, error) {
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return "", err
	}

	if err := s.imageProcessor.ValidateImage(data); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}

	resized, err := s.imageProcessor.Resize(data, avatarMaxDim)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}

	key := fmt.Sprintf("avatars/%s/avatar.jpg", id)
	url, err := s.minio.Upload(ctx, key, resized, "image/jpeg")
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateAvatarURL(ctx, id, url); err != nil {
		return "", err
	}

	return url, nil
}

func (s *UserService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *UserService) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	return s.repo.GetRoleByID(ctx, id)
}

func (s *UserService) CreateRole(ctx context.Context, req model.UpsertRoleRequest) (*model.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := &model.Role{ID: uuid.New(), Name: req.Name}
	if err := s.repo.CreateRole(ctx, role, req.PermissionIDs); err != nil {
		return nil, err
	}

	return s.repo.GetRoleByID(ctx, role.ID)
}

func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, req model.UpsertRoleRequest) (*model.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := &model.Role{ID: id, Name: req.Name}
	if err := s.repo.UpdateRole(ctx, role, req.PermissionIDs); err != nil {
		return nil, err
	}

	return s.repo.GetRoleByID(ctx, id)
}

func (s *UserService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRole(ctx, id)
}

func (s *UserService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.repo.ListPermissions(ctx)
}
