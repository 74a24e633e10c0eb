package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
)

type ServiceInterface interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Refresh(ctx context.Context, req model.RefreshRequest) (*model.TokenPair, error)

	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, req model.ListUsersRequest) ([]model.User, int, error)
	AssignRole(ctx context.Context, userID uuid.UUID, req model.AssignRoleRequest) (*model.User, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, data []byte) (string, error)

	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error)
	CreateRole(ctx context.Context, req model.UpsertRoleRequest) (*model.Role, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req model.UpsertRoleRequest) (*model.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	ListPermissions(ctx context.Context) ([]model.Permission, error)
}
