package repository

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
)

type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

type RepositoryInterface interface {
	CreateUser(ctx context.Context, user *model.User, roleName string) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, filter *UserFilter) ([]model.User, int, error)
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error
	AssignRole(ctx context.Context, userID, roleID uuid.UUID) error

	GetRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	CreateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error
	UpdateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	ListPermissions(ctx context.Context) ([]model.Permission, error)
}
