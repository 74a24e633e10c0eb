package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/repository"
	"library-backend/internal/domains/user/service"
	"library-backend/pkg/jwt"
)

type mockRepo struct {
	createUserFn   func(ctx context.Context, user *model.User, roleName string) error
	getByEmailFn   func(ctx context.Context, email string) (*model.User, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*model.User, error)
	assignRoleFn   func(ctx context.Context, userID, roleID uuid.UUID) error
	listUsersFn    func(ctx context.Context, filter *repository.UserFilter) ([]model.User, int, error)
	deleteRoleFn   func(ctx context.Context, id uuid.UUID) error
	updateAvatarFn func(ctx context.Context, id uuid.UUID, avatarURL string) error
}

func (m *mockRepo) CreateUser(ctx context.Context, user *model.User, roleName string) error {
	return m.createUserFn(ctx, user, roleName)
}
func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.getByEmailFn(ctx, email)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockRepo) ListUsers(ctx context.Context, filter *repository.UserFilter) ([]model.User, int, error) {
	return m.listUsersFn(ctx, filter)
}
func (m *mockRepo) UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return m.updateAvatarFn(ctx, id, avatarURL)
}
func (m *mockRepo) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	return m.assignRoleFn(ctx, userID, roleID)
}
func (m *mockRepo) GetRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	return &model.Role{ID: id, Name: "member"}, nil
}
func (m *mockRepo) ListRoles(ctx context.Context) ([]model.Role, error) { return nil, nil }
func (m *mockRepo) CreateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	return nil
}
func (m *mockRepo) UpdateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	return nil
}
func (m *mockRepo) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return m.deleteRoleFn(ctx, id)
}
func (m *mockRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return nil, nil
}

func testManager() *jwt.Manager {
	return jwt.NewManager("test-secret", 15, 24)
}

func TestRegister(t *testing.T) {
	var created *model.User
	var role string
	repo := &mockRepo{
		createUserFn: func(ctx context.Context, user *model.User, roleName string) error {
			created = user
			role = roleName
			user.Role = roleName
			return nil
		},
	}
	svc := service.NewService(repo, testManager(), nil, nil)

	result, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "reader@example.com",
		FullName: "Avid Reader",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleMember, role)
	require.NotNil(t, created)
	assert.NotEqual(t, "correct horse", created.PasswordHash, "password must be hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse")))

	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, "reader@example.com", result.User.Email)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := service.NewService(&mockRepo{}, testManager(), nil, nil)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "reader@example.com",
		FullName: "Avid Reader",
		Password: "short",
	})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &model.User{
		ID:           uuid.New(),
		Email:        "reader@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleMember,
	}
	repo := &mockRepo{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	manager := testManager()
	svc := service.NewService(repo, manager, nil, nil)

	result, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims, err := manager.ValidateAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.UserID)
	assert.Equal(t, model.RoleMember, claims.Role)

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email:    "reader@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials,
		"unknown email must be indistinguishable from a bad password")
}

func TestRefresh(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "reader@example.com", Role: model.RoleAdmin}
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	manager := testManager()
	svc := service.NewService(repo, manager, nil, nil)

	refresh, err := manager.GenerateRefreshToken(user.ID.String())
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), model.RefreshRequest{RefreshToken: refresh})
	require.NoError(t, err)

	claims, err := manager.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role, "new access token carries the current role")
}

func TestRefresh_InvalidToken(t *testing.T) {
	svc := service.NewService(&mockRepo{}, testManager(), nil, nil)

	_, err := svc.Refresh(context.Background(), model.RefreshRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestAssignRole(t *testing.T) {
	userID := uuid.New()
	roleID := uuid.New()
	assigned := false
	repo := &mockRepo{
		assignRoleFn: func(ctx context.Context, uid, rid uuid.UUID) error {
			assert.Equal(t, userID, uid)
			assert.Equal(t, roleID, rid)
			assigned = true
			return nil
		},
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			return &model.User{ID: id, Role: "member"}, nil
		},
	}
	svc := service.NewService(repo, testManager(), nil, nil)

	_, err := svc.AssignRole(context.Background(), userID, model.AssignRoleRequest{RoleID: roleID})
	require.NoError(t, err)
	assert.True(t, assigned)
}
