package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/user/model"
	"library-backend/pkg/database"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// userColumns surfaces the active role next to the user row. Role
// membership is many-to-many but only one assignment exists at a
// time; AssignRole replaces rather than appends.
const userColumns = `
	u.id, u.email, u.full_name, u.avatar_url, u.password_hash, u.created_at,
	COALESCE((
		SELECT r.name FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = u.id
		LIMIT 1
	), '')
`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &u.PasswordHash,
		&u.CreatedAt, &u.Role,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts the user and its initial role assignment
// together; a half-created user with no role would be invisible to
// role checks.
func (r *postgresRepository) CreateUser(ctx context.Context, user *model.User, roleName string) error {
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, full_name, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, user.ID, user.Email, user.FullName, user.PasswordHash, user.CreatedAt)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
		`, user.ID, roleName)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return model.ErrRoleNotFound
		}

		return nil
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.Role = roleName
	return nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) ListUsers(ctx context.Context, filter *UserFilter) ([]model.User, int, error) {
	where := "TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		where = fmt.Sprintf("(u.full_name ILIKE $%d OR u.email ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users u WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		WHERE %s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d
	`, userColumns, where, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, filter.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return users, total, nil
}

func (r *postgresRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $2 WHERE id = $1`, id, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to update avatar url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// AssignRole replaces the user's role assignment.
func (r *postgresRepository) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return model.ErrUserNotFound
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear roles: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE id = $2
		`, userID, roleID)
		if err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrRoleNotFound
		}

		return nil
	})
}

func (r *postgresRepository) GetRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	role.Permissions, err = r.rolePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *postgresRepository) rolePermissions(ctx context.Context, roleID uuid.UUID) ([]model.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *postgresRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *postgresRepository) CreateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name); err != nil {
			return fmt.Errorf("failed to insert role: %w", err)
		}
		return setRolePermissions(ctx, tx, role.ID, permissionIDs)
	})
}

func (r *postgresRepository) UpdateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET name = $2 WHERE id = $1`, role.ID, role.Name)
		if err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrRoleNotFound
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1`, role.ID); err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}
		return setRolePermissions(ctx, tx, role.ID, permissionIDs)
	})
}

func setRolePermissions(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
			roleID, pid); err != nil {
			return fmt.Errorf("failed to link permission: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	var inUse bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_roles WHERE role_id = $1)`, id).Scan(&inUse); err != nil {
		return fmt.Errorf("failed to check role usage: %w", err)
	}
	if inUse {
		return model.ErrRoleInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRoleNotFound
	}
	return nil
}

func (r *postgresRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
