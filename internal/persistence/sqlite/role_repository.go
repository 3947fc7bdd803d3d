package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/volunteer-bot/internal/persistence"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

const roleColumns = `id, name, emoji, is_default`

// RoleRepository implements persistence.RoleRepository using SQLite
type RoleRepository struct {
	storage *Storage
}

var _ persistence.RoleRepository = (*RoleRepository)(nil)

// NewRoleRepository creates a role repository backed by s.
func NewRoleRepository(s *Storage) *RoleRepository {
	return &RoleRepository{storage: s}
}

// CreateRole inserts a role and returns its generated id.
func (r *RoleRepository) CreateRole(ctx context.Context, name, emoji string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, persistence.ErrConstraintViolation
	}

	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (int64, error) {
		var id int64
		err := conn.QueryRowContext(ctx,
			`INSERT INTO Role (name, emoji) VALUES (?, ?) RETURNING id`, name, emoji,
		).Scan(&id)
		if err != nil {
			return 0, r.storage.mapper.MapError(err)
		}
		return id, nil
	})
}

// GetRole retrieves a role by id
func (r *RoleRepository) GetRole(ctx context.Context, id int64) (persistence.Role, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (persistence.Role, error) {
		var role persistence.Role
		err := conn.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM Role WHERE id = ?`, id).
			Scan(&role.ID, &role.Name, &role.Emoji, &role.IsDefault)
		if err != nil {
			return persistence.Role{}, r.storage.mapper.MapError(err)
		}
		return role, nil
	})
}

// ListRoles returns every role ordered by id
func (r *RoleRepository) ListRoles(ctx context.Context) ([]persistence.Role, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) ([]persistence.Role, error) {
		rows, err := conn.QueryContext(ctx, `SELECT `+roleColumns+` FROM Role ORDER BY id`)
		if err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		defer rows.Close()

		var roles []persistence.Role
		for rows.Next() {
			var role persistence.Role
			if err := rows.Scan(&role.ID, &role.Name, &role.Emoji, &role.IsDefault); err != nil {
				return nil, r.storage.mapper.MapError(err)
			}
			roles = append(roles, role)
		}
		if err := rows.Err(); err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		return roles, nil
	})
}

// UpdateRole overwrites an existing role. At most one role is the default:
// marking a role as default clears the flag on every other role.
func (r *RoleRepository) UpdateRole(ctx context.Context, role persistence.Role) error {
	role.Name = strings.TrimSpace(role.Name)
	if role.ID <= 0 || role.Name == "" {
		return persistence.ErrConstraintViolation
	}

	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx,
			`UPDATE Role SET name = ?, emoji = ?, is_default = ? WHERE id = ?`,
			role.Name, role.Emoji, role.IsDefault, role.ID,
		)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		if err := requireAffected(result.RowsAffected()); err != nil {
			return err
		}

		if role.IsDefault {
			if _, err := conn.ExecContext(ctx, `UPDATE Role SET is_default = 0 WHERE id <> ?`, role.ID); err != nil {
				return r.storage.mapper.MapError(err)
			}
		}
		return nil
	})
}

// DeleteRole removes a role by id
func (r *RoleRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx, `DELETE FROM Role WHERE id = ?`, id)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		return requireAffected(result.RowsAffected())
	})
}

func requireAffected(rowsAffected int64, err error) error {
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
