package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"userAuthService/models"
)

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByName returns the catalog entry, or nil when the name is not seeded or
// not one of the known role names.
func (r *RoleRepository) FindByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	if !name.IsValid() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var role models.Role
	var got string
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = ?`, string(name)).Scan(&role.ID, &got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	role.Name = models.RoleName(got)
	return &role, nil
}

// List returns the catalog ordered by id. A row holding an unknown role name
// is an error.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Role
	for rows.Next() {
		var role models.Role
		var name string
		if err := rows.Scan(&role.ID, &name); err != nil {
			return nil, err
		}
		role.Name = models.RoleName(name)
		if !role.Name.IsValid() {
			return nil, fmt.Errorf("unknown role %q in catalog", name)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
