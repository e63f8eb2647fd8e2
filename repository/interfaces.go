package repository

import (
	"context"

	"userAuthService/models"
)

// UserRepositoryI is the credential store consumed by the auth flow.
type UserRepositoryI interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	DeleteAllByUsername(ctx context.Context, username string) (int64, error)
}

// RoleRepositoryI is the read-only role catalog.
type RoleRepositoryI interface {
	FindByName(ctx context.Context, name models.RoleName) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
}

var (
	_ UserRepositoryI = (*UserRepository)(nil)
	_ RoleRepositoryI = (*RoleRepository)(nil)
)
