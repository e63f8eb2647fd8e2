package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"userAuthService/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// Save inserts the user and its role links in one transaction and returns the
// user with its generated ID. A UNIQUE violation on username or email is
// reported as a *DuplicateError.
func (r *UserRepository) Save(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if len(u.Roles) == 0 {
		return nil, errors.New("user has no roles")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash)
	if err != nil {
		_ = tx.Rollback()
		return nil, asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	for _, role := range u.Roles {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`, id, role.ID); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	var createdAt time.Time
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM users WHERE id = ?`, id).Scan(&createdAt); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, asDuplicate(err)
	}
	u.ID = id
	u.CreatedAt = createdAt
	return u, nil
}

// FindByUsername returns the user with its roles, or nil when no row matches.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	roles, err := r.rolesFor(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (r *UserRepository) rolesFor(ctx context.Context, userID int64) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT r.id, r.name
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = ?
ORDER BY r.id`, userID)
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
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAllByUsername removes every user row with the given username, and
// their role links, in a single transaction. It returns the number of users
// removed; zero is not an error.
func (r *UserRepository) DeleteAllByUsername(ctx context.Context, username string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id IN (SELECT id FROM users WHERE username = ?)`, username); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
