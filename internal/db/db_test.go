package db

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrationsAndSeedsRoles(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, "file:dbseed?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	var n int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n))
	assert.Equal(t, 3, n)

	var applied int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	// Reopening against the same shared database is a no-op.
	d2, err := Open(ctx, "file:dbseed?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d2.Close() })
	require.NoError(t, d2.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestOpen_EnforcesUniqueUsername(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, "file:dbunique?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('a', 'a@x.io', 'h')`)
	require.NoError(t, err)
	_, err = d.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('a', 'b@x.io', 'h')`)
	assert.Error(t, err)
}

func TestRollbackLast(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, "file:dbrollback?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, RollbackLast(ctx, d, zerolog.Nop()))
	var n int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n))
	assert.Equal(t, 0, n)

	require.NoError(t, RollbackLast(ctx, d, zerolog.Nop()))
	err = d.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	assert.Error(t, err, "users table should be gone")

	// Nothing left to roll back.
	require.NoError(t, RollbackLast(ctx, d, zerolog.Nop()))
}

func TestRollbackLast_SeedWithAssignedRoles(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, "file:dbrollbackassigned?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('a', 'a@x.io', 'h')`)
	require.NoError(t, err)
	_, err = d.ExecContext(ctx, `INSERT INTO user_roles (user_id, role_id) SELECT u.id, r.id FROM users u, roles r WHERE u.username = 'a'`)
	require.NoError(t, err)

	require.NoError(t, RollbackLast(ctx, d, zerolog.Nop()))

	var roles, links, users int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&roles))
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_roles`).Scan(&links))
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Zero(t, roles)
	assert.Zero(t, links)
	assert.Equal(t, 1, users)

	// Re-applying the seed works after the rollback.
	d2, err := Open(ctx, "file:dbrollbackassigned?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d2.Close() })
	require.NoError(t, d2.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&roles))
	assert.Equal(t, 3, roles)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "auth.db?_foreign_keys=on&_busy_timeout=5000", withPragmas("auth.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on&_busy_timeout=5000", withPragmas("file:x?mode=memory"))
}
