package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/metadata"

	"userAuthService/internal/db"
)

// OpenInMemoryDB opens a migrated in-memory SQLite database private to the
// calling test and closes it on cleanup.
func OpenInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	// Shared cache so every pooled connection sees the same database.
	d, err := db.Open(context.Background(), "file:"+name+"?mode=memory&cache=shared", zerolog.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a token signed with secret carrying the claims the
// service issues: subject and roles.
func GenerateJWTHS256(t *testing.T, secret, username string, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   username,
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context with incoming gRPC metadata carrying the token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
