package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that validates a
// Bearer token from incoming metadata and injects the Identity into the
// context. Methods listed in allowUnauthenticated bypass authentication.
func NewUnaryAuthInterceptor(issuer *TokenIssuer, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		id, err := ParseFromMD(ctx, issuer)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(WithIdentity(ctx, id), req)
	}
}

// ParseFromMD extracts and validates a Bearer token from gRPC metadata.
func ParseFromMD(ctx context.Context, issuer *TokenIssuer) (Identity, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Identity{}, errors.New("missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return Identity{}, errors.New("missing authorization")
	}
	tokenStr, err := BearerToken(vals[0])
	if err != nil {
		return Identity{}, err
	}
	return issuer.Parse(tokenStr)
}

// BearerToken returns the token part of an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("invalid authorization header")
	}
	return tok, nil
}

// RequireIdentity ensures an identity is present in context.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, status.Error(codes.Unauthenticated, "missing identity")
	}
	return id, nil
}
