package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"userAuthService/internal/auth"
	"userAuthService/models"
	"userAuthService/repository"
)

const tokenType = "Bearer"

// PasswordHasher hashes and verifies passwords. Burn performs a throwaway
// comparison used when no stored hash exists.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
	Burn(password string)
}

// TokenIssuer signs tokens for an authenticated identity.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// AuthService implements sign-up, sign-in and delete-by-username. It keeps no
// per-request state; every call is independent.
type AuthService struct {
	users  repository.UserRepositoryI
	roles  repository.RoleRepositoryI
	hasher PasswordHasher
	tokens TokenIssuer
	log    zerolog.Logger
}

// NewAuthService wires the flow to its collaborators.
func NewAuthService(users repository.UserRepositoryI, roles repository.RoleRepositoryI, hasher PasswordHasher, tokens TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		tokens: tokens,
		log:    logger.With().Str("component", "auth").Logger(),
	}
}

// SignUp registers a new user. It fails with *ConflictError for a taken
// username or email, *ValidationError for a bad payload and
// *ConfigurationError when a resolved role is missing from the catalog.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*MessageResponse, error) {
	if err := newValidationError(req.Validate()); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, &ConflictError{Field: "username", Message: msgUsernameTaken}
	}
	inUse, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if inUse {
		return nil, &ConflictError{Field: "email", Message: msgEmailInUse}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	roles, err := s.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Save(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        roles,
	})
	if err != nil {
		// The existence checks above are advisory; the UNIQUE constraints
		// settle concurrent sign-ups.
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, conflictFor(dup.Field)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Strs("roles", u.RoleNames()).Msg("user registered")
	return &MessageResponse{Message: msgRegistered}, nil
}

func conflictFor(field string) *ConflictError {
	if field == "email" {
		return &ConflictError{Field: "email", Message: msgEmailInUse}
	}
	return &ConflictError{Field: "username", Message: msgUsernameTaken}
}

func (s *AuthService) resolveRoles(ctx context.Context, labels []string) ([]models.Role, error) {
	names := ResolveRoleNames(labels)
	out := make([]models.Role, 0, len(names))
	for _, name := range names {
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			return nil, &ConfigurationError{Role: name, Err: err}
		}
		if role == nil {
			s.log.Error().Str("role", string(name)).Msg("role missing from catalog")
			return nil, &ConfigurationError{Role: name}
		}
		out = append(out, *role)
	}
	return out, nil
}

// SignIn verifies credentials and issues a token. Unknown usernames and wrong
// passwords both return ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	if err := newValidationError(req.Validate()); err != nil {
		return nil, err
	}

	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		s.hasher.Burn(req.Password)
		s.log.Debug().Str("username", req.Username).Str("reason", "unknown user").Msg("sign-in rejected")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.log.Debug().Str("username", req.Username).Str("reason", "password mismatch").Msg("sign-in rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	resp := &SignInResponse{
		Type:     tokenType,
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.RoleNames(),
	}
	token, err := s.tokens.Issue(resp.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	resp.Token = token

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user signed in")
	return resp, nil
}

// DeleteByUsername removes every user with the given username. A missing
// user is not an error, and a blank username matches nothing.
func (s *AuthService) DeleteByUsername(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		s.log.Debug().Msg("delete by username: blank username, nothing to delete")
		return nil
	}
	n, err := s.users.DeleteAllByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("username", username).Int64("deleted", n).Msg("delete by username")
	return nil
}

// CheckRoleCatalog verifies every role the sign-up policy can produce is
// seeded. It is meant to run once at startup.
func (s *AuthService) CheckRoleCatalog(ctx context.Context) error {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	have := make(map[models.RoleName]bool, len(roles))
	for _, r := range roles {
		have[r.Name] = true
	}
	for _, name := range models.AllRoleNames() {
		if !have[name] {
			return &ConfigurationError{Role: name}
		}
	}
	return nil
}
