package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"userAuthService/internal/auth"
	"userAuthService/models"
	"userAuthService/repository"
)

type fixture struct {
	users  *MockUsers
	roles  *MockRoles
	hasher *MockHasher
	tokens *MockTokens
	svc    *AuthService
}

func newFixture() *fixture {
	f := &fixture{users: &MockUsers{}, roles: &MockRoles{}, hasher: &MockHasher{}, tokens: &MockTokens{}}
	f.svc = NewAuthService(f.users, f.roles, f.hasher, f.tokens, zerolog.Nop())
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.users.AssertExpectations(t)
	f.roles.AssertExpectations(t)
	f.hasher.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func validSignUp() SignUpRequest {
	return SignUpRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"}
}

func TestSignUp_UsernameTaken(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByUsername", mock.Anything, "alice").Return(true, nil)

	_, err := f.svc.SignUp(context.Background(), validSignUp())
	require.True(t, IsConflict(err))
	assert.Equal(t, msgUsernameTaken, err.Error())
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSignUp_EmailInUse(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	f.users.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(true, nil)

	_, err := f.svc.SignUp(context.Background(), validSignUp())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
	assert.Equal(t, msgEmailInUse, conflict.Message)
	f.assertExpectations(t)
}

func TestSignUp_ValidationRunsBeforeStore(t *testing.T) {
	f := newFixture()
	cases := []SignUpRequest{
		{Username: "al", Email: "alice@example.com", Password: "secret1"},
		{Username: "alice", Email: "not-an-email", Password: "secret1"},
		{Username: "alice", Email: "alice@example.com", Password: "123"},
		{},
	}
	for _, req := range cases {
		_, err := f.svc.SignUp(context.Background(), req)
		require.True(t, IsValidation(err), "%+v -> %v", req, err)
	}
	f.users.AssertNotCalled(t, "ExistsByUsername", mock.Anything, mock.Anything)
}

func TestSignUp_ResolvesRolesAndPersistsHash(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	f.users.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
	f.hasher.On("Hash", "secret1").Return("HASHED", nil)
	f.roles.On("FindByName", mock.Anything, models.RoleAdmin).Return(&models.Role{ID: 3, Name: models.RoleAdmin}, nil)
	f.roles.On("FindByName", mock.Anything, models.RoleUser).Return(&models.Role{ID: 1, Name: models.RoleUser}, nil)
	f.users.On("Save", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.PasswordHash == "HASHED" && assert.ObjectsAreEqual([]string{"ROLE_ADMIN", "ROLE_USER"}, u.RoleNames())
	})).Return(&models.User{ID: 1, Username: "alice"}, nil)

	req := validSignUp()
	req.Roles = []string{"admin", "bogus"}
	resp, err := f.svc.SignUp(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, msgRegistered, resp.Message)
	f.assertExpectations(t)
}

func TestSignUp_MissingRoleIsConfigurationError(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	f.users.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
	f.hasher.On("Hash", "secret1").Return("HASHED", nil)
	f.roles.On("FindByName", mock.Anything, models.RoleModerator).Return(nil, nil)

	req := validSignUp()
	req.Roles = []string{"mod"}
	_, err := f.svc.SignUp(context.Background(), req)
	require.True(t, IsConfiguration(err))
	assert.False(t, IsConflict(err))
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSignUp_StoreDuplicateMapsToConflict(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	f.users.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
	f.hasher.On("Hash", "secret1").Return("HASHED", nil)
	f.roles.On("FindByName", mock.Anything, models.RoleUser).Return(&models.Role{ID: 1, Name: models.RoleUser}, nil)
	f.users.On("Save", mock.Anything, mock.Anything).Return(nil, &repository.DuplicateError{Field: "email"})

	_, err := f.svc.SignUp(context.Background(), validSignUp())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, msgEmailInUse, conflict.Message)
}

func TestSignIn_Success(t *testing.T) {
	f := newFixture()
	f.users.On("FindByUsername", mock.Anything, "alice").Return(&models.User{
		ID: 9, Username: "alice", Email: "alice@example.com", PasswordHash: "HASHED",
		Roles: []models.Role{{ID: 1, Name: models.RoleUser}},
	}, nil)
	f.hasher.On("Verify", "HASHED", "secret1").Return(nil)
	f.tokens.On("Issue", auth.Identity{ID: 9, Username: "alice", Email: "alice@example.com", Roles: []string{"ROLE_USER"}}).Return("tok", nil)

	resp, err := f.svc.SignIn(context.Background(), SignInRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, &SignInResponse{Token: "tok", Type: "Bearer", ID: 9, Username: "alice", Email: "alice@example.com", Roles: []string{"ROLE_USER"}}, resp)
	f.assertExpectations(t)
}

func TestSignIn_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture()
	f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, nil)
	f.hasher.On("Burn", "whatever").Return()
	f.users.On("FindByUsername", mock.Anything, "alice").Return(&models.User{ID: 1, Username: "alice", PasswordHash: "HASHED"}, nil)
	f.hasher.On("Verify", "HASHED", "whatever").Return(auth.ErrPasswordMismatch)

	_, errUnknown := f.svc.SignIn(context.Background(), SignInRequest{Username: "ghost", Password: "whatever"})
	_, errWrong := f.svc.SignIn(context.Background(), SignInRequest{Username: "alice", Password: "whatever"})

	require.True(t, IsAuthentication(errUnknown))
	require.True(t, IsAuthentication(errWrong))
	assert.Same(t, errUnknown, errWrong)
	assert.Equal(t, msgInvalidCredentials, errWrong.Error())
	f.tokens.AssertNotCalled(t, "Issue", mock.Anything)
	f.assertExpectations(t)
}

func TestSignIn_StoreFailureIsNotAuthentication(t *testing.T) {
	f := newFixture()
	f.users.On("FindByUsername", mock.Anything, "alice").Return(nil, errors.New("disk on fire"))

	_, err := f.svc.SignIn(context.Background(), SignInRequest{Username: "alice", Password: "x"})
	require.Error(t, err)
	assert.False(t, IsAuthentication(err))
}

func TestSignIn_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SignIn(context.Background(), SignInRequest{Username: "alice"})
	require.True(t, IsValidation(err))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
}

func TestDeleteByUsername(t *testing.T) {
	f := newFixture()
	f.users.On("DeleteAllByUsername", mock.Anything, "alice").Return(int64(1), nil)
	f.users.On("DeleteAllByUsername", mock.Anything, "ghost").Return(int64(0), nil)

	require.NoError(t, f.svc.DeleteByUsername(context.Background(), "alice"))
	require.NoError(t, f.svc.DeleteByUsername(context.Background(), "ghost"))
	// Blank usernames match nothing and never reach the store.
	assert.NoError(t, f.svc.DeleteByUsername(context.Background(), "  "))
	assert.NoError(t, f.svc.DeleteByUsername(context.Background(), ""))
	f.users.AssertNumberOfCalls(t, "DeleteAllByUsername", 2)
	f.assertExpectations(t)
}

func TestCheckRoleCatalog(t *testing.T) {
	f := newFixture()
	f.roles.On("List", mock.Anything).Return([]models.Role{{ID: 1, Name: models.RoleUser}, {ID: 2, Name: models.RoleModerator}}, nil).Once()
	err := f.svc.CheckRoleCatalog(context.Background())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, models.RoleAdmin, cfgErr.Role)

	f.roles.On("List", mock.Anything).Return([]models.Role{
		{ID: 1, Name: models.RoleUser}, {ID: 2, Name: models.RoleModerator}, {ID: 3, Name: models.RoleAdmin},
	}, nil).Once()
	assert.NoError(t, f.svc.CheckRoleCatalog(context.Background()))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"password": "too short", "email": "bad"}}
	assert.Equal(t, "validation failed: email: bad; password: too short", err.Error())
}
