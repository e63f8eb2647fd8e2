package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"userAuthService/internal/auth"
	"userAuthService/models"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) Save(ctx context.Context, u *models.User) (*models.User, error) {
	args := m.Called(ctx, u)
	saved, _ := args.Get(0).(*models.User)
	return saved, args.Error(1)
}

func (m *MockUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUsers) DeleteAllByUsername(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) FindByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	args := m.Called(ctx, name)
	r, _ := args.Get(0).(*models.Role)
	return r, args.Error(1)
}

func (m *MockRoles) List(ctx context.Context) ([]models.Role, error) {
	args := m.Called(ctx)
	rs, _ := args.Get(0).([]models.Role)
	return rs, args.Error(1)
}

type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(hash, password string) error {
	return m.Called(hash, password).Error(0)
}

func (m *MockHasher) Burn(password string) {
	m.Called(password)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Issue(id auth.Identity) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}
