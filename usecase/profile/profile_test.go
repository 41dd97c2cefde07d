package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/internal/testutil"
)

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := testutil.NewStore().Users()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "u-1", Email: "agent@example.com", Role: domain.RoleUser}))
	uc := New(users, nil)
	principal := domain.Principal{ID: "u-1", Email: "agent@example.com", Role: domain.RoleUser}

	user, err := uc.GetProfile(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", user.DisplayName())

	_, err = uc.UpdateProfile(ctx, principal, " x ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	user, err = uc.UpdateProfile(ctx, principal, "  Priya Sharma ")
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", user.Name)
	assert.Equal(t, domain.RoleUser, user.Role)

	stored, err := users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", stored.Name)

	_, err = uc.GetProfile(ctx, domain.Principal{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func TestUpdateProfile_StoreFailure(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserRepository)
	unavailable := domain.WrapError(domain.ErrCodeUnavailable, "database unavailable", errors.New("dial tcp"))
	users.On("GetByID", ctx, "u-1").Return(&domain.User{ID: "u-1", Email: "agent@example.com"}, nil)
	users.On("Upsert", ctx, mock.MatchedBy(func(u *domain.User) bool { return u.Name == "Priya Sharma" })).Return(unavailable)

	_, err := New(users, nil).UpdateProfile(ctx, domain.Principal{ID: "u-1"}, "Priya Sharma")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
	users.AssertExpectations(t)
}
