package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserStore, *fakeGateway) {
	t.Helper()
	users := newFakeUserStore(
		&models.User{ID: "user-1", Name: "Ada", Role: models.RoleUser},
		&models.User{ID: "seller-1", Name: "Sal", IsSeller: true, StripeAccountID: "acct_s"},
	)
	gateway := newFakeGateway()
	return NewUserService(users, gateway, zap.NewNop()), users, gateway
}

func TestOrderHistoryOwnerOnly(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()
	users.users["user-1"].OrderHistory = []models.Order{{OrderID: "o1"}}

	orders, err := svc.OrderHistory(ctx, "user-1", models.RoleUser, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = svc.OrderHistory(ctx, "admin-1", models.RoleAdmin, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = svc.OrderHistory(ctx, "seller-1", models.RoleUser, "user-1")
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.Code)
}

func TestOrderHistoryEmptyIsNotNil(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	orders, err := svc.OrderHistory(context.Background(), "user-1", models.RoleUser, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestMakeSellerCreatesAccountOnce(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	link, err := svc.MakeSeller(ctx, "user-1", "https://shop/onboarded")
	require.NoError(t, err)
	assert.NotEmpty(t, link)
	assert.Equal(t, "acct_test_1", users.users["user-1"].StripeAccountID)
	assert.False(t, users.users["user-1"].IsSeller, "seller flag waits for account status")

	// A second call reuses the stored account instead of creating another.
	link2, err := svc.MakeSeller(ctx, "user-1", "https://shop/onboarded")
	require.NoError(t, err)
	assert.Equal(t, link, link2)
}

func TestMakeSellerRejectsExistingSeller(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.MakeSeller(context.Background(), "seller-1", "")
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Equal(t, "User is already a seller", appErr.Message)
}

func TestAccountStatusPromotesToSeller(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.MakeSeller(ctx, "user-1", "")
	require.NoError(t, err)

	user, err := svc.AccountStatus(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, user.IsSeller)
	assert.True(t, users.users["user-1"].IsSeller)
}

func TestAccountStatusBeforeOnboarding(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.AccountStatus(context.Background(), "user-1")
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Equal(t, "Onboarding has not been started", appErr.Message)
}
