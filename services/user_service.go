package services

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/repository"
)

// UserService serves profile, order-history and sales-history reads, and
// drives seller onboarding against the payment gateway.
type UserService struct {
	users   repository.UserStore
	gateway PaymentGateway
	log     *zap.Logger
}

func NewUserService(users repository.UserStore, gateway PaymentGateway, log *zap.Logger) *UserService {
	return &UserService{
		users:   users,
		gateway: gateway,
		log:     log,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "User not found", nil)
	}
	return user, err
}

// OrderHistory returns the buyer's orders, most recent first. Only the owner
// or an admin may read it.
func (s *UserService) OrderHistory(ctx context.Context, actorID, actorRole, userID string) ([]models.Order, error) {
	if actorID != userID && actorRole != models.RoleAdmin {
		return nil, apperrors.New(http.StatusForbidden, "You are not allowed to view this order history", nil)
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OrderHistory == nil {
		return []models.Order{}, nil
	}
	return user.OrderHistory, nil
}

// SalesHistory returns the seller-side groups, most recent first.
func (s *UserService) SalesHistory(ctx context.Context, actorID, actorRole, userID string) ([]models.SellerOrderGroup, error) {
	if actorID != userID && actorRole != models.RoleAdmin {
		return nil, apperrors.New(http.StatusForbidden, "You are not allowed to view this sales history", nil)
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ProductsSold == nil {
		return []models.SellerOrderGroup{}, nil
	}
	return user.ProductsSold, nil
}

// MakeSeller starts payout onboarding: an express account is created on
// first call and an onboarding link returned. The user only becomes a seller
// once AccountStatus confirms charges are enabled.
func (s *UserService) MakeSeller(ctx context.Context, userID, redirectURL string) (string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsSeller {
		return "", apperrors.New(http.StatusBadRequest, "User is already a seller", nil)
	}

	if user.StripeAccountID == "" {
		accountID, err := s.gateway.CreateExpressAccount(ctx)
		if err != nil {
			return "", apperrors.New(http.StatusBadGateway, "Failed to create payout account", err)
		}
		if err := s.users.UpdateFields(ctx, userID, bson.M{"stripe_account_id": accountID}); err != nil {
			return "", err
		}
		user.StripeAccountID = accountID
	}

	link, err := s.gateway.CreateAccountLink(ctx, user.StripeAccountID, redirectURL)
	if err != nil {
		return "", apperrors.New(http.StatusBadGateway, "Failed to create onboarding link", err)
	}
	return link, nil
}

// AccountStatus flips the seller flag once the payout account can receive
// charges. Forbidden until onboarding completed.
func (s *UserService) AccountStatus(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsSeller {
		return nil, apperrors.New(http.StatusBadRequest, "User is already a seller", nil)
	}
	if user.StripeAccountID == "" {
		return nil, apperrors.New(http.StatusBadRequest, "Onboarding has not been started", nil)
	}

	enabled, err := s.gateway.AccountChargesEnabled(ctx, user.StripeAccountID)
	if err != nil {
		return nil, apperrors.New(http.StatusBadGateway, "Failed to check account status", err)
	}
	if !enabled {
		return nil, apperrors.New(http.StatusForbidden, "Onboarding not completed", nil)
	}

	if err := s.users.UpdateFields(ctx, userID, bson.M{"is_seller": true}); err != nil {
		return nil, err
	}
	user.IsSeller = true

	s.log.Info("user onboarded as seller", zap.String("user_id", userID))
	return user, nil
}
