package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/repository"
)

// CartService owns the per-user cart: merge/set/remove operations plus the
// pre-checkout validation pass. Cart mutations always refresh the price
// snapshot and recompute line totals; a total is never accepted from input.
type CartService struct {
	carts    repository.CartStore
	users    repository.UserStore
	products repository.ProductStore
}

func NewCartService(carts repository.CartStore, users repository.UserStore, products repository.ProductStore) *CartService {
	return &CartService{
		carts:    carts,
		users:    users,
		products: products,
	}
}

// GetCart returns the user's cart, creating an empty view if none exists.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartEntry{}}
	}
	return cart, nil
}

// AddToCart adds quantityDelta units of a product to the cart. If the
// product is already present the existing entry's quantity is incremented;
// a second entry for the same product is never created.
func (s *CartService) AddToCart(ctx context.Context, userID, productID string, quantityDelta int) (*models.Cart, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "Product not found", nil)
	}
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartEntry{}}
	}

	idx := findEntry(cart, productID)
	newQuantity := quantityDelta
	if idx >= 0 {
		newQuantity = cart.Items[idx].Quantity + quantityDelta
	}

	if err := validateQuantity(newQuantity, product); err != nil {
		return nil, err
	}

	if idx >= 0 {
		s.applySnapshot(&cart.Items[idx], product, newQuantity)
	} else {
		entry := models.CartEntry{ProductID: product.ID}
		s.applySnapshot(&entry, product, newQuantity)
		cart.Items = append(cart.Items, entry)
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateCart replaces an entry's quantity absolutely.
func (s *CartService) UpdateCart(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "Product not found", nil)
	}
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := -1
	if cart != nil {
		idx = findEntry(cart, productID)
	}
	if idx < 0 {
		return nil, apperrors.New(http.StatusBadRequest, "Product is not in the cart", nil)
	}

	if err := validateQuantity(quantity, product); err != nil {
		return nil, err
	}

	s.applySnapshot(&cart.Items[idx], product, quantity)

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveFromCart removes a product's entry if present. Removal is
// idempotent: removing an absent product reports removed=false, no error.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) (bool, *models.Cart, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return false, nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	if cart == nil {
		return false, &models.Cart{UserID: userID, Items: []models.CartEntry{}}, nil
	}

	idx := findEntry(cart, productID)
	if idx < 0 {
		return false, cart, nil
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return false, nil, err
	}
	return true, cart, nil
}

// ValidateCart checks every entry against current product/seller state in
// cart order and stops at the FIRST violation. The cart is healed in place
// (entries removed or clamped) before the violation is reported, so callers
// must re-fetch the cart to see its post-validation state.
func (s *CartService) ValidateCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &models.Cart{UserID: userID, Items: []models.CartEntry{}}, nil
	}

	for i := 0; i < len(cart.Items); i++ {
		entry := cart.Items[i]

		sellerExists, err := s.users.Exists(ctx, entry.SellerID)
		if err != nil {
			return nil, err
		}
		if !sellerExists {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			if err := s.carts.SaveCart(ctx, cart); err != nil {
				return nil, err
			}
			return cart, apperrors.Newf(http.StatusNotFound,
				"The seller for %q no longer exists; the item was removed from your cart", entry.ProductName)
		}

		product, err := s.products.FindByID(ctx, entry.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			if err := s.carts.SaveCart(ctx, cart); err != nil {
				return nil, err
			}
			return cart, apperrors.Newf(http.StatusNotFound,
				"%q no longer exists or has been removed; the item was removed from your cart", entry.ProductName)
		}
		if err != nil {
			return nil, err
		}

		if entry.Quantity > product.Quantity {
			if product.Quantity == 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = product.Quantity
				cart.Items[i].Recompute()
			}
			if err := s.carts.SaveCart(ctx, cart); err != nil {
				return nil, err
			}
			return cart, apperrors.Newf(http.StatusBadRequest,
				"Requested quantity for %q (%d) exceeds the available stock of %d",
				entry.ProductName, entry.Quantity, product.Quantity)
		}
	}

	return cart, nil
}

func (s *CartService) requireUser(ctx context.Context, userID string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.New(http.StatusNotFound, "User not found", nil)
	}
	return nil
}

// applySnapshot refreshes the entry from the product at write time: name,
// seller and unit price are re-snapshotted and the line total recomputed.
func (s *CartService) applySnapshot(entry *models.CartEntry, product *models.Product, quantity int) {
	entry.ProductName = product.Name
	entry.UnitPrice = product.Price
	entry.SellerID = product.SellerID
	entry.Quantity = quantity
	entry.Recompute()
}

func validateQuantity(quantity int, product *models.Product) error {
	if quantity < 1 {
		return apperrors.ErrInvalidQuantity
	}
	if quantity > product.Quantity {
		return apperrors.Newf(http.StatusBadRequest,
			"You cannot add more than the current stock (%d)", product.Quantity)
	}
	return nil
}

func findEntry(cart *models.Cart, productID string) int {
	for i, item := range cart.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
