package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/services"
)

type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart returns the cart and its total for a user
func (cc *CartController) GetCart(c *gin.Context) {
	userID := c.Param("userid")
	if !requireOwnerOrAdmin(c, userID) {
		return
	}

	cart, err := cc.Carts.GetCart(c, userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      cart.Items,
		"cartTotal": cart.Total(),
	})
}

// AddToCart adds a product to the cart, merging with an existing entry
func (cc *CartController) AddToCart(c *gin.Context) {
	userID := c.Param("userid")
	if !requireOwnerOrAdmin(c, userID) {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidQuantity)
		return
	}

	cart, err := cc.Carts.AddToCart(c, userID, c.Param("productid"), req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Product has been added to cart",
		"data":      cart.Items,
		"cartTotal": cart.Total(),
	})
}

// UpdateCart sets an entry's quantity absolutely
func (cc *CartController) UpdateCart(c *gin.Context) {
	userID := c.Param("userid")
	if !requireOwnerOrAdmin(c, userID) {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidQuantity)
		return
	}

	cart, err := cc.Carts.UpdateCart(c, userID, c.Param("productid"), req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Cart entry updated",
		"data":      cart.Items,
		"cartTotal": cart.Total(),
	})
}

// DeleteFromCart removes a product's entry; removal is idempotent and a
// second delete reports the same "no longer in cart" outcome.
func (cc *CartController) DeleteFromCart(c *gin.Context) {
	userID := c.Param("userid")
	if !requireOwnerOrAdmin(c, userID) {
		return
	}

	removed, cart, err := cc.Carts.RemoveFromCart(c, userID, c.Param("productid"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Product no longer in cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Item was removed from the cart",
		"data":      cart.Items,
		"cartTotal": cart.Total(),
	})
}

// ValidateCart runs the pre-checkout validation pass on the actor's own cart
func (cc *CartController) ValidateCart(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	if _, err := cc.Carts.ValidateCart(c, principal.ID); err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// requireOwnerOrAdmin writes a 403 and returns false unless the actor owns
// the addressed cart or is an admin.
func requireOwnerOrAdmin(c *gin.Context, userID string) bool {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return false
	}
	if principal.ID != userID && principal.Role != models.RoleAdmin {
		apperrors.Respond(c, apperrors.New(http.StatusForbidden, "You are not allowed to access this cart", nil))
		return false
	}
	return true
}
