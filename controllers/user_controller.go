package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/services"
)

type UserController struct {
	Users       *services.UserService
	RedirectURL string
}

func NewUserController(users *services.UserService, redirectURL string) *UserController {
	return &UserController{Users: users, RedirectURL: redirectURL}
}

// Me returns the authenticated user's profile
func (uc *UserController) Me(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := uc.Users.GetUser(c, principal.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// OrderHistory returns a buyer's orders, most recent first
func (uc *UserController) OrderHistory(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	orders, err := uc.Users.OrderHistory(c, principal.ID, principal.Role, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

// SalesHistory returns a seller's per-checkout groups, most recent first
func (uc *UserController) SalesHistory(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	sales, err := uc.Users.SalesHistory(c, principal.ID, principal.Role, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sales})
}

// MakeSeller starts payout onboarding and returns the onboarding link
func (uc *UserController) MakeSeller(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	link, err := uc.Users.MakeSeller(c, principal.ID, uc.RedirectURL)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": link})
}

// AccountStatus checks onboarding progress and flips the seller flag when
// the payout account is ready
func (uc *UserController) AccountStatus(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := uc.Users.AccountStatus(c, principal.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}
