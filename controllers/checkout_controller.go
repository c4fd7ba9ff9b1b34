package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/pkg/logger"
	"github.com/openstall/marketplace/services"
)

type CheckoutController struct {
	Checkout    *services.CheckoutService
	Payouts     *services.PayoutService
	FrontendURL string
}

func NewCheckoutController(checkout *services.CheckoutService, payouts *services.PayoutService, frontendURL string) *CheckoutController {
	return &CheckoutController{
		Checkout:    checkout,
		Payouts:     payouts,
		FrontendURL: frontendURL,
	}
}

type createSessionRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// CreateSession creates the payment-gateway session for the buyer's cart
func (cc *CheckoutController) CreateSession(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req createSessionRequest
	_ = c.ShouldBindJSON(&req)
	if req.SuccessURL == "" {
		req.SuccessURL = cc.FrontendURL + "/checkout/success"
	}
	if req.CancelURL == "" {
		req.CancelURL = cc.FrontendURL + "/checkout/cancelled"
	}

	info, err := cc.Checkout.CreateSession(c, principal.ID, principal.Role, c.Param("userid"), req.SuccessURL, req.CancelURL)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": info.ID,
		"url":        info.URL,
	})
}

type purchaseRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// HandlePurchase settles the cart against a paid session and then issues
// the per-seller transfers. A transfer failure is surfaced as a gateway
// error but the already-committed settlement stays committed.
func (cc *CheckoutController) HandlePurchase(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.New(http.StatusBadRequest, "session_id is required", nil))
		return
	}

	result, err := cc.Checkout.HandlePurchase(c, principal.ID, principal.Role, c.Param("userid"), req.SessionID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	if len(result.Groups) > 0 {
		logger.Info(c, "checkout settled",
			zap.String("order_id", result.OrderID),
			zap.Int64("total", result.Total),
			zap.Int("sellers", len(result.Groups)))

		if err := cc.Payouts.Distribute(c, result.OrderID, result.Groups); err != nil {
			logger.Error(c, "payout distribution failed after settlement", err,
				zap.String("order_id", result.OrderID))
			apperrors.Respond(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  result.Success,
		"message":  result.Message,
		"order_id": result.OrderID,
		"total":    result.Total,
		"items":    result.Items,
	})
}

// GetPayment returns the audit ledger row for an order. Admin only.
func (cc *CheckoutController) GetPayment(c *gin.Context) {
	payment, err := cc.Checkout.Payment(c, c.Param("orderid"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}
