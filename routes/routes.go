package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstall/marketplace/controllers"
	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/models"
)

// Register wires every endpoint onto the engine. All /api/v1 routes sit
// behind authentication; product reads are the exception.
func Register(
	r *gin.Engine,
	jwtSecret string,
	cart *controllers.CartController,
	checkout *controllers.CheckoutController,
	products *controllers.ProductController,
	users *controllers.UserController,
) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public product reads
	api.GET("/products", products.ListProducts)
	api.GET("/products/:id", products.GetProduct)

	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(jwtSecret))
	{
		auth.GET("/cart/:userid", cart.GetCart)
		auth.POST("/cart/:userid/:productid", cart.AddToCart)
		auth.PUT("/cart/:userid/:productid", cart.UpdateCart)
		auth.DELETE("/cart/:userid/:productid", cart.DeleteFromCart)
		auth.GET("/validate-cart", cart.ValidateCart)

		auth.POST("/checkout/:userid/session", checkout.CreateSession)
		auth.POST("/checkout/:userid", checkout.HandlePurchase)
		auth.GET("/payments/:orderid", middleware.RequireRoles(models.RoleAdmin), checkout.GetPayment)

		auth.POST("/products", products.CreateProduct)
		auth.PUT("/products/:id", products.UpdateProduct)
		auth.DELETE("/products/:id", products.DeleteProduct)
		auth.POST("/products/presign-upload", products.PresignUpload)

		auth.GET("/users/me", users.Me)
		auth.GET("/users/:id/orders", users.OrderHistory)
		auth.GET("/users/:id/sales", users.SalesHistory)

		auth.POST("/make-seller", users.MakeSeller)
		auth.POST("/get-account-status", users.AccountStatus)
	}
}
