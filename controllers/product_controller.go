package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/services"
)

type ProductController struct {
	Products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{Products: products}
}

// ListProducts returns a filtered, paginated product listing
func (pc *ProductController) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	minPrice, _ := strconv.ParseInt(c.DefaultQuery("min_price", "0"), 10, 64)
	maxPrice, _ := strconv.ParseInt(c.DefaultQuery("max_price", "0"), 10, 64)

	products, total, err := pc.Products.ListProducts(c, services.ListProductsParams{
		Page:     page,
		Limit:    limit,
		Search:   c.Query("search"),
		SellerID: c.Query("seller"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"total":   total,
	})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.Products.GetProduct(c, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req services.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.New(http.StatusBadRequest, err.Error(), nil))
		return
	}

	product, err := pc.Products.CreateProduct(c, principal.ID, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": product})
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var updates bson.M
	if err := c.ShouldBindJSON(&updates); err != nil {
		apperrors.Respond(c, apperrors.New(http.StatusBadRequest, "Invalid payload", nil))
		return
	}

	product, err := pc.Products.UpdateProduct(c, principal.ID, principal.Role, c.Param("id"), updates)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	if err := pc.Products.DeleteProduct(c, principal.ID, principal.Role, c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}

type presignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// PresignUpload returns a short-lived URL for uploading a product image
func (pc *ProductController) PresignUpload(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.New(http.StatusBadRequest, "filename is required", nil))
		return
	}

	key, url, headers, err := pc.Products.PresignImageUpload(c, principal.ID, req.Filename, req.ContentType)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"key":     key,
		"url":     url,
		"headers": headers,
	})
}
