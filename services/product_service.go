package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/repository"
)

// BlobStore abstracts object storage for product images.
type BlobStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, map[string]string, error)
	Delete(ctx context.Context, key string) error
}

type ListProductsParams struct {
	Page     int
	Limit    int
	Search   string
	SellerID string
	MinPrice int64
	MaxPrice int64
}

type ProductCreateRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description" binding:"required,min=10"`
	Price       int64  `json:"price" binding:"required,min=1"`
	Quantity    int    `json:"quantity" binding:"required,min=0"`
	ImageKey    string `json:"image_key"`
}

type ProductService struct {
	products repository.ProductStore
	users    repository.UserStore
	blobs    BlobStore
	log      *zap.Logger
}

func NewProductService(products repository.ProductStore, users repository.UserStore, blobs BlobStore, log *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		users:    users,
		blobs:    blobs,
		log:      log,
	}
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "Product not found", nil)
	}
	return product, err
}

// ListProducts returns one page of products matching the filters, plus the
// total count for pagination.
func (s *ProductService) ListProducts(ctx context.Context, params ListProductsParams) ([]*models.Product, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	filter := bson.M{}
	if params.Search != "" {
		filter["name"] = bson.M{"$regex": primitive.Regex{Pattern: params.Search, Options: "i"}}
	}
	if params.SellerID != "" {
		filter["seller_id"] = params.SellerID
	}
	price := bson.M{}
	if params.MinPrice > 0 {
		price["$gte"] = params.MinPrice
	}
	if params.MaxPrice > 0 {
		price["$lte"] = params.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	findOptions := options.Find().
		SetSkip(int64((params.Page - 1) * params.Limit)).
		SetLimit(int64(params.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	products, err := s.products.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// CreateProduct lists a new product for a seller. Only sellers may list.
func (s *ProductService) CreateProduct(ctx context.Context, sellerID string, req ProductCreateRequest) (*models.Product, error) {
	seller, err := s.users.FindByID(ctx, sellerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, err
	}
	if !seller.IsSeller {
		return nil, apperrors.New(http.StatusForbidden, "Only sellers can list products", nil)
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		ImageKey:    req.ImageKey,
		Price:       req.Price,
		Quantity:    req.Quantity,
		SellerID:    sellerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies field updates; only the owning seller or an admin may
// touch a product.
func (s *ProductService) UpdateProduct(ctx context.Context, actorID, actorRole, id string, updates bson.M) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != actorID && actorRole != models.RoleAdmin {
		return nil, apperrors.New(http.StatusForbidden, "You are not allowed to modify this product", nil)
	}

	allowed := bson.M{}
	for _, field := range []string{"name", "description", "price", "quantity", "image_key"} {
		if v, ok := updates[field]; ok {
			allowed[field] = v
		}
	}
	if len(allowed) == 0 {
		return nil, apperrors.New(http.StatusBadRequest, "No updatable fields provided", nil)
	}

	if _, err := s.products.Update(ctx, id, allowed); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the listing and, best-effort, its image blob.
func (s *ProductService) DeleteProduct(ctx context.Context, actorID, actorRole, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product.SellerID != actorID && actorRole != models.RoleAdmin {
		return apperrors.New(http.StatusForbidden, "You are not allowed to delete this product", nil)
	}

	if _, err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	if product.ImageKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, product.ImageKey); err != nil {
			s.log.Warn("failed to delete product image",
				zap.String("product_id", id),
				zap.String("image_key", product.ImageKey),
				zap.Error(err))
		}
	}
	return nil
}

// PresignImageUpload hands the client a short-lived PUT URL for a product
// image; the returned key is what the product record should store.
func (s *ProductService) PresignImageUpload(ctx context.Context, sellerID, filename, contentType string) (string, string, map[string]string, error) {
	if s.blobs == nil {
		return "", "", nil, apperrors.New(http.StatusServiceUnavailable, "Image uploads are not configured", nil)
	}
	key := fmt.Sprintf("products/%s/%s-%s", sellerID, uuid.NewString(), filename)
	url, headers, err := s.blobs.PresignUpload(ctx, key, contentType, 15*time.Minute)
	if err != nil {
		return "", "", nil, apperrors.New(http.StatusBadGateway, "Failed to presign upload", err)
	}
	return key, url, headers, nil
}
