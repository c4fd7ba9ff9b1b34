package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/repository"
	"github.com/openstall/marketplace/services"
)

// Minimal in-memory stores, enough to drive the cart service over HTTP.

type memUsers struct{ ids map[string]bool }

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.ids[id] {
		return &models.User{ID: id}, nil
	}
	return nil, repository.ErrNotFound
}
func (m *memUsers) Exists(ctx context.Context, id string) (bool, error) { return m.ids[id], nil }
func (m *memUsers) Create(ctx context.Context, user *models.User) error { return nil }
func (m *memUsers) UpdateFields(ctx context.Context, id string, updates bson.M) error {
	return nil
}
func (m *memUsers) PrependOrder(ctx context.Context, userID string, order models.Order) error {
	return nil
}
func (m *memUsers) PrependSellerGroup(ctx context.Context, sellerID string, group models.SellerOrderGroup) error {
	return nil
}

type memProducts struct{ byID map[string]*models.Product }

func (m *memProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}
func (m *memProducts) Find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]*models.Product, error) {
	return nil, nil
}
func (m *memProducts) Count(ctx context.Context, filter bson.M) (int64, error) { return 0, nil }
func (m *memProducts) Create(ctx context.Context, product *models.Product) error {
	m.byID[product.ID] = product
	return nil
}
func (m *memProducts) Update(ctx context.Context, id string, updates bson.M) (int64, error) {
	return 1, nil
}
func (m *memProducts) Delete(ctx context.Context, id string) (int64, error) { return 1, nil }
func (m *memProducts) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	p, ok := m.byID[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if p.Quantity < amount {
		return 0, repository.ErrInsufficientStock
	}
	p.Quantity -= amount
	return p.Quantity, nil
}

type memCarts struct{ byUser map[string]*models.Cart }

func (m *memCarts) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return m.byUser[userID], nil
}
func (m *memCarts) SaveCart(ctx context.Context, cart *models.Cart) error {
	m.byUser[cart.UserID] = cart
	return nil
}
func (m *memCarts) DeleteCart(ctx context.Context, userID string) error {
	delete(m.byUser, userID)
	return nil
}

func asPrincipal(id, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalContextKey, &middleware.Principal{ID: id, Role: role})
	}
}

func newCartRouter(t *testing.T, actorID, actorRole string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := services.NewCartService(
		&memCarts{byUser: map[string]*models.Cart{}},
		&memUsers{ids: map[string]bool{"buyer-1": true, "seller-1": true}},
		&memProducts{byID: map[string]*models.Product{
			"prod-1": {ID: "prod-1", Name: "Mug", Price: 500, Quantity: 5, SellerID: "seller-1"},
		}},
	)
	cc := NewCartController(svc)

	r := gin.New()
	r.Use(asPrincipal(actorID, actorRole))
	r.GET("/cart/:userid", cc.GetCart)
	r.POST("/cart/:userid/:productid", cc.AddToCart)
	r.PUT("/cart/:userid/:productid", cc.UpdateCart)
	r.DELETE("/cart/:userid/:productid", cc.DeleteFromCart)
	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestCartEndpointsAddGetDelete(t *testing.T) {
	router := newCartRouter(t, "buyer-1", models.RoleUser)

	w, resp := doJSON(t, router, http.MethodPost, "/cart/buyer-1/prod-1", gin.H{"quantity": 2})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1000), resp["cartTotal"])

	w, resp = doJSON(t, router, http.MethodGet, "/cart/buyer-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1000), resp["cartTotal"])
	assert.Len(t, resp["data"], 1)

	w, resp = doJSON(t, router, http.MethodDelete, "/cart/buyer-1/prod-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(0), resp["cartTotal"])

	// Second delete: idempotent, reported as not-removed.
	w, resp = doJSON(t, router, http.MethodDelete, "/cart/buyer-1/prod-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Product no longer in cart", resp["message"])
}

func TestCartEndpointsRejectBadQuantity(t *testing.T) {
	router := newCartRouter(t, "buyer-1", models.RoleUser)

	w, resp := doJSON(t, router, http.MethodPost, "/cart/buyer-1/prod-1", gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A quantity of at least 1 is required", resp["message"])

	w, resp = doJSON(t, router, http.MethodPost, "/cart/buyer-1/prod-1", gin.H{"quantity": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You cannot add more than the current stock (5)", resp["message"])
}

func TestCartEndpointsForbidForeignCart(t *testing.T) {
	router := newCartRouter(t, "intruder", models.RoleUser)

	w, resp := doJSON(t, router, http.MethodGet, "/cart/buyer-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestCartEndpointsAdminMayActForUser(t *testing.T) {
	router := newCartRouter(t, "admin-1", models.RoleAdmin)

	w, resp := doJSON(t, router, http.MethodPost, "/cart/buyer-1/prod-1", gin.H{"quantity": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
}
