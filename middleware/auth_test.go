package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstall/marketplace/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestParseTokenRoundTrip(t *testing.T) {
	tokenStr := signToken(t, jwt.MapClaims{
		"id":   "user-1",
		"role": models.RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	principal, err := ParseToken(tokenStr, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, models.RoleAdmin, principal.Role)
}

func TestParseTokenDefaultsRole(t *testing.T) {
	tokenStr := signToken(t, jwt.MapClaims{"id": "user-1"})

	principal, err := ParseToken(tokenStr, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, principal.Role)
}

func TestParseTokenRejections(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	missingID := signToken(t, jwt.MapClaims{"role": models.RoleUser})

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"garbage token", "not-a-token", []byte(testSecret)},
		{"wrong secret", signToken(t, jwt.MapClaims{"id": "user-1"}), []byte("other")},
		{"expired", expired, []byte(testSecret)},
		{"missing id", missingID, []byte(testSecret)},
		{"empty secret", signToken(t, jwt.MapClaims{"id": "user-1"}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(testSecret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role})
	})
	r.GET("/secure", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no token")

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "bad token")

	tokenStr := signToken(t, jwt.MapClaims{"id": "user-1", "role": models.RoleUser})
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestRequireRoles(t *testing.T) {
	router := newAuthRouter(RequireRoles(models.RoleAdmin))

	userToken := signToken(t, jwt.MapClaims{"id": "user-1", "role": models.RoleUser})
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := signToken(t, jwt.MapClaims{"id": "admin-1", "role": models.RoleAdmin})
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
