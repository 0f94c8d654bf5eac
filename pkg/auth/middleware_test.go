package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bhims/bhims-backend/pkg/auth"
	"github.com/bhims/bhims-backend/pkg/config"
	"github.com/bhims/bhims-backend/pkg/httputil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: "42",
		Name:   "Admin User",
		Role:   role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedEndpoint(t *testing.T) http.Handler {
	manager := auth.NewManager(&config.JWTConfig{Secret: testSecret})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", httputil.GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	return auth.Authenticate(manager)(auth.RequireAdmin(inner))
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.RoleAdministrator, -time.Hour))
	rec := httptest.NewRecorder()
	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminRejectsStaffRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "staff", time.Hour))
	rec := httptest.NewRecorder()
	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdministrator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.RoleAdministrator, time.Hour))
	rec := httptest.NewRecorder()
	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
