package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := mw(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, captured
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleCustomer, 5)
	require.NoError(t, err)

	rec, c := runProtected(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get("user_id"))
	assert.Equal(t, model.RoleCustomer, c.Get("role"))
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	rec, _ := runProtected(t, JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = runProtected(t, JWTAuth(testSecret), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 42, model.RoleCustomer, 5)
	require.NoError(t, err)
	rec, _ = runProtected(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTAuthLetsGuestsThrough(t *testing.T) {
	rec, c := runProtected(t, OptionalJWTAuth(testSecret), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))

	tok, err := utils.NewAccessToken(testSecret, 7, model.RoleCustomer, 5)
	require.NoError(t, err)
	rec, c = runProtected(t, OptionalJWTAuth(testSecret), "Bearer "+tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), c.Get("user_id"))
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole(model.RoleAdmin, model.RoleEmployee)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	run := func(role interface{}) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		require.NoError(t, h(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(model.RoleAdmin))
	assert.Equal(t, http.StatusOK, run(model.RoleEmployee))
	assert.Equal(t, http.StatusForbidden, run(model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, run(nil))
}
