package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qes00/allahuv3/internal/utils"
)

const testSecret = "test-secret"

func runWith(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, c, called
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, "user-1", "customer", 5)
	require.NoError(t, err)

	rec, c, called := runWith(t, JWTAuth(testSecret), "Bearer "+tok.Token)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", c.Get("user_id"))
	assert.Equal(t, "customer", c.Get("role"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _, called := runWith(t, JWTAuth(testSecret), "")

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", "user-1", "customer", 5)
	require.NoError(t, err)

	rec, _, called := runWith(t, JWTAuth(testSecret), "Bearer "+tok.Token)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTAnonymousPassesThrough(t *testing.T) {
	rec, c, called := runWith(t, OptionalJWT(testSecret), "")

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTInvalidTokenTreatedAsGuest(t *testing.T) {
	_, c, called := runWith(t, OptionalJWT(testSecret), "Bearer not-a-token")

	assert.True(t, called)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTValidTokenInjectsIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, "user-7", "admin", 5)
	require.NoError(t, err)

	_, c, called := runWith(t, OptionalJWT(testSecret), "Bearer "+tok.Token)

	assert.True(t, called)
	assert.Equal(t, "user-7", c.Get("user_id"))
	assert.Equal(t, "admin", c.Get("role"))
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", "customer")

	called := false
	err := RequireRole("admin")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
