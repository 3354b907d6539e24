package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qes00/allahuv3/internal/auth"
	"github.com/qes00/allahuv3/internal/config"
	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
)

// credsBackend answers password sign-ins per account, so tests can drive two
// different users through one manager.
type credsBackend struct {
	accounts map[string]auth.Credentials // keyed by email
}

func (b *credsBackend) GetSession(context.Context) (*auth.Session, error) { return nil, nil }

func (b *credsBackend) OnAuthStateChange(func(auth.Event, *auth.Session)) func() {
	return func() {}
}

func (b *credsBackend) SignInWithPassword(_ context.Context, email, _ string) (auth.Credentials, error) {
	c, ok := b.accounts[email]
	if !ok {
		return auth.Credentials{}, auth.ErrInvalidCredentials
	}
	return c, nil
}

func (b *credsBackend) SignInWithOAuth(context.Context, string, auth.OAuthOptions) (string, error) {
	return "", nil
}

func (b *credsBackend) SignUp(_ context.Context, email, _ string) (auth.Credentials, error) {
	return b.accounts[email], nil
}

func (b *credsBackend) SignOut(context.Context) error { return nil }

type userDir struct {
	rows map[string]model.User
}

func (d *userDir) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := d.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type profileDir struct {
	rows map[string]model.Profile
}

func (d *profileDir) Get(_ context.Context, id string) (model.Profile, error) {
	p, ok := d.rows[id]
	if !ok {
		return model.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (d *profileDir) Insert(_ context.Context, p model.Profile) error {
	d.rows[p.ID] = p
	return nil
}

func (d *profileDir) PatchNames(context.Context, string, string, string) error { return nil }

func accountFor(id, email string) auth.Credentials {
	return auth.Credentials{
		User: auth.BackendUser{ID: id, Email: email},
		Session: &auth.Session{
			User:        auth.BackendUser{ID: id, Email: email},
			AccessToken: "access-" + id,
		},
	}
}

func newAuthFixture() (*AuthHandler, *credsBackend) {
	backend := &credsBackend{accounts: map[string]auth.Credentials{
		"a@example.pe": accountFor("A", "a@example.pe"),
		"b@example.pe": accountFor("B", "b@example.pe"),
	}}
	users := &userDir{rows: map[string]model.User{
		"A": {ID: "A", Email: "a@example.pe"},
		"B": {ID: "B", Email: "b@example.pe"},
	}}
	profiles := &profileDir{rows: map[string]model.Profile{
		"A": {ID: "A", FirstName: "Ana", Role: "customer"},
		"B": {ID: "B", FirstName: "Bruno", Role: "admin"},
	}}

	m := auth.NewManager(backend, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	h := NewAuthHandler(config.Config{AppBaseURL: "http://localhost:3000"}, m, nil, users, profiles)
	return h, backend
}

func postLogin(t *testing.T, h *AuthHandler, email string) authResp {
	t.Helper()
	e := echo.New()
	body := `{"email":"` + email + `","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestMeReturnsCallerNotLastSignIn(t *testing.T) {
	h, _ := newAuthFixture()

	// A signs in first, then B: the manager's shared state now tracks B.
	postLogin(t, h, "a@example.pe")
	postLogin(t, h, "b@example.pe")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "A") // caller authenticated as A

	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		User auth.AuthUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "A", out.User.ID, "caller gets their own identity")
	assert.Equal(t, "a@example.pe", out.User.Email)
	assert.Equal(t, "Ana", out.User.FirstName)
	assert.Equal(t, auth.RoleCustomer, out.User.Role)
}

func TestLoginResponseCarriesThatCallsCredentials(t *testing.T) {
	h, _ := newAuthFixture()

	respA := postLogin(t, h, "a@example.pe")
	respB := postLogin(t, h, "b@example.pe")

	require.NotNil(t, respA.User)
	assert.Equal(t, "A", respA.User.ID)
	require.NotNil(t, respA.Session)
	assert.Equal(t, "access-A", respA.Session.AccessToken, "each response holds its own tokens")

	require.NotNil(t, respB.User)
	assert.Equal(t, "B", respB.User.ID)
	assert.Equal(t, "access-B", respB.Session.AccessToken)
}

func TestMeUnknownAccountRejected(t *testing.T) {
	h, _ := newAuthFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "deleted")

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
