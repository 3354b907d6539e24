package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qes00/allahuv3/internal/auth"
	"github.com/qes00/allahuv3/internal/config"
	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
)

// userDirectory is the account lookup Me needs; *repository.UserRepo
// satisfies it.
type userDirectory interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// AuthHandler is the UI layer in front of the session manager: it owns the
// request-level validation the manager's preconditions depend on (password
// length, confirmation match) and translates manager results to HTTP.
// Responses are always built from the outcome of the call itself — the
// manager additionally tracks the most recent sign-in process-wide, and that
// shared state must never be handed to an arbitrary caller.
type AuthHandler struct {
	Cfg      config.Config
	Manager  *auth.Manager
	Backend  *auth.SQLBackend // nil when the identity backend is unconfigured
	Users    userDirectory
	Profiles auth.ProfileStore
}

func NewAuthHandler(cfg config.Config, m *auth.Manager, b *auth.SQLBackend, users userDirectory, profiles auth.ProfileStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Manager: m, Backend: b, Users: users, Profiles: profiles}
}

// ----- DTOs -----

type registerReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionPart struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type authResp struct {
	User    *auth.AuthUser `json:"user"`
	Session *sessionPart   `json:"session,omitempty"`
}

// Register validates the form, creates the account and provisions its
// profile. Validation failures never reach the session manager.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.PasswordConfirm != "" && req.PasswordConfirm != req.Password {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	res := h.Manager.SignUp(c.Request().Context(), req.Email, req.Password,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	if !res.Success {
		status := http.StatusBadRequest
		if strings.Contains(res.Error, "exists") {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": res.Error})
	}
	return c.JSON(http.StatusCreated, credsResp(res))
}

// Login attempts password authentication through the session manager.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	res := h.Manager.SignIn(c.Request().Context(), req.Email, req.Password)
	if !res.Success {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": res.Error})
	}
	return c.JSON(http.StatusOK, credsResp(res))
}

// GoogleStart initiates the federated redirect flow. The response is a 302 to
// the provider's consent page; completion lands on GoogleCallback.
func (h *AuthHandler) GoogleStart(c echo.Context) error {
	res := h.Manager.SignInWithGoogle(c.Request().Context())
	if !res.Success {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": res.Error})
	}
	return c.Redirect(http.StatusFound, res.RedirectURL)
}

// GoogleCallback completes the OAuth flow. The backend emits SIGNED_IN, which
// the session manager's standing subscription turns into a resolved user; by
// the time the redirect lands the snapshot is consistent.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if h.Backend == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "google sign-in not configured"})
	}
	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if state == "" || code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing state or code"})
	}
	if _, err := h.Backend.CompleteOAuth(c.Request().Context(), state, code); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}
	return c.Redirect(http.StatusFound, h.Cfg.AppBaseURL+"/")
}

// Logout clears the session. Local state is cleared even when the backend
// call fails, so this always answers 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Manager.SignOut(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's own identity, resolved from the token subject.
// Identity is per request here: the manager's shared snapshot tracks whoever
// signed in last and would leak one user's identity to another.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown account"})
	}
	out := auth.AuthUser{ID: u.ID, Email: u.Email, Role: auth.RoleCustomer}
	p, err := h.Profiles.Get(ctx, userID)
	if err == nil {
		out.FirstName, out.LastName, out.Phone = p.FirstName, p.LastName, p.Phone
		if p.Role != "" {
			out.Role = auth.Role(p.Role)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		c.Logger().Warnf("me: profile fetch failed for %s: %v", userID, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": out})
}

// credsResp shapes the user and credentials a sign-in or sign-up call itself
// produced.
func credsResp(res auth.Result) authResp {
	out := authResp{User: res.User}
	if res.Session != nil {
		out.Session = &sessionPart{
			AccessToken:  res.Session.AccessToken,
			RefreshToken: res.Session.RefreshToken,
		}
	}
	return out
}
