package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
)

// AccountHandler serves the signed-in user's profile panel.
type AccountHandler struct {
	Profiles *repository.ProfileRepo
	Users    *repository.UserRepo
}

func NewAccountHandler(profiles *repository.ProfileRepo, users *repository.UserRepo) *AccountHandler {
	return &AccountHandler{Profiles: profiles, Users: users}
}

type accountResp struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// Get returns the caller's profile merged with their account email. A missing
// profile row answers with empty fields rather than an error.
func (h *AccountHandler) Get(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	out := accountResp{ID: userID, Role: "customer"}
	if u, err := h.Users.GetByID(ctx, userID); err == nil {
		out.Email = u.Email
	}
	p, err := h.Profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.Logger().Errorf("account get: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load profile"})
	}
	if err == nil {
		out.FirstName = p.FirstName
		out.LastName = p.LastName
		out.Phone = p.Phone
		out.Role = p.Role
	}
	return c.JSON(http.StatusOK, out)
}

type updateAccountReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Update replaces the caller-editable contact fields. Role is never writable
// through this endpoint.
func (h *AccountHandler) Update(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)

	ctx := c.Request().Context()
	if _, err := h.Profiles.Get(ctx, userID); errors.Is(err, repository.ErrNotFound) {
		if err := h.Profiles.Insert(ctx, model.Profile{
			ID:        userID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		}); err != nil {
			c.Logger().Errorf("account insert: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save profile"})
		}
		return h.Get(c)
	}

	if err := h.Profiles.UpdateContact(ctx, userID, req.FirstName, req.LastName, req.Phone); err != nil {
		c.Logger().Errorf("account update: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save profile"})
	}
	return h.Get(c)
}
