package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// AdminHandler serves the user administration endpoints. Routes mounting it
// are guarded by the SUPER_ADMIN role.
type AdminHandler struct {
	users ports.UserRepository
	audit ports.AuditSink
}

func NewAdminHandler(users ports.UserRepository, audit ports.AuditSink) *AdminHandler {
	return &AdminHandler{users: users, audit: audit}
}

type userSummary struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}

type updateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,required"`
}

// ListUsers returns every account known to the built-in identity provider.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Success      200  {array}  userSummary
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toSummary(u))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateRoles replaces the role set of an account. Raw role names are
// normalized to the canonical vocabulary before storage; unknown names are
// kept canonicalized so a future vocabulary extension does not lose data.
//
// @Summary      Update account roles
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Account ID"
// @Param        body  body      updateRolesRequest  true  "New role set"
// @Success      200   {object}  userSummary
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/users/{id}/roles [put]
func (h *AdminHandler) UpdateRoles(c echo.Context) error {
	var req updateRolesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	roles := make([]string, 0, len(req.Roles))
	for _, raw := range req.Roles {
		if canonical := domain.NormalizeRole(raw); canonical != "" {
			roles = append(roles, canonical)
		}
	}
	if len(roles) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no valid roles in request")
	}

	updated, err := h.users.UpdateRoles(c.Request().Context(), c.Param("id"), roles)
	if err != nil {
		return err
	}

	if h.audit != nil {
		h.audit.Submit(domain.AuditEntry{
			Actor:     updated.Email,
			Action:    domain.AuditRolesChanged,
			Detail:    "roles set by administrator",
			Timestamp: time.Now().UTC(),
		})
	}
	return c.JSON(http.StatusOK, toSummary(updated))
}

func toSummary(u *domain.User) userSummary {
	return userSummary{
		ID:        u.ID,
		Email:     u.Email,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
