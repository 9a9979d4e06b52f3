package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gorsvet/lighting-console/internal/api/metrics"
	apimw "github.com/gorsvet/lighting-console/internal/api/middleware"
	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// SessionHandler exposes the console's session manager to the SPA.
type SessionHandler struct {
	session ports.SessionService
}

func NewSessionHandler(session ports.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

type credentialsRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

// State returns the current session snapshot.
//
// @Summary      Current session state
// @Tags         session
// @Produce      json
// @Success      200  {object}  ports.Snapshot
// @Router       /api/session [get]
func (h *SessionHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Snapshot())
}

// Login authenticates the operator and resolves the profile.
//
// @Summary      Log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      200   {object}  ports.Snapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      423   {object}  map[string]string
// @Router       /api/session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.session.Login(c.Request().Context(), req.Identifier, req.Secret); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, h.session.Snapshot())
}

// Register creates an account and logs in with the same credentials.
//
// @Summary      Register and log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      201   {object}  ports.Snapshot
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.session.Register(c.Request().Context(), req.Identifier, req.Secret); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.session.Snapshot())
}

// Logout clears the credential locally; bearer tokens need no server call.
//
// @Summary      Log out
// @Tags         session
// @Produce      json
// @Success      200  {object}  ports.Snapshot
// @Router       /api/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.session.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, h.session.Snapshot())
}

// Refresh re-resolves the profile. A rejected credential surfaces here as a
// forced logout in the returned snapshot, never as an error.
//
// @Summary      Refresh profile
// @Tags         session
// @Produce      json
// @Success      200  {object}  ports.Snapshot
// @Router       /api/session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	h.session.RefreshMe(c.Request().Context())

	snap := h.session.Snapshot()
	if snap.Authenticated {
		metrics.SessionRefreshTotal.WithLabelValues("success").Inc()
	} else {
		metrics.SessionRefreshTotal.WithLabelValues("rejected").Inc()
	}
	return c.JSON(http.StatusOK, snap)
}

// Navigation returns the navigation tree visible to the current operator.
// Viewer-only operators get the full tree with locked entries marked.
//
// @Summary      Visible navigation
// @Tags         session
// @Produce      json
// @Success      200  {array}  domain.NavSection
// @Router       /api/navigation [get]
func (h *SessionHandler) Navigation(c echo.Context) error {
	snap := apimw.SnapshotFrom(c)
	return c.JSON(http.StatusOK, domain.FilterNavigation(domain.DefaultNavigation, snap.Roles))
}
