package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// AuthHandler serves the built-in identity provider's endpoints. They follow
// the same contract the upstream client consumes, so the console can point
// its own session manager at itself when no upstream is configured.
type AuthHandler struct {
	identity ports.SessionAPI
}

func NewAuthHandler(identity ports.SessionAPI) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type authLoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

// Registration is stricter than login: existing accounts must keep working
// even if the password policy tightens later.
type authRegisterRequest struct {
	Identifier string `json:"identifier" validate:"required,email"`
	Secret     string `json:"secret" validate:"required,min=8"`
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authLoginRequest  true  "Login credentials"
// @Success      200   {object}  ports.LoginResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      423   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req authLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.identity.Login(c.Request().Context(), req.Identifier, req.Secret)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Register creates a new account. The response carries no session token;
// the default low-privilege role is assigned server-side.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authRegisterRequest  true  "Registration details"
// @Success      201   {object}  ports.Account
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req authRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.identity.Register(c.Request().Context(), req.Identifier, req.Secret)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, account)
}

// Me resolves the profile for the presented bearer token.
//
// @Summary      Current profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	profile, err := h.identity.Me(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
