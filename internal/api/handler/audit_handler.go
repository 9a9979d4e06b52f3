package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apimw "github.com/gorsvet/lighting-console/internal/api/middleware"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

const defaultAuditLimit = 100

// AuditHandler serves the security audit trail. The route is guarded with
// viewer preview enabled: viewer-only operators are admitted but see only
// their own entries.
type AuditHandler struct {
	audit ports.AuditRecorder
}

func NewAuditHandler(audit ports.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns recent audit entries, newest first.
//
// @Summary      Recent audit entries
// @Tags         admin
// @Produce      json
// @Param        limit  query    int  false  "Maximum entries to return"
// @Success      200    {array}  domain.AuditEntry
// @Router       /api/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	if apimw.PreviewMode(c) {
		snap := apimw.SnapshotFrom(c)
		actor := ""
		if snap.User != nil {
			actor = snap.User.Email
		}
		entries, err := h.audit.ListByActor(c.Request().Context(), actor, limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entries)
	}

	entries, err := h.audit.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
