package auditevent

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/pkg/pagination"
)

// Handler serves the audit log. The log is append-and-read only; there are
// no update or delete routes.
type Handler struct {
	repo *offline.Repository[*AuditEvent, Request]
}

func NewHandler(repo *offline.Repository[*AuditEvent, Request]) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit-events", h.ListAuditEvents)
	api.GET("/audit-events/:id", h.GetAuditEvent)
	api.POST("/audit-events", h.CreateAuditEvent)
}

func (h *Handler) ListAuditEvents(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.repo.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetAuditEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, found, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "audit event not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateAuditEvent(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.repo.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}
