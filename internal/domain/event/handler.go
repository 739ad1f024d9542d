package event

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/pkg/pagination"
)

type auditLogger interface {
	Record(action, entityType string, entityID int64, detail string)
}

type Handler struct {
	repo  *offline.Repository[*Event, Request]
	audit auditLogger
}

func NewHandler(repo *offline.Repository[*Event, Request], audit auditLogger) *Handler {
	return &Handler{repo: repo, audit: audit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/events", h.ListEvents)
	api.GET("/events/:id", h.GetEvent)
	api.POST("/events", h.CreateEvent)
	api.PUT("/events/:id", h.UpdateEvent)
	api.DELETE("/events/:id", h.DeleteEvent)
}

func (h *Handler) ListEvents(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.repo.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, found, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) CreateEvent(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.repo.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("create", "events", e.ID, e.Title)
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.repo.Update(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("update", "events", e.ID, e.Title)
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("delete", "events", id, "")
	return c.NoContent(http.StatusNoContent)
}
