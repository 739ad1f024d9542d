package diagnosis

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
	repo  *offline.Repository[*Diagnosis, Request]
	audit auditLogger
}

func NewHandler(repo *offline.Repository[*Diagnosis, Request], audit auditLogger) *Handler {
	return &Handler{repo: repo, audit: audit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/diagnoses", h.ListDiagnoses)
	api.GET("/diagnoses/:id", h.GetDiagnosis)
	api.POST("/diagnoses", h.CreateDiagnosis)
	api.PUT("/diagnoses/:id", h.UpdateDiagnosis)
	api.DELETE("/diagnoses/:id", h.DeleteDiagnosis)
}

func (h *Handler) ListDiagnoses(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.repo.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, found, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDiagnosis(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.repo.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("create", "diagnoses", d.ID, d.Code)
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDiagnosis(c echo.Context) error {
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
	d, err := h.repo.Update(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("update", "diagnoses", d.ID, d.Code)
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDiagnosis(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("delete", "diagnoses", id, "")
	return c.NoContent(http.StatusNoContent)
}
