package careplan

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

// Handler serves care plans and their goals and measures.
type Handler struct {
	plans    *offline.Repository[*CarePlan, CarePlanRequest]
	goals    *offline.Repository[*Goal, GoalRequest]
	measures *offline.Repository[*Measure, MeasureRequest]
	audit    auditLogger
}

func NewHandler(
	plans *offline.Repository[*CarePlan, CarePlanRequest],
	goals *offline.Repository[*Goal, GoalRequest],
	measures *offline.Repository[*Measure, MeasureRequest],
	audit auditLogger,
) *Handler {
	return &Handler{plans: plans, goals: goals, measures: measures, audit: audit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/careplans", h.ListCarePlans)
	api.GET("/careplans/:id", h.GetCarePlan)
	api.POST("/careplans", h.CreateCarePlan)
	api.PUT("/careplans/:id", h.UpdateCarePlan)
	api.DELETE("/careplans/:id", h.DeleteCarePlan)

	api.GET("/goals", h.ListGoals)
	api.GET("/goals/:id", h.GetGoal)
	api.POST("/goals", h.CreateGoal)
	api.PUT("/goals/:id", h.UpdateGoal)
	api.DELETE("/goals/:id", h.DeleteGoal)

	api.GET("/measures", h.ListMeasures)
	api.GET("/measures/:id", h.GetMeasure)
	api.POST("/measures", h.CreateMeasure)
	api.PUT("/measures/:id", h.UpdateMeasure)
	api.DELETE("/measures/:id", h.DeleteMeasure)
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// -- CarePlan handlers --

func (h *Handler) ListCarePlans(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.plans.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetCarePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, found, err := h.plans.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "care plan not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateCarePlan(c echo.Context) error {
	var req CarePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.plans.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("create", "care_plans", p.ID, p.Title)
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateCarePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req CarePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.plans.Update(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "care plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("update", "care_plans", p.ID, p.Title)
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteCarePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.plans.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "care plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("delete", "care_plans", id, "")
	return c.NoContent(http.StatusNoContent)
}

// -- Goal handlers --

func (h *Handler) ListGoals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.goals.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetGoal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	g, found, err := h.goals.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "goal not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) CreateGoal(c echo.Context) error {
	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.goals.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("create", "goals", g.ID, g.Description)
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) UpdateGoal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.goals.Update(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "goal not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("update", "goals", g.ID, g.Description)
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) DeleteGoal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.goals.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "goal not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("delete", "goals", id, "")
	return c.NoContent(http.StatusNoContent)
}

// -- Measure handlers --

func (h *Handler) ListMeasures(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.measures.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetMeasure(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, found, err := h.measures.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMeasure(c echo.Context) error {
	var req MeasureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.measures.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("create", "measures", m.ID, m.Name)
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMeasure(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req MeasureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.measures.Update(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "measure not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("update", "measures", m.ID, m.Name)
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMeasure(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.measures.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, offline.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "measure not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.audit.Record("delete", "measures", id, "")
	return c.NoContent(http.StatusNoContent)
}
