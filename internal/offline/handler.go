package offline

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusResponse is the payload of the sync status endpoint.
type StatusResponse struct {
	Online  bool           `json:"online"`
	State   State          `json:"state"`
	Pending map[string]int `json:"pending"`
	LastRun *RunReport     `json:"last_run,omitempty"`
}

// Handler exposes the synchronization manager over the local API.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/sync/status", h.GetStatus)
	api.POST("/sync", h.TriggerSync)
	api.GET("/sync/stream", h.StreamStatus)
}

func (h *Handler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	pending := make(map[string]int)
	for _, repo := range h.mgr.Repositories() {
		n, err := repo.PendingCount(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		pending[repo.Kind()] = n
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Online:  h.mgr.net.Online(),
		State:   h.mgr.State(),
		Pending: pending,
		LastRun: h.mgr.LastReport(),
	})
}

func (h *Handler) TriggerSync(c echo.Context) error {
	if !h.mgr.TriggerSynchronization() {
		return echo.NewHTTPError(http.StatusConflict, "synchronization already running")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

// StreamStatus streams manager state transitions as server-sent events. The
// current state is replayed on connect, so a client never starts blind.
func (h *Handler) StreamStatus(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ch, cancel := h.mgr.Subscribe()
	defer cancel()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case tr, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(tr)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		}
	}
}
