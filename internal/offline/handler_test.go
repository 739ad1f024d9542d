package offline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinsync/clinsync/internal/netmon"
)

// sseRecorder invokes a callback after every body write, so a streaming
// test can cancel the request from inside the handler loop.
type sseRecorder struct {
	*httptest.ResponseRecorder
	onWrite func()
}

func (r *sseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseRecorder.Write(b)
	if r.onWrite != nil {
		r.onWrite()
	}
	return n, err
}

func TestSyncHandler_GetStatus(t *testing.T) {
	mgr := NewManager(netmon.NewStatic(true), zerolog.Nop())
	mgr.Register(
		&fakeSync{kind: "patients", pending: true},
		&fakeSync{kind: "events", pending: false},
	)
	h := NewHandler(mgr)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Online {
		t.Error("expected online true")
	}
	if resp.State != StateIdle {
		t.Errorf("expected state %s, got %s", StateIdle, resp.State)
	}
	if resp.Pending["patients"] != 1 || resp.Pending["events"] != 0 {
		t.Errorf("unexpected pending counts: %v", resp.Pending)
	}
	if resp.LastRun != nil {
		t.Error("expected no last run before any synchronization")
	}
}

func TestSyncHandler_GetStatus_IncludesLastRun(t *testing.T) {
	mgr := NewManager(netmon.NewStatic(true), zerolog.Nop())
	mgr.Register(&fakeSync{kind: "patients", ok: true})
	if _, ok := mgr.RunOnce(context.Background()); !ok {
		t.Fatal("expected the run to start")
	}
	h := NewHandler(mgr)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.LastRun == nil {
		t.Fatal("expected a last run report")
	}
	if !resp.LastRun.OK || len(resp.LastRun.Results) != 1 {
		t.Errorf("unexpected report: %+v", resp.LastRun)
	}
}

func TestSyncHandler_TriggerSync(t *testing.T) {
	mgr := NewManager(netmon.NewStatic(true), zerolog.Nop())
	mgr.Register(&fakeSync{kind: "patients", ok: true})
	h := NewHandler(mgr)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.TriggerSync(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	waitFor(t, 2*time.Second, func() bool { return mgr.LastReport() != nil })
}

func TestSyncHandler_TriggerSync_ConflictWhileRunning(t *testing.T) {
	mgr := NewManager(netmon.NewStatic(true), zerolog.Nop())
	blocked := &fakeSync{
		kind:    "patients",
		ok:      true,
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	mgr.Register(blocked)
	h := NewHandler(mgr)

	e := echo.New()

	first := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	firstRec := httptest.NewRecorder()
	if err := h.TriggerSync(e.NewContext(first, firstRec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if firstRec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", firstRec.Code)
	}
	<-blocked.started

	second := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	err := h.TriggerSync(e.NewContext(second, httptest.NewRecorder()))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected an HTTP error, got %v", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", httpErr.Code)
	}

	close(blocked.block)
	waitFor(t, 2*time.Second, func() bool { return mgr.LastReport() != nil })
}

func TestSyncHandler_StreamStatus(t *testing.T) {
	mgr := NewManager(netmon.NewStatic(true), zerolog.Nop())
	h := NewHandler(mgr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/stream", nil).WithContext(ctx)
	rec := &sseRecorder{ResponseRecorder: httptest.NewRecorder(), onWrite: cancel}
	c := e.NewContext(req, rec)

	if err := h.StreamStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", got)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Fatalf("expected an SSE frame, got %q", body)
	}
	var tr Transition
	payload := strings.TrimSpace(strings.TrimPrefix(body, "data: "))
	if err := json.Unmarshal([]byte(payload), &tr); err != nil {
		t.Fatalf("failed to decode frame %q: %v", payload, err)
	}
	if tr.State != StateIdle {
		t.Errorf("expected replayed state %s, got %s", StateIdle, tr.State)
	}
}
