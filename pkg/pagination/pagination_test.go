package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=50&offset=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?offset=-5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Offset != 0 {
		t.Errorf("expected negative offset clamped to 0, got %d", p.Offset)
	}
}

func TestParams_Window(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		n      int
		lo     int
		hi     int
	}{
		{"first page", Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{"middle page", Params{Limit: 10, Offset: 10}, 25, 10, 20},
		{"partial last page", Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{"offset past end", Params{Limit: 10, Offset: 40}, 25, 25, 25},
		{"empty set", Params{Limit: 10, Offset: 0}, 0, 0, 0},
		{"exact boundary", Params{Limit: 5, Offset: 20}, 25, 20, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.params.Window(tt.n)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("Window(%d) = (%d, %d), want (%d, %d)", tt.n, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		total    int
		expected bool
	}{
		{"has more", Params{Limit: 10, Offset: 0}, 25, true},
		{"last page", Params{Limit: 10, Offset: 20}, 25, false},
		{"exact boundary", Params{Limit: 10, Offset: 15}, 25, false},
		{"empty result", Params{Limit: 10, Offset: 0}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.HasNext(tt.total); got != tt.expected {
				t.Errorf("expected HasNext=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParams_HasPrevious(t *testing.T) {
	if (Params{Limit: 10, Offset: 0}).HasPrevious() {
		t.Error("expected no previous page at offset 0")
	}
	if !(Params{Limit: 10, Offset: 10}).HasPrevious() {
		t.Error("expected previous page at offset 10")
	}
}

func TestParams_NextOffset(t *testing.T) {
	p := Params{Limit: 10, Offset: 20}
	if got := p.NextOffset(); got != 30 {
		t.Errorf("expected next offset 30, got %d", got)
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		expected int
	}{
		{"normal", Params{Limit: 10, Offset: 20}, 10},
		{"clamped to zero", Params{Limit: 10, Offset: 5}, 0},
		{"at start", Params{Limit: 10, Offset: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.PreviousOffset(); got != tt.expected {
				t.Errorf("expected previous offset %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b", "c"}
	resp := NewResponse(data, 25, 10, 0)

	if resp.Total != 25 {
		t.Errorf("expected total 25, got %d", resp.Total)
	}
	if resp.Limit != 10 {
		t.Errorf("expected limit 10, got %d", resp.Limit)
	}
	if resp.Offset != 0 {
		t.Errorf("expected offset 0, got %d", resp.Offset)
	}
	if !resp.HasMore {
		t.Error("expected HasMore true with 25 total and first page of 10")
	}

	last := NewResponse(data, 25, 10, 20)
	if last.HasMore {
		t.Error("expected HasMore false on the last page")
	}
}
