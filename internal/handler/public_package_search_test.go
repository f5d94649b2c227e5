package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

// Search tracking is published from a detached goroutine, so the
// event must be a value snapshot taken while the request context is
// still live. These tests pin down that searchEvent copies everything
// it needs up front and survives the context being recycled.

func TestSearchEventSnapshotsRequestData(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/search/packages?q=bali", nil)
	req.Header.Set("X-Session-ID", "sess-42")
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("user_id", uint64(17))

	ev := searchEvent(c, "bali")

	if ev.SearchTerm != "bali" {
		t.Errorf("SearchTerm = %q, want bali", ev.SearchTerm)
	}
	if ev.SessionID != "sess-42" {
		t.Errorf("SessionID = %q, want sess-42", ev.SessionID)
	}
	if ev.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %q, want 203.0.113.9", ev.IPAddress)
	}
	if ev.Page != "/v1/search/packages" {
		t.Errorf("Page = %q, want /v1/search/packages", ev.Page)
	}
	if ev.Action != "search" {
		t.Errorf("Action = %q, want search", ev.Action)
	}
	if ev.UserID == nil || *ev.UserID != 17 {
		t.Errorf("UserID = %v, want 17", ev.UserID)
	}
	if ev.OccurredAt == "" {
		t.Error("OccurredAt is empty")
	}
}

func TestSearchEventSurvivesContextRecycling(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/search/packages?q=tuscany", nil)
	req.Header.Set("X-Session-ID", "sess-1")
	c := e.NewContext(req, httptest.NewRecorder())

	ev := searchEvent(c, "tuscany")

	// Echo pools contexts; after the handler returns this one is
	// reset and handed to an unrelated request.
	next := httptest.NewRequest(http.MethodGet, "/v1/regions", nil)
	next.Header.Set("X-Session-ID", "sess-2")
	c.Reset(next, httptest.NewRecorder())

	if ev.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", ev.SessionID)
	}
	if ev.Page != "/v1/search/packages" {
		t.Errorf("Page = %q, want /v1/search/packages", ev.Page)
	}
	if ev.SearchTerm != "tuscany" {
		t.Errorf("SearchTerm = %q, want tuscany", ev.SearchTerm)
	}
}

func TestSearchEventAnonymousUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/search/packages?q=alps", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if ev := searchEvent(c, "alps"); ev.UserID != nil {
		t.Errorf("UserID = %v, want nil for anonymous search", ev.UserID)
	}
}
