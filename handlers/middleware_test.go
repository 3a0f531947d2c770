package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"windquote/testhelpers"
)

func TestRequestLogger(t *testing.T) {
	logs := observeLogs(t)

	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	rec := httptest.NewRecorder()

	if err := RequestLogger()(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" || fields["path"] != "/projects" {
		t.Errorf("unexpected fields %v", fields)
	}
	if _, ok := fields["duration"]; !ok {
		t.Error("expected a duration field")
	}
}
