package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"windquote/testhelpers"
)

func TestHandleProjectCreate_ValidData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := jsonRequest(t, http.MethodPost, "/projects", map[string]any{
		"name":   "  Parc des Hauts  ",
		"client": "EDPR",
		"site":   "Somme (80)",
	})
	req.Header.Set("HX-Request", "true")
	rec := serve(t, app, HandleProjectCreate(app), req)

	expectStatus(t, rec, http.StatusCreated)
	var got projectJSON
	decodeJSON(t, rec, &got)
	if got.Name != "Parc des Hauts" {
		t.Errorf("expected trimmed name, got %q", got.Name)
	}
	if got.Status != "active" {
		t.Errorf("expected default status active, got %q", got.Status)
	}
	if rec.Header().Get("HX-Redirect") != "/projects/"+got.ID+"/quotes" {
		t.Errorf("unexpected HX-Redirect %q", rec.Header().Get("HX-Redirect"))
	}

	records, err := app.FindRecordsByFilter("projects", "name = {:name}", "", 1, 0,
		map[string]any{"name": "Parc des Hauts"})
	if err != nil || len(records) == 0 {
		t.Error("expected project to be created in database")
	}
}

func TestHandleProjectCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"name": "   "}},
		{"unknown status", map[string]any{"name": "P", "status": "completed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			rec := serve(t, app, HandleProjectCreate(app), jsonRequest(t, http.MethodPost, "/projects", tt.body))
			expectStatus(t, rec, http.StatusBadRequest)

			records, _ := app.FindAllRecords("projects")
			if len(records) != 0 {
				t.Errorf("expected no project, got %d", len(records))
			}
		})
	}
}

func TestHandleProjectList_JSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProject(t, app, "Parc A")
	testhelpers.CreateTestQuote(t, app, p.Id, "Offre", nil)
	testhelpers.CreateTestProject(t, app, "Parc B")

	rec := serve(t, app, HandleProjectList(app), jsonRequest(t, http.MethodGet, "/projects", nil))
	expectStatus(t, rec, http.StatusOK)

	var got []projectJSON
	decodeJSON(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(got))
	}
	counts := map[string]int{}
	for _, p := range got {
		counts[p.Name] = p.QuoteCount
	}
	if counts["Parc A"] != 1 || counts["Parc B"] != 0 {
		t.Errorf("unexpected quote counts %v", counts)
	}
}

func TestHandleProjectList_HTML(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProject(t, app, "Parc <Nord>")

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	rec := serve(t, app, HandleProjectList(app), req)
	expectStatus(t, rec, http.StatusOK)
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "<!DOCTYPE html>", "Parc &lt;Nord&gt;", "badge-success")

	req = httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("HX-Request", "true")
	rec = serve(t, app, HandleProjectList(app), req)
	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, `id="project-list"`)
	if strings.HasPrefix(body, "<!DOCTYPE") {
		t.Error("HTMX request should get the content only")
	}
}

func TestHandleProjectUpdate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProject(t, app, "Parc A")

	req := jsonRequest(t, http.MethodPatch, "/projects/"+p.Id, map[string]any{
		"site":   "Aisne",
		"status": "archived",
	}, "id", p.Id)
	rec := serve(t, app, HandleProjectUpdate(app), req)
	expectStatus(t, rec, http.StatusOK)

	updated, err := app.FindRecordById("projects", p.Id)
	if err != nil {
		t.Fatalf("project not found: %v", err)
	}
	if updated.GetString("name") != "Parc A" {
		t.Errorf("name should be untouched, got %q", updated.GetString("name"))
	}
	if updated.GetString("site") != "Aisne" || updated.GetString("status") != "archived" {
		t.Errorf("update not applied: site=%q status=%q", updated.GetString("site"), updated.GetString("status"))
	}
}

func TestHandleProjectUpdate_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProject(t, app, "Parc A")

	rec := serve(t, app, HandleProjectUpdate(app),
		jsonRequest(t, http.MethodPatch, "/projects/missing", map[string]any{"name": "X"}, "id", "missing"))
	expectStatus(t, rec, http.StatusNotFound)

	rec = serve(t, app, HandleProjectUpdate(app),
		jsonRequest(t, http.MethodPatch, "/projects/"+p.Id, map[string]any{"name": ""}, "id", p.Id))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestHandleProjectDelete_CascadesQuotes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProject(t, app, "Parc A")
	q := testhelpers.CreateTestQuote(t, app, p.Id, "Offre", testhelpers.SampleInput())
	testhelpers.CreateTestLot(t, app, q.Id, "Génie civil")

	rec := serve(t, app, HandleProjectDelete(app),
		jsonRequest(t, http.MethodDelete, "/projects/"+p.Id, nil, "id", p.Id))
	expectStatus(t, rec, http.StatusNoContent)

	if _, err := app.FindRecordById("quotes", q.Id); err == nil {
		t.Error("expected quote to be deleted with its project")
	}
	lots, _ := app.FindAllRecords("lots")
	if len(lots) != 0 {
		t.Errorf("expected lots to be deleted, got %d", len(lots))
	}

	rec = serve(t, app, HandleProjectDelete(app),
		jsonRequest(t, http.MethodDelete, "/projects/"+p.Id, nil, "id", p.Id))
	expectStatus(t, rec, http.StatusNotFound)
}
