package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/templates"
)

var ProjectStatusOptions = []string{"active", "archived"}

type projectJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Client     string `json:"client"`
	Site       string `json:"site"`
	Status     string `json:"status"`
	QuoteCount int    `json:"quote_count"`
	Created    string `json:"created"`
}

type projectRequest struct {
	Name   *string `json:"name" form:"name"`
	Client *string `json:"client" form:"client"`
	Site   *string `json:"site" form:"site"`
	Status *string `json:"status" form:"status"`
}

func statusBadgeClass(status string) string {
	switch status {
	case "active":
		return "badge-success"
	case "archived":
		return "badge-ghost"
	default:
		return "badge-info"
	}
}

func projectFromRecord(app core.App, rec *core.Record) projectJSON {
	quotes, err := app.FindRecordsByFilter(
		"quotes",
		"project = {:projectId}",
		"", 0, 0,
		map[string]any{"projectId": rec.Id},
	)
	if err != nil {
		quotes = nil
	}
	created := ""
	if dt := rec.GetDateTime("created"); !dt.IsZero() {
		created = dt.Time().Format("2006-01-02")
	}
	return projectJSON{
		ID:         rec.Id,
		Name:       rec.GetString("name"),
		Client:     rec.GetString("client"),
		Site:       rec.GetString("site"),
		Status:     rec.GetString("status"),
		QuoteCount: len(quotes),
		Created:    created,
	}
}

// HandleProjectList renders the project list, or returns it as JSON.
func HandleProjectList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("projects", "", "-created", 0, 0)
		if err != nil {
			zap.L().Error("could not query projects", zap.String("op", "project_list"), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}

		projects := make([]projectJSON, 0, len(records))
		for _, rec := range records {
			projects = append(projects, projectFromRecord(app, rec))
		}
		if wantsJSON(e.Request) {
			return e.JSON(http.StatusOK, projects)
		}

		data := templates.ProjectListData{TotalCount: len(projects)}
		for _, p := range projects {
			data.Items = append(data.Items, templates.ProjectListItem{
				ID:               p.ID,
				Name:             p.Name,
				Client:           p.Client,
				Site:             p.Site,
				Status:           p.Status,
				StatusBadgeClass: statusBadgeClass(p.Status),
				QuoteCount:       p.QuoteCount,
				CreatedDate:      p.Created,
			})
		}
		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.ProjectListContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.ProjectListPage(data).Render(e.Request.Context(), e.Response)
	}
}

func normalizeStatus(status *string) (string, bool) {
	if status == nil || strings.TrimSpace(*status) == "" {
		return "active", true
	}
	s := strings.TrimSpace(*status)
	return s, slices.Contains(ProjectStatusOptions, s)
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// HandleProjectCreate creates a project from a JSON or form body.
func HandleProjectCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req projectRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}

		name := trimmed(req.Name)
		if name == "" {
			return fail(e, http.StatusBadRequest, "Le nom du projet est obligatoire")
		}
		status, ok := normalizeStatus(req.Status)
		if !ok {
			return fail(e, http.StatusBadRequest, "Statut de projet invalide")
		}

		col, err := app.FindCollectionByNameOrId("projects")
		if err != nil {
			zap.L().Error("could not find projects collection", zap.String("op", "project_create"), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}
		rec := core.NewRecord(col)
		rec.Set("name", name)
		rec.Set("client", trimmed(req.Client))
		rec.Set("site", trimmed(req.Site))
		rec.Set("status", status)
		if err := app.Save(rec); err != nil {
			zap.L().Error("could not save project", zap.String("op", "project_create"), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}

		zap.L().Info("project created", zap.String("op", "project_create"), zap.String("project", rec.Id))
		SetToast(e, "success", "Projet créé")
		if e.Request.Header.Get("HX-Request") == "true" {
			e.Response.Header().Set("HX-Redirect", "/projects/"+rec.Id+"/quotes")
		}
		return e.JSON(http.StatusCreated, projectFromRecord(app, rec))
	}
}

// HandleProjectUpdate applies the fields present in the body.
func HandleProjectUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := app.FindRecordById("projects", id)
		if err != nil {
			return fail(e, http.StatusNotFound, "Projet introuvable")
		}

		var req projectRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		if req.Name != nil {
			name := trimmed(req.Name)
			if name == "" {
				return fail(e, http.StatusBadRequest, "Le nom du projet est obligatoire")
			}
			rec.Set("name", name)
		}
		if req.Client != nil {
			rec.Set("client", trimmed(req.Client))
		}
		if req.Site != nil {
			rec.Set("site", trimmed(req.Site))
		}
		if req.Status != nil {
			status, ok := normalizeStatus(req.Status)
			if !ok {
				return fail(e, http.StatusBadRequest, "Statut de projet invalide")
			}
			rec.Set("status", status)
		}
		if err := app.Save(rec); err != nil {
			zap.L().Error("could not update project", zap.String("op", "project_update"), zap.String("project", id), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}

		SetToast(e, "success", "Projet mis à jour")
		return e.JSON(http.StatusOK, projectFromRecord(app, rec))
	}
}

// HandleProjectDelete deletes a project and, by cascade, all its quotes.
func HandleProjectDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := app.FindRecordById("projects", id)
		if err != nil {
			return fail(e, http.StatusNotFound, "Projet introuvable")
		}
		if err := app.Delete(rec); err != nil {
			zap.L().Error("could not delete project", zap.String("op", "project_delete"), zap.String("project", id), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}

		zap.L().Info("project deleted", zap.String("op", "project_delete"), zap.String("project", id))
		SetToast(e, "success", "Projet supprimé")
		if e.Request.Header.Get("HX-Request") == "true" {
			e.Response.Header().Set("HX-Redirect", "/projects")
		}
		return e.NoContent(http.StatusNoContent)
	}
}
