package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/services"
	"windquote/store"
	"windquote/templates"
)

// HandleQuoteList returns the quotes of a project, newest version first.
func HandleQuoteList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return fail(e, http.StatusNotFound, "Projet introuvable")
		}
		quotes, err := store.New(app).ListQuotes(projectID)
		if err != nil {
			return storeFail(e, "quote_list", err, "Projet introuvable")
		}
		return e.JSON(http.StatusOK, quotes)
	}
}

type quoteRequest struct {
	Title string `json:"title" form:"title"`
}

// HandleQuoteCreate adds a quote with the next version number and an
// unconfigured calculator.
func HandleQuoteCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		var req quoteRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			return fail(e, http.StatusBadRequest, "Le titre du devis est obligatoire")
		}

		q, err := store.New(app).CreateQuote(projectID, title)
		if err != nil {
			return storeFail(e, "quote_create", err, "Projet introuvable")
		}

		zap.L().Info("quote created",
			zap.String("op", "quote_create"),
			zap.String("quote", q.ID),
			zap.Int("version", q.Version))
		SetToast(e, "success", "Devis créé")
		if e.Request.Header.Get("HX-Request") == "true" {
			e.Response.Header().Set("HX-Redirect", "/quotes/"+q.ID)
		}
		return e.JSON(http.StatusCreated, q)
	}
}

// HandleQuoteView renders the priced quote, or returns the summary as
// JSON.
func HandleQuoteView(app *pocketbase.PocketBase, currency string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		data, err := loadQuoteData(store.New(app), quoteID)
		if err != nil {
			return storeFail(e, "quote_view", err, "Devis introuvable")
		}

		if wantsJSON(e.Request) {
			return e.JSON(http.StatusOK, map[string]any{
				"quote":      data.Quote,
				"project":    data.ProjectName,
				"configured": data.Configured,
				"summary":    data.Summary,
			})
		}

		page := templates.QuoteSummaryData{
			ProjectID:   data.Quote.ProjectID,
			ProjectName: data.ProjectName,
			QuoteID:     data.Quote.ID,
			Title:       data.Quote.Title,
			Version:     data.Quote.Version,
			Status:      data.Quote.Status,
			Currency:    currency,
			Configured:  data.Configured,
			Summary:     data.Summary,
		}
		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.QuoteSummaryContent(page).Render(e.Request.Context(), e.Response)
		}
		return templates.QuoteSummaryPage(page).Render(e.Request.Context(), e.Response)
	}
}

// HandleQuoteDuplicate copies a quote into a new version.
func HandleQuoteDuplicate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		dup, err := store.New(app).DuplicateQuote(quoteID)
		if err != nil {
			return storeFail(e, "quote_duplicate", err, "Devis introuvable")
		}

		zap.L().Info("quote duplicated",
			zap.String("op", "quote_duplicate"),
			zap.String("from", quoteID),
			zap.String("quote", dup.ID),
			zap.Int("version", dup.Version))
		SetToast(e, "success", "Nouvelle version créée")
		if e.Request.Header.Get("HX-Request") == "true" {
			e.Response.Header().Set("HX-Redirect", "/quotes/"+dup.ID)
		}
		return e.JSON(http.StatusCreated, dup)
	}
}

// HandleQuoteDelete deletes a quote with its lots, sections and lines.
func HandleQuoteDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDelete(app, "quotes", "quote_delete", "Devis introuvable", "Devis supprimé")
}

// handleDelete removes the record named by the id path value; children
// go with it by cascade.
func handleDelete(app *pocketbase.PocketBase, collection, op, notFound, done string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if err := store.New(app).Delete(collection, id); err != nil {
			return storeFail(e, op, err, notFound)
		}
		zap.L().Info("record deleted", zap.String("op", op), zap.String("id", id))
		SetToast(e, "success", done)
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleQuoteExport generates the quote as csv, excel or pdf.
func HandleQuoteExport(app *pocketbase.PocketBase, opts services.ExportOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		format := e.Request.PathValue("format")

		type generator struct {
			generate    func(services.ExportData) ([]byte, error)
			contentType string
			ext         string
		}
		generators := map[string]generator{
			"csv":   {services.GenerateCSV, "text/csv; charset=utf-8", "csv"},
			"excel": {services.GenerateExcel, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
			"pdf":   {services.GeneratePDF, "application/pdf", "pdf"},
		}
		gen, ok := generators[format]
		if !ok {
			return fail(e, http.StatusBadRequest, "Format d'export inconnu")
		}

		data, err := loadQuoteData(store.New(app), quoteID)
		if err != nil {
			return storeFail(e, "quote_export", err, "Devis introuvable")
		}

		out, err := gen.generate(data.exportData(opts))
		if err != nil {
			zap.L().Error("failed to generate export",
				zap.String("op", "quote_export"),
				zap.String("format", format),
				zap.String("quote", quoteID),
				zap.Error(err))
			return fail(e, http.StatusInternalServerError, "Échec de la génération du fichier")
		}

		filename := fmt.Sprintf("Devis_%s_v%d.%s", sanitizeFilename(data.Quote.Title), data.Quote.Version, gen.ext)
		e.Response.Header().Set("Content-Type", gen.contentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		_, err = e.Response.Write(out)
		return err
	}
}
