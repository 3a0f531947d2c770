package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/services"
	"windquote/store"
)

const maxUploadSize = 10 << 20

// readUpload parses the "file" field of a multipart upload.
func readUpload(e *core.RequestEvent) (string, []string, [][]string, error) {
	if err := e.Request.ParseMultipartForm(maxUploadSize); err != nil {
		return "", nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return "", nil, nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	headers, rows, err := services.ParseUpload(header.Filename, file)
	if err != nil {
		return header.Filename, nil, nil, err
	}
	return header.Filename, headers, rows, nil
}

// uploadFail answers an unreadable upload.
func uploadFail(e *core.RequestEvent, op string, err error) error {
	zap.L().Info("upload rejected", zap.String("op", op), zap.Error(err))
	if errors.Is(err, services.ErrUnsupportedFormat) {
		return fail(e, http.StatusBadRequest, "Format non supporté : fichier .csv ou .xlsx attendu")
	}
	return fail(e, http.StatusBadRequest, "Fichier illisible")
}

// rejectImport answers an import with row errors. Nothing is imported.
// With ?report=xlsx the errors come back as a spreadsheet.
func rejectImport(e *core.RequestEvent, op string, result services.ValidationResult) error {
	zap.L().Info("import rejected",
		zap.String("op", op),
		zap.String("file", result.FileName),
		zap.Int("error_rows", result.ErrorRows),
		zap.Int("total_rows", result.TotalRows))

	if e.Request.URL.Query().Get("report") == "xlsx" {
		xlsxBytes, err := services.GenerateErrorReport(result.Errors)
		if err != nil {
			zap.L().Error("failed to generate error report", zap.String("op", op), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}
		filename := fmt.Sprintf("Erreurs_import_%s.xlsx", time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.WriteHeader(http.StatusUnprocessableEntity)
		_, err = e.Response.Write(xlsxBytes)
		return err
	}

	return ErrorJSON(e, http.StatusUnprocessableEntity,
		fmt.Sprintf("%d ligne(s) en erreur, rien n'a été importé", result.ErrorRows),
		map[string]any{"result": result})
}

// HandleLineImport appends the lines of a CSV or XLSX file to a section.
// Quantity cells may hold references and formulas; they are committed
// against the quote's catalog.
func HandleLineImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sectionID := e.Request.PathValue("id")
		s := store.New(app)

		cat, err := catalogOf(s, s.QuoteOfSection, sectionID)
		if err != nil {
			return storeFail(e, "line_import", err, "Section introuvable")
		}
		priceIDs, err := s.PriceItemIDsByCode()
		if err != nil {
			return storeFail(e, "line_import", err, "Section introuvable")
		}

		fileName, headers, rows, err := readUpload(e)
		if err != nil {
			return uploadFail(e, "line_import", err)
		}

		result := services.ValidateLineImport(fileName, headers, rows, cat, priceIDs)
		if len(result.Errors) > 0 {
			return rejectImport(e, "line_import", result.ValidationResult)
		}

		n, err := s.ImportLines(sectionID, result.Lines)
		if err != nil {
			return storeFail(e, "line_import", err, "Section introuvable")
		}
		zap.L().Info("lines imported",
			zap.String("op", "line_import"),
			zap.String("section", sectionID),
			zap.String("file", fileName),
			zap.Int("count", n))
		SetToast(e, "success", fmt.Sprintf("%d ligne(s) importée(s)", n))
		return e.JSON(http.StatusOK, map[string]any{"imported": n, "result": result.ValidationResult})
	}
}

// HandlePriceItemImport upserts the unit-price database from a CSV or
// XLSX file, matching on code.
func HandlePriceItemImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		fileName, headers, rows, err := readUpload(e)
		if err != nil {
			return uploadFail(e, "price_item_import", err)
		}

		result := services.ValidatePriceItemImport(fileName, headers, rows)
		if len(result.Errors) > 0 {
			return rejectImport(e, "price_item_import", result.ValidationResult)
		}

		created, updated, err := store.New(app).ImportPriceItems(result.Items)
		if err != nil {
			zap.L().Error("price item import failed", zap.String("op", "price_item_import"), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}
		zap.L().Info("price items imported",
			zap.String("op", "price_item_import"),
			zap.String("file", fileName),
			zap.Int("created", created),
			zap.Int("updated", updated))
		SetToast(e, "success", fmt.Sprintf("%d prix créé(s), %d mis à jour", created, updated))
		return e.JSON(http.StatusOK, map[string]any{
			"created": created,
			"updated": updated,
			"result":  result.ValidationResult,
		})
	}
}
