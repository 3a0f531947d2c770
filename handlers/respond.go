package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/store"
)

const msgInternal = "Une erreur est survenue. Veuillez réessayer."

// wantsJSON reports whether the client asked for JSON rather than a page.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// fail sends an error toast, as JSON when the client wants JSON.
func fail(e *core.RequestEvent, status int, message string) error {
	if wantsJSON(e.Request) {
		return ErrorJSON(e, status, message, nil)
	}
	return ErrorToast(e, status, message)
}

// storeFail maps a store error to 404 or 500, logging the unexpected ones.
func storeFail(e *core.RequestEvent, op string, err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Debug("record not found", zap.String("op", op), zap.Error(err))
		return fail(e, http.StatusNotFound, notFound)
	}
	zap.L().Error("store operation failed", zap.String("op", op), zap.Error(err))
	return fail(e, http.StatusInternalServerError, msgInternal)
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	return strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-", `"`, "").Replace(s)
}
