package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/store"
)

type lotRequest struct {
	Code string `json:"code" form:"code"`
	Name string `json:"name" form:"name"`
}

// HandleLotCreate appends a lot to a quote.
func HandleLotCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")

		var req lotRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return fail(e, http.StatusBadRequest, "Le nom du lot est obligatoire")
		}

		lot, err := store.New(app).CreateLot(quoteID, strings.TrimSpace(req.Code), name)
		if err != nil {
			return storeFail(e, "lot_create", err, "Devis introuvable")
		}
		zap.L().Info("lot created", zap.String("op", "lot_create"), zap.String("quote", quoteID), zap.String("lot", lot.ID))
		SetToast(e, "success", "Lot ajouté")
		return e.JSON(http.StatusCreated, lot)
	}
}

func HandleLotDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDelete(app, "lots", "lot_delete", "Lot introuvable", "Lot supprimé")
}

type sectionRequest struct {
	Name       string  `json:"name" form:"name"`
	Multiplier float64 `json:"multiplier" form:"multiplier"`
}

// HandleSectionCreate appends a section to a lot. A missing or zero
// multiplier means 1.
func HandleSectionCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		lotID := e.Request.PathValue("id")

		var req sectionRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return fail(e, http.StatusBadRequest, "Le nom de la section est obligatoire")
		}
		if req.Multiplier < 0 {
			return fail(e, http.StatusBadRequest, "Le multiplicateur doit être positif")
		}

		sec, err := store.New(app).CreateSection(lotID, name, req.Multiplier)
		if err != nil {
			return storeFail(e, "section_create", err, "Lot introuvable")
		}
		zap.L().Info("section created", zap.String("op", "section_create"), zap.String("lot", lotID), zap.String("section", sec.ID))
		SetToast(e, "success", "Section ajoutée")
		return e.JSON(http.StatusCreated, sec)
	}
}

func HandleSectionDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDelete(app, "sections", "section_delete", "Section introuvable", "Section supprimée")
}
