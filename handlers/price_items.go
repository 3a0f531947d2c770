package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/store"
	"windquote/templates"
)

// HandlePriceItemList returns the unit-price database filtered by ?q=,
// as JSON or as a page.
func HandlePriceItemList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		query := e.Request.URL.Query().Get("q")
		items, err := store.New(app).ListPriceItems(query)
		if err != nil {
			zap.L().Error("could not list price items", zap.String("op", "price_item_list"), zap.Error(err))
			return fail(e, http.StatusInternalServerError, msgInternal)
		}
		if wantsJSON(e.Request) {
			return e.JSON(http.StatusOK, items)
		}

		data := templates.PriceItemsData{Query: query, Items: items}
		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.PriceItemsContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.PriceItemsPage(data).Render(e.Request.Context(), e.Response)
	}
}

func priceItemFail(e *core.RequestEvent, op string, err error) error {
	if errors.Is(err, store.ErrDuplicateCode) {
		return fail(e, http.StatusConflict, "Ce code de prix existe déjà")
	}
	return storeFail(e, op, err, "Prix introuvable")
}

// HandlePriceItemCreate adds an entry to the unit-price database.
func HandlePriceItemCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req store.PriceItem
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		req.ID = ""
		req.Code = strings.TrimSpace(req.Code)
		req.Designation = strings.TrimSpace(req.Designation)
		if req.Code == "" || req.Designation == "" {
			return fail(e, http.StatusBadRequest, "Le code et la désignation sont obligatoires")
		}
		if req.UnitPrice < 0 {
			return fail(e, http.StatusBadRequest, "Le prix unitaire doit être positif")
		}

		item, err := store.New(app).CreatePriceItem(req)
		if err != nil {
			return priceItemFail(e, "price_item_create", err)
		}
		zap.L().Info("price item created", zap.String("op", "price_item_create"), zap.String("code", item.Code))
		SetToast(e, "success", "Prix ajouté")
		return e.JSON(http.StatusCreated, item)
	}
}

// HandlePriceItemUpdate edits a price item. Lines priced from it keep
// their unit price.
func HandlePriceItemUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")

		var req store.PriceItemUpdate
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		if req.Code != nil {
			c := strings.TrimSpace(*req.Code)
			if c == "" {
				return fail(e, http.StatusBadRequest, "Le code est obligatoire")
			}
			req.Code = &c
		}
		if req.UnitPrice != nil && *req.UnitPrice < 0 {
			return fail(e, http.StatusBadRequest, "Le prix unitaire doit être positif")
		}

		item, err := store.New(app).UpdatePriceItem(id, req)
		if err != nil {
			return priceItemFail(e, "price_item_update", err)
		}
		SetToast(e, "success", "Prix mis à jour")
		return e.JSON(http.StatusOK, item)
	}
}

// HandlePriceItemDelete removes a price item. Lines linked to it lose
// the link but keep their values.
func HandlePriceItemDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDelete(app, "price_items", "price_item_delete", "Prix introuvable", "Prix supprimé")
}
