package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/calculator"
	"windquote/quantity"
	"windquote/services"
	"windquote/store"
)

// HandleLineList returns the billed lines of a lot with their quantities
// resolved against the quote's catalog.
func HandleLineList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		lotID := e.Request.PathValue("id")
		s := store.New(app)

		lines, err := s.LoadLines(lotID)
		if err != nil {
			return storeFail(e, "line_list", err, "Lot introuvable")
		}
		cat, err := catalogOf(s, s.QuoteOfLot, lotID)
		if err != nil {
			return storeFail(e, "line_list", err, "Lot introuvable")
		}

		out := make([]services.LineSummary, 0, len(lines))
		for _, l := range lines {
			out = append(out, services.SummarizeLine(l, cat))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// catalogOf builds the catalog of the quote that id belongs to.
func catalogOf(s *store.Store, quoteOf func(string) (string, error), id string) (calculator.Catalog, error) {
	quoteID, err := quoteOf(id)
	if err != nil {
		return calculator.Catalog{}, err
	}
	return s.Catalog(quoteID)
}

// rejectQuantity answers a refused quantity edit. The typed text is sent
// back so the editor can keep it in the cell.
func rejectQuantity(e *core.RequestEvent, op string, rej *quantity.Rejection, current *services.LineSummary) error {
	var msg string
	switch {
	case errors.Is(rej, quantity.ErrVariableNotFound):
		msg = "Variable inconnue : " + rej.Text
	case errors.Is(rej, quantity.ErrInvalidFormula):
		msg = "Formule invalide : " + rej.Text
	default:
		msg = "Nombre invalide : " + rej.Text
	}
	zap.L().Info("quantity edit rejected", zap.String("op", op), zap.String("text", rej.Text), zap.Error(rej))

	body := map[string]any{"text": rej.Text, "reason": rej.Reason.Error()}
	if current != nil {
		body["line"] = current
	}
	return ErrorJSON(e, http.StatusUnprocessableEntity, msg, body)
}

type lineRequest struct {
	Designation *string  `json:"designation" form:"designation"`
	Unit        *string  `json:"unit" form:"unit"`
	Quantity    string   `json:"quantity" form:"quantity"`
	UnitPrice   *float64 `json:"unit_price" form:"unit_price"`
	PriceItem   string   `json:"price_item" form:"price_item"`
}

// HandleLineCreate appends a line to a section. When a price item is
// given, its designation, unit and unit price fill the fields left out.
func HandleLineCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sectionID := e.Request.PathValue("id")
		s := store.New(app)

		var req lineRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}

		if req.UnitPrice != nil && *req.UnitPrice < 0 {
			return fail(e, http.StatusBadRequest, "Le prix unitaire doit être positif")
		}
		nl := store.NewLine{Designation: trimmed(req.Designation), Unit: trimmed(req.Unit)}
		if req.UnitPrice != nil {
			nl.UnitPrice = *req.UnitPrice
		}
		if id := strings.TrimSpace(req.PriceItem); id != "" {
			item, err := s.LoadPriceItem(id)
			if err != nil {
				return storeFail(e, "line_create", err, "Prix introuvable")
			}
			nl.PriceItemID = item.ID
			if nl.Designation == "" {
				nl.Designation = item.Designation
			}
			if nl.Unit == "" {
				nl.Unit = item.Unit
			}
			if req.UnitPrice == nil {
				nl.UnitPrice = item.UnitPrice
			}
		}
		if nl.Designation == "" {
			return fail(e, http.StatusBadRequest, "La désignation est obligatoire")
		}

		cat, err := catalogOf(s, s.QuoteOfSection, sectionID)
		if err != nil {
			return storeFail(e, "line_create", err, "Section introuvable")
		}
		q, err := quantity.Commit(req.Quantity, quantity.Literal(0), cat)
		if err != nil {
			var rej *quantity.Rejection
			if errors.As(err, &rej) {
				return rejectQuantity(e, "line_create", rej, nil)
			}
			return fail(e, http.StatusBadRequest, "Quantité invalide")
		}
		nl.Quantity = q

		line, err := s.CreateLine(sectionID, nl)
		if err != nil {
			return storeFail(e, "line_create", err, "Section introuvable")
		}
		zap.L().Info("line created",
			zap.String("op", "line_create"),
			zap.String("section", sectionID),
			zap.String("line", line.ID),
			zap.Stringer("kind", line.Quantity.Kind))
		SetToast(e, "success", "Ligne ajoutée")
		return e.JSON(http.StatusCreated, services.SummarizeLine(line, cat))
	}
}

type lineUpdateRequest struct {
	Designation *string  `json:"designation" form:"designation"`
	Unit        *string  `json:"unit" form:"unit"`
	UnitPrice   *float64 `json:"unit_price" form:"unit_price"`
}

// HandleLineUpdate edits the text and price fields of a line. Quantities
// go through HandleLineQuantity.
func HandleLineUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		lineID := e.Request.PathValue("id")
		s := store.New(app)

		var req lineUpdateRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		u := store.LineUpdate{Unit: req.Unit, UnitPrice: req.UnitPrice}
		if req.Designation != nil {
			d := strings.TrimSpace(*req.Designation)
			if d == "" {
				return fail(e, http.StatusBadRequest, "La désignation est obligatoire")
			}
			u.Designation = &d
		}
		if req.UnitPrice != nil && *req.UnitPrice < 0 {
			return fail(e, http.StatusBadRequest, "Le prix unitaire doit être positif")
		}

		if err := s.UpdateLine(lineID, u); err != nil {
			return storeFail(e, "line_update", err, "Ligne introuvable")
		}
		return respondLine(e, s, "line_update", lineID)
	}
}

func respondLine(e *core.RequestEvent, s *store.Store, op, lineID string) error {
	line, err := s.LoadLine(lineID)
	if err != nil {
		return storeFail(e, op, err, "Ligne introuvable")
	}
	cat, err := catalogOf(s, s.QuoteOfLine, lineID)
	if err != nil {
		return storeFail(e, op, err, "Ligne introuvable")
	}
	return e.JSON(http.StatusOK, services.SummarizeLine(line, cat))
}

type quantityRequest struct {
	Text string `json:"text" form:"text"`
}

// HandleLineQuantity commits text typed into a quantity cell. A rejected
// edit leaves the line untouched and answers 422 with the typed text.
func HandleLineQuantity(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		lineID := e.Request.PathValue("id")
		s := store.New(app)

		var req quantityRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}

		line, err := s.LoadLine(lineID)
		if err != nil {
			return storeFail(e, "line_quantity", err, "Ligne introuvable")
		}
		cat, err := catalogOf(s, s.QuoteOfLine, lineID)
		if err != nil {
			return storeFail(e, "line_quantity", err, "Ligne introuvable")
		}

		q, err := quantity.Commit(req.Text, line.Quantity, cat)
		if err != nil {
			var rej *quantity.Rejection
			if errors.As(err, &rej) {
				current := services.SummarizeLine(line, cat)
				return rejectQuantity(e, "line_quantity", rej, &current)
			}
			return fail(e, http.StatusBadRequest, "Quantité invalide")
		}

		if err := s.UpdateLine(lineID, store.LineUpdate{Quantity: &q}); err != nil {
			return storeFail(e, "line_quantity", err, "Ligne introuvable")
		}
		zap.L().Debug("quantity committed",
			zap.String("op", "line_quantity"),
			zap.String("line", lineID),
			zap.Stringer("kind", q.Kind),
			zap.Float64("literal", q.Literal))

		line.Quantity = q
		return e.JSON(http.StatusOK, services.SummarizeLine(line, cat))
	}
}

func HandleLineDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDelete(app, "lines", "line_delete", "Ligne introuvable", "Ligne supprimée")
}
