package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/calculator"
	"windquote/quantity"
	"windquote/store"
	"windquote/templates"
)

// calculatorState is the calculator as the editor sees it: the input,
// the derived foundation metrics and the resulting catalog.
type calculatorState struct {
	Configured      bool                          `json:"configured"`
	Input           calculator.EngineeringInput   `json:"input"`
	Foundation      *calculator.FoundationMetrics `json:"foundation"`
	Variables       calculator.Catalog            `json:"variables"`
	Unreferenceable []string                      `json:"unreferenceable,omitempty"`
	DuplicateNames  []string                      `json:"duplicate_names,omitempty"`
}

func newCalculatorState(in *calculator.EngineeringInput) calculatorState {
	st := calculatorState{Configured: in != nil}
	if in == nil {
		st.Input = calculator.EngineeringInput{Design: calculator.DefaultDesign()}
	} else {
		st.Input = *in
		st.DuplicateNames = calculator.DuplicateEntityNames(in)
	}
	if m, ok := calculator.ComputeFoundation(st.Input.Design); ok {
		st.Foundation = &m
	}
	st.Variables = calculator.BuildCatalog(in)
	st.Unreferenceable = st.Variables.Unreferenceable()
	return st
}

// HandleCalculatorGet returns the engineering input of a quote. An
// unconfigured quote gets the default design and an empty catalog.
func HandleCalculatorGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		in, err := store.New(app).LoadEngineeringInput(e.Request.PathValue("id"))
		if err != nil {
			return storeFail(e, "calculator_get", err, "Devis introuvable")
		}
		return e.JSON(http.StatusOK, newCalculatorState(in))
	}
}

// saveInput validates and persists in, logging what the new catalog
// cannot offer to formulas.
func saveInput(e *core.RequestEvent, s *store.Store, quoteID, op string, in calculator.EngineeringInput, slopePolicy calculator.ParsePolicy) error {
	if err := calculator.ValidateDesign(in.Design, slopePolicy); err != nil {
		return ErrorJSON(e, http.StatusUnprocessableEntity, "Paramètres de fondation invalides", map[string]any{
			"detail": err.Error(),
		})
	}
	if err := s.SaveEngineeringInput(quoteID, in); err != nil {
		return storeFail(e, op, err, "Devis introuvable")
	}

	st := newCalculatorState(&in)
	if len(st.Unreferenceable) > 0 {
		zap.L().Warn("variables cannot be referenced from formulas",
			zap.String("op", op),
			zap.String("quote", quoteID),
			zap.Strings("names", st.Unreferenceable))
	}
	if len(st.DuplicateNames) > 0 {
		zap.L().Warn("duplicate entity names shadow variables",
			zap.String("op", op),
			zap.String("quote", quoteID),
			zap.Strings("names", st.DuplicateNames))
	}
	zap.L().Info("engineering input saved",
		zap.String("op", op),
		zap.String("quote", quoteID),
		zap.Int("variables", st.Variables.Len()))
	return e.JSON(http.StatusOK, st)
}

// HandleCalculatorPut replaces the engineering input of a quote.
func HandleCalculatorPut(app *pocketbase.PocketBase, slopePolicy calculator.ParsePolicy) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		s := store.New(app)
		if _, err := s.LoadQuote(quoteID); err != nil {
			return storeFail(e, "calculator_put", err, "Devis introuvable")
		}

		var in calculator.EngineeringInput
		if err := json.NewDecoder(e.Request.Body).Decode(&in); err != nil {
			return fail(e, http.StatusBadRequest, "Données du calculateur invalides")
		}
		return saveInput(e, s, quoteID, "calculator_put", in, slopePolicy)
	}
}

// HandleCalculatorEdit applies a single edit to the engineering input.
// The first edit of an unconfigured quote starts from the default design.
func HandleCalculatorEdit(app *pocketbase.PocketBase, slopePolicy calculator.ParsePolicy) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		s := store.New(app)
		current, err := s.LoadEngineeringInput(quoteID)
		if err != nil {
			return storeFail(e, "calculator_edit", err, "Devis introuvable")
		}
		if current == nil {
			current = &calculator.EngineeringInput{Design: calculator.DefaultDesign()}
		}

		body, err := io.ReadAll(e.Request.Body)
		if err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		edit, err := calculator.DecodeEdit(body)
		if err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Modification invalide", map[string]any{"detail": err.Error()})
		}

		next, err := calculator.Apply(*current, edit)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, calculator.ErrIndexOutOfRange) {
				status = http.StatusUnprocessableEntity
			}
			return ErrorJSON(e, status, "Modification impossible", map[string]any{"detail": err.Error()})
		}
		return saveInput(e, s, quoteID, "calculator_edit", next, slopePolicy)
	}
}

// HandleVariables returns the variable catalog of a quote as JSON, or
// renders it grouped by category.
func HandleVariables(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		s := store.New(app)
		q, err := s.LoadQuote(quoteID)
		if err != nil {
			return storeFail(e, "variables", err, "Devis introuvable")
		}
		cat, err := s.Catalog(quoteID)
		if err != nil {
			return storeFail(e, "variables", err, "Devis introuvable")
		}

		bad := cat.Unreferenceable()
		if len(bad) > 0 {
			zap.L().Debug("catalog has unreferenceable names",
				zap.String("op", "variables"),
				zap.String("quote", quoteID),
				zap.Strings("names", bad))
		}

		if wantsJSON(e.Request) {
			return e.JSON(http.StatusOK, cat)
		}
		data := templates.VariablesData{
			QuoteID:         q.ID,
			Title:           q.Title,
			Groups:          cat.Grouped(),
			Unreferenceable: bad,
		}
		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.VariablesContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.VariablesPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleVariableSuggest completes the $token under the cursor of a
// quantity cell. cursor is a rune offset and defaults to the end of text.
func HandleVariableSuggest(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		text := e.Request.URL.Query().Get("text")
		cursor := len([]rune(text))
		if raw := e.Request.URL.Query().Get("cursor"); raw != "" {
			c, err := strconv.Atoi(raw)
			if err != nil {
				return fail(e, http.StatusBadRequest, "Position du curseur invalide")
			}
			cursor = c
		}

		cat, err := store.New(app).Catalog(quoteID)
		if err != nil {
			return storeFail(e, "variable_suggest", err, "Devis introuvable")
		}

		s, ok := quantity.Suggest(text, cursor, cat)
		if !ok {
			return e.JSON(http.StatusOK, map[string]any{"active": false})
		}
		if s.Variables == nil {
			s.Variables = []calculator.Variable{}
		}
		return e.JSON(http.StatusOK, map[string]any{"active": true, "suggestion": s})
	}
}

type classifyRequest struct {
	Text string `json:"text" form:"text"`
}

// HandleFormulaClassify tells the editor how raw cell text would be
// interpreted.
func HandleFormulaClassify() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req classifyRequest
		if err := e.BindBody(&req); err != nil {
			return fail(e, http.StatusBadRequest, "Données invalides")
		}
		return e.JSON(http.StatusOK, quantity.Classify(req.Text))
	}
}
