// Package store maps quotes, lots, sections and billed lines between
// PocketBase records and the calculator and quantity types.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"windquote/calculator"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store reads and writes through a PocketBase app. It accepts the
// transactional app passed to RunInTransaction as well.
type Store struct {
	app core.App
}

func New(app core.App) *Store {
	return &Store{app: app}
}

func (s *Store) App() core.App {
	return s.app
}

func (s *Store) find(collection, id string) (*core.Record, error) {
	rec, err := s.app.FindRecordById(collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %q: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("find %s %q: %w", collection, id, err)
	}
	return rec, nil
}

// LoadEngineeringInput returns the calculator state of a quote, or nil when
// the calculator has never been configured.
func (s *Store) LoadEngineeringInput(quoteID string) (*calculator.EngineeringInput, error) {
	rec, err := s.find("quotes", quoteID)
	if err != nil {
		return nil, err
	}
	return decodeSettings(rec)
}

func decodeSettings(rec *core.Record) (*calculator.EngineeringInput, error) {
	raw := strings.TrimSpace(rec.GetString("settings"))
	if raw == "" || raw == "null" || raw == "{}" {
		return nil, nil
	}
	var in calculator.EngineeringInput
	if err := rec.UnmarshalJSONField("settings", &in); err != nil {
		return nil, fmt.Errorf("decode settings of quote %q: %w", rec.Id, err)
	}
	return &in, nil
}

// SaveEngineeringInput replaces the calculator state of a quote.
func (s *Store) SaveEngineeringInput(quoteID string, in calculator.EngineeringInput) error {
	rec, err := s.find("quotes", quoteID)
	if err != nil {
		return err
	}
	rec.Set("settings", in)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save settings of quote %q: %w", quoteID, err)
	}
	return nil
}

// Catalog builds the variable catalog of a quote from its stored input.
// An unconfigured quote yields an empty catalog.
func (s *Store) Catalog(quoteID string) (calculator.Catalog, error) {
	in, err := s.LoadEngineeringInput(quoteID)
	if err != nil {
		return calculator.Catalog{}, err
	}
	return calculator.BuildCatalog(in), nil
}
