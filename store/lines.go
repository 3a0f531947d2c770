package store

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"windquote/quantity"
)

// Line is a billed line with its quantity variant and pricing fields.
type Line struct {
	ID          string
	SectionID   string
	SortOrder   int
	Designation string
	Unit        string
	Quantity    quantity.Quantity
	UnitPrice   float64
	PriceItemID string
}

// Section groups lines inside a lot; its total is multiplied by Multiplier.
type Section struct {
	ID         string  `json:"id"`
	LotID      string  `json:"lot"`
	SortOrder  int     `json:"sort_order"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Lines      []Line  `json:"-"`
}

// Lot is a top-level division of a quote.
type Lot struct {
	ID        string    `json:"id"`
	QuoteID   string    `json:"quote"`
	SortOrder int       `json:"sort_order"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Sections  []Section `json:"-"`
}

func lineFromRecord(rec *core.Record) Line {
	return Line{
		ID:          rec.Id,
		SectionID:   rec.GetString("section"),
		SortOrder:   rec.GetInt("sort_order"),
		Designation: rec.GetString("designation"),
		Unit:        rec.GetString("unit"),
		Quantity: quantity.FromStored(
			rec.GetFloat("quantity"),
			rec.GetString("variable_ref"),
			rec.GetString("formula"),
		),
		UnitPrice:   rec.GetFloat("unit_price"),
		PriceItemID: rec.GetString("price_item"),
	}
}

func sectionFromRecord(rec *core.Record) Section {
	m := rec.GetFloat("multiplier")
	if m == 0 {
		m = 1
	}
	return Section{
		ID:         rec.Id,
		LotID:      rec.GetString("lot"),
		SortOrder:  rec.GetInt("sort_order"),
		Name:       rec.GetString("name"),
		Multiplier: m,
	}
}

// LoadLine returns one billed line.
func (s *Store) LoadLine(lineID string) (Line, error) {
	rec, err := s.find("lines", lineID)
	if err != nil {
		return Line{}, err
	}
	return lineFromRecord(rec), nil
}

// LoadSectionLines returns the lines of a section in sort order.
func (s *Store) LoadSectionLines(sectionID string) ([]Line, error) {
	recs, err := s.app.FindRecordsByFilter(
		"lines",
		"section = {:sectionId}",
		"sort_order",
		0, 0,
		map[string]any{"sectionId": sectionID},
	)
	if err != nil {
		return nil, fmt.Errorf("load lines of section %q: %w", sectionID, err)
	}
	lines := make([]Line, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, lineFromRecord(r))
	}
	return lines, nil
}

// LoadSections returns the sections of a lot with their lines.
func (s *Store) LoadSections(lotID string) ([]Section, error) {
	recs, err := s.app.FindRecordsByFilter(
		"sections",
		"lot = {:lotId}",
		"sort_order",
		0, 0,
		map[string]any{"lotId": lotID},
	)
	if err != nil {
		return nil, fmt.Errorf("load sections of lot %q: %w", lotID, err)
	}
	sections := make([]Section, 0, len(recs))
	for _, r := range recs {
		sec := sectionFromRecord(r)
		sec.Lines, err = s.LoadSectionLines(sec.ID)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// LoadLines returns every billed line of a lot, section by section.
func (s *Store) LoadLines(lotID string) ([]Line, error) {
	if _, err := s.find("lots", lotID); err != nil {
		return nil, err
	}
	sections, err := s.LoadSections(lotID)
	if err != nil {
		return nil, err
	}
	var lines []Line
	for _, sec := range sections {
		lines = append(lines, sec.Lines...)
	}
	return lines, nil
}

// LoadLots returns the full lot, section and line tree of a quote.
func (s *Store) LoadLots(quoteID string) ([]Lot, error) {
	recs, err := s.app.FindRecordsByFilter(
		"lots",
		"quote = {:quoteId}",
		"sort_order",
		0, 0,
		map[string]any{"quoteId": quoteID},
	)
	if err != nil {
		return nil, fmt.Errorf("load lots of quote %q: %w", quoteID, err)
	}
	lots := make([]Lot, 0, len(recs))
	for _, r := range recs {
		lot := Lot{
			ID:        r.Id,
			QuoteID:   quoteID,
			SortOrder: r.GetInt("sort_order"),
			Code:      r.GetString("code"),
			Name:      r.GetString("name"),
		}
		lot.Sections, err = s.LoadSections(lot.ID)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// LineUpdate is a partial update of a billed line. Nil fields are left
// untouched. Setting Quantity writes all three quantity columns at once,
// so a line never ends up with both a reference and a formula.
type LineUpdate struct {
	Designation *string
	Unit        *string
	UnitPrice   *float64
	Quantity    *quantity.Quantity
	PriceItemID *string
}

// UpdateLine applies u to a billed line.
func (s *Store) UpdateLine(lineID string, u LineUpdate) error {
	rec, err := s.find("lines", lineID)
	if err != nil {
		return err
	}
	if u.Designation != nil {
		rec.Set("designation", *u.Designation)
	}
	if u.Unit != nil {
		rec.Set("unit", *u.Unit)
	}
	if u.UnitPrice != nil {
		rec.Set("unit_price", *u.UnitPrice)
	}
	if u.PriceItemID != nil {
		rec.Set("price_item", *u.PriceItemID)
	}
	if u.Quantity != nil {
		literal, ref, expr := u.Quantity.Stored()
		rec.Set("quantity", literal)
		rec.Set("variable_ref", ref)
		rec.Set("formula", expr)
	}
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("update line %q: %w", lineID, err)
	}
	return nil
}

// NewLine is a line to be created in a section.
type NewLine struct {
	Designation string
	Unit        string
	Quantity    quantity.Quantity
	UnitPrice   float64
	PriceItemID string
}

// CreateLine appends a line at the end of a section.
func (s *Store) CreateLine(sectionID string, nl NewLine) (Line, error) {
	if _, err := s.find("sections", sectionID); err != nil {
		return Line{}, err
	}
	col, err := s.app.FindCollectionByNameOrId("lines")
	if err != nil {
		return Line{}, fmt.Errorf("find lines collection: %w", err)
	}
	next, err := s.nextSortOrder("lines", "section", sectionID)
	if err != nil {
		return Line{}, err
	}

	literal, ref, expr := nl.Quantity.Stored()
	rec := core.NewRecord(col)
	rec.Set("section", sectionID)
	rec.Set("sort_order", next)
	rec.Set("designation", nl.Designation)
	rec.Set("unit", nl.Unit)
	rec.Set("quantity", literal)
	rec.Set("unit_price", nl.UnitPrice)
	rec.Set("variable_ref", ref)
	rec.Set("formula", expr)
	if nl.PriceItemID != "" {
		rec.Set("price_item", nl.PriceItemID)
	}
	if err := s.app.Save(rec); err != nil {
		return Line{}, fmt.Errorf("create line in section %q: %w", sectionID, err)
	}
	return lineFromRecord(rec), nil
}

// ImportLines appends lines to a section in one transaction.
func (s *Store) ImportLines(sectionID string, lines []NewLine) (int, error) {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		tx := New(txApp)
		for _, nl := range lines {
			if _, err := tx.CreateLine(sectionID, nl); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import lines into section %q: %w", sectionID, err)
	}
	return len(lines), nil
}

func (s *Store) nextSortOrder(collection, parentField, parentID string) (int, error) {
	recs, err := s.app.FindRecordsByFilter(
		collection,
		parentField+" = {:parent}",
		"-sort_order",
		1, 0,
		map[string]any{"parent": parentID},
	)
	if err != nil {
		return 0, fmt.Errorf("find last %s: %w", collection, err)
	}
	if len(recs) == 0 {
		return 1, nil
	}
	return recs[0].GetInt("sort_order") + 1, nil
}

// QuoteOfSection walks section -> lot -> quote.
func (s *Store) QuoteOfSection(sectionID string) (string, error) {
	sec, err := s.find("sections", sectionID)
	if err != nil {
		return "", err
	}
	return s.QuoteOfLot(sec.GetString("lot"))
}

// QuoteOfLot returns the quote a lot belongs to.
func (s *Store) QuoteOfLot(lotID string) (string, error) {
	lot, err := s.find("lots", lotID)
	if err != nil {
		return "", err
	}
	return lot.GetString("quote"), nil
}

// QuoteOfLine walks line -> section -> lot -> quote.
func (s *Store) QuoteOfLine(lineID string) (string, error) {
	line, err := s.find("lines", lineID)
	if err != nil {
		return "", err
	}
	return s.QuoteOfSection(line.GetString("section"))
}
