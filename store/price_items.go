package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// ErrDuplicateCode is returned when a price item code is already taken.
var ErrDuplicateCode = errors.New("price item code already exists")

// PriceItem is an entry of the unit-price database.
type PriceItem struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Designation string  `json:"designation"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Category    string  `json:"category"`
}

func priceItemFromRecord(rec *core.Record) PriceItem {
	return PriceItem{
		ID:          rec.Id,
		Code:        rec.GetString("code"),
		Designation: rec.GetString("designation"),
		Unit:        rec.GetString("unit"),
		UnitPrice:   rec.GetFloat("unit_price"),
		Category:    rec.GetString("category"),
	}
}

func setPriceItem(rec *core.Record, p PriceItem) {
	rec.Set("code", p.Code)
	rec.Set("designation", p.Designation)
	rec.Set("unit", p.Unit)
	rec.Set("unit_price", p.UnitPrice)
	rec.Set("category", p.Category)
}

// ListPriceItems returns price items ordered by code. A non-empty query
// keeps the items whose code, designation or category contains it.
func (s *Store) ListPriceItems(query string) ([]PriceItem, error) {
	filter := ""
	params := map[string]any{}
	if q := strings.TrimSpace(query); q != "" {
		filter = "code ~ {:q} || designation ~ {:q} || category ~ {:q}"
		params["q"] = q
	}
	recs, err := s.app.FindRecordsByFilter("price_items", filter, "code", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("list price items: %w", err)
	}
	items := make([]PriceItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, priceItemFromRecord(r))
	}
	return items, nil
}

func (s *Store) LoadPriceItem(id string) (PriceItem, error) {
	rec, err := s.find("price_items", id)
	if err != nil {
		return PriceItem{}, err
	}
	return priceItemFromRecord(rec), nil
}

func (s *Store) findPriceItemByCode(code string) (*core.Record, error) {
	recs, err := s.app.FindRecordsByFilter(
		"price_items",
		"code = {:code}",
		"", 1, 0,
		map[string]any{"code": code},
	)
	if err != nil {
		return nil, fmt.Errorf("find price item %q: %w", code, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// CreatePriceItem adds a price item. Codes are unique.
func (s *Store) CreatePriceItem(p PriceItem) (PriceItem, error) {
	existing, err := s.findPriceItemByCode(p.Code)
	if err != nil {
		return PriceItem{}, err
	}
	if existing != nil {
		return PriceItem{}, fmt.Errorf("%q: %w", p.Code, ErrDuplicateCode)
	}
	col, err := s.app.FindCollectionByNameOrId("price_items")
	if err != nil {
		return PriceItem{}, fmt.Errorf("find price_items collection: %w", err)
	}
	rec := core.NewRecord(col)
	setPriceItem(rec, p)
	if err := s.app.Save(rec); err != nil {
		return PriceItem{}, fmt.Errorf("create price item %q: %w", p.Code, err)
	}
	return priceItemFromRecord(rec), nil
}

// PriceItemUpdate is a partial update; nil fields are left untouched.
type PriceItemUpdate struct {
	Code        *string  `json:"code"`
	Designation *string  `json:"designation"`
	Unit        *string  `json:"unit"`
	UnitPrice   *float64 `json:"unit_price"`
	Category    *string  `json:"category"`
}

// UpdatePriceItem changes a price item. Lines already priced from it keep
// their own unit price.
func (s *Store) UpdatePriceItem(id string, u PriceItemUpdate) (PriceItem, error) {
	rec, err := s.find("price_items", id)
	if err != nil {
		return PriceItem{}, err
	}
	p := priceItemFromRecord(rec)
	if u.Code != nil && *u.Code != p.Code {
		other, err := s.findPriceItemByCode(*u.Code)
		if err != nil {
			return PriceItem{}, err
		}
		if other != nil {
			return PriceItem{}, fmt.Errorf("%q: %w", *u.Code, ErrDuplicateCode)
		}
		p.Code = *u.Code
	}
	if u.Designation != nil {
		p.Designation = *u.Designation
	}
	if u.Unit != nil {
		p.Unit = *u.Unit
	}
	if u.UnitPrice != nil {
		p.UnitPrice = *u.UnitPrice
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	setPriceItem(rec, p)
	if err := s.app.Save(rec); err != nil {
		return PriceItem{}, fmt.Errorf("update price item %q: %w", id, err)
	}
	return p, nil
}

// PriceItemIDsByCode maps every code to its record id.
func (s *Store) PriceItemIDsByCode() (map[string]string, error) {
	items, err := s.ListPriceItems("")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(items))
	for _, p := range items {
		ids[p.Code] = p.ID
	}
	return ids, nil
}

// ImportPriceItems upserts items by code in one transaction.
func (s *Store) ImportPriceItems(items []PriceItem) (created, updated int, err error) {
	err = s.app.RunInTransaction(func(txApp core.App) error {
		tx := New(txApp)
		col, err := txApp.FindCollectionByNameOrId("price_items")
		if err != nil {
			return fmt.Errorf("find price_items collection: %w", err)
		}
		for _, p := range items {
			rec, err := tx.findPriceItemByCode(p.Code)
			if err != nil {
				return err
			}
			if rec == nil {
				rec = core.NewRecord(col)
				created++
			} else {
				updated++
			}
			setPriceItem(rec, p)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save price item %q: %w", p.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("import price items: %w", err)
	}
	return created, updated, nil
}
