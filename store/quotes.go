package store

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// Quote is one version of an offer made for a project.
type Quote struct {
	ID        string `json:"id"`
	ProjectID string `json:"project"`
	Title     string `json:"title"`
	Version   int    `json:"version"`
	Status    string `json:"status"`
	Created   string `json:"created"`
}

func quoteFromRecord(rec *core.Record) Quote {
	return Quote{
		ID:        rec.Id,
		ProjectID: rec.GetString("project"),
		Title:     rec.GetString("title"),
		Version:   rec.GetInt("version"),
		Status:    rec.GetString("status"),
		Created:   rec.GetDateTime("created").Time().Format("2006-01-02"),
	}
}

// LoadQuote returns a quote without its lots.
func (s *Store) LoadQuote(quoteID string) (Quote, error) {
	rec, err := s.find("quotes", quoteID)
	if err != nil {
		return Quote{}, err
	}
	return quoteFromRecord(rec), nil
}

// ListQuotes returns the quotes of a project, newest version first.
func (s *Store) ListQuotes(projectID string) ([]Quote, error) {
	recs, err := s.app.FindRecordsByFilter(
		"quotes",
		"project = {:projectId}",
		"-version",
		0, 0,
		map[string]any{"projectId": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("list quotes of project %q: %w", projectID, err)
	}
	quotes := make([]Quote, 0, len(recs))
	for _, r := range recs {
		quotes = append(quotes, quoteFromRecord(r))
	}
	return quotes, nil
}

// CreateQuote adds a draft quote to a project with the next free version
// number and an unconfigured calculator.
func (s *Store) CreateQuote(projectID, title string) (Quote, error) {
	if _, err := s.find("projects", projectID); err != nil {
		return Quote{}, err
	}
	col, err := s.app.FindCollectionByNameOrId("quotes")
	if err != nil {
		return Quote{}, fmt.Errorf("find quotes collection: %w", err)
	}
	version, err := s.nextVersion(projectID)
	if err != nil {
		return Quote{}, err
	}

	rec := core.NewRecord(col)
	rec.Set("project", projectID)
	rec.Set("title", title)
	rec.Set("version", version)
	rec.Set("status", "draft")
	if err := s.app.Save(rec); err != nil {
		return Quote{}, fmt.Errorf("create quote: %w", err)
	}
	return quoteFromRecord(rec), nil
}

func (s *Store) nextVersion(projectID string) (int, error) {
	recs, err := s.app.FindRecordsByFilter(
		"quotes",
		"project = {:projectId}",
		"-version",
		1, 0,
		map[string]any{"projectId": projectID},
	)
	if err != nil {
		return 0, fmt.Errorf("find last quote version: %w", err)
	}
	if len(recs) == 0 {
		return 1, nil
	}
	return recs[0].GetInt("version") + 1, nil
}

// DuplicateQuote copies a quote into a new draft version of the same
// project: settings, lots, sections and lines are all copied, and lines
// keep their quantity variant. The copy is made in one transaction.
func (s *Store) DuplicateQuote(quoteID string) (Quote, error) {
	var out Quote
	err := s.app.RunInTransaction(func(txApp core.App) error {
		tx := New(txApp)

		src, err := tx.find("quotes", quoteID)
		if err != nil {
			return err
		}
		projectID := src.GetString("project")
		version, err := tx.nextVersion(projectID)
		if err != nil {
			return err
		}

		dst := core.NewRecord(src.Collection())
		dst.Set("project", projectID)
		dst.Set("title", src.GetString("title"))
		dst.Set("version", version)
		dst.Set("status", "draft")
		dst.Set("settings", src.Get("settings"))
		if err := txApp.Save(dst); err != nil {
			return fmt.Errorf("save quote copy: %w", err)
		}

		lots, err := tx.LoadLots(quoteID)
		if err != nil {
			return err
		}
		for _, lot := range lots {
			newLot, err := tx.CreateLot(dst.Id, lot.Code, lot.Name)
			if err != nil {
				return err
			}
			for _, sec := range lot.Sections {
				newSec, err := tx.CreateSection(newLot.ID, sec.Name, sec.Multiplier)
				if err != nil {
					return err
				}
				for _, l := range sec.Lines {
					if _, err := tx.CreateLine(newSec.ID, NewLine{
						Designation: l.Designation,
						Unit:        l.Unit,
						Quantity:    l.Quantity,
						UnitPrice:   l.UnitPrice,
						PriceItemID: l.PriceItemID,
					}); err != nil {
						return err
					}
				}
			}
		}

		out = quoteFromRecord(dst)
		return nil
	})
	if err != nil {
		return Quote{}, fmt.Errorf("duplicate quote %q: %w", quoteID, err)
	}
	return out, nil
}

// CreateLot appends a lot to a quote.
func (s *Store) CreateLot(quoteID, code, name string) (Lot, error) {
	if _, err := s.find("quotes", quoteID); err != nil {
		return Lot{}, err
	}
	col, err := s.app.FindCollectionByNameOrId("lots")
	if err != nil {
		return Lot{}, fmt.Errorf("find lots collection: %w", err)
	}
	next, err := s.nextSortOrder("lots", "quote", quoteID)
	if err != nil {
		return Lot{}, err
	}

	rec := core.NewRecord(col)
	rec.Set("quote", quoteID)
	rec.Set("sort_order", next)
	rec.Set("code", code)
	rec.Set("name", name)
	if err := s.app.Save(rec); err != nil {
		return Lot{}, fmt.Errorf("create lot: %w", err)
	}
	return Lot{ID: rec.Id, QuoteID: quoteID, SortOrder: next, Code: code, Name: name}, nil
}

// CreateSection appends a section to a lot. A zero multiplier means 1.
func (s *Store) CreateSection(lotID, name string, multiplier float64) (Section, error) {
	if _, err := s.find("lots", lotID); err != nil {
		return Section{}, err
	}
	col, err := s.app.FindCollectionByNameOrId("sections")
	if err != nil {
		return Section{}, fmt.Errorf("find sections collection: %w", err)
	}
	next, err := s.nextSortOrder("sections", "lot", lotID)
	if err != nil {
		return Section{}, err
	}
	if multiplier == 0 {
		multiplier = 1
	}

	rec := core.NewRecord(col)
	rec.Set("lot", lotID)
	rec.Set("sort_order", next)
	rec.Set("name", name)
	rec.Set("multiplier", multiplier)
	if err := s.app.Save(rec); err != nil {
		return Section{}, fmt.Errorf("create section: %w", err)
	}
	return sectionFromRecord(rec), nil
}

// Delete removes a record; children cascade per the collection schema.
func (s *Store) Delete(collection, id string) error {
	rec, err := s.find(collection, id)
	if err != nil {
		return err
	}
	if err := s.app.Delete(rec); err != nil {
		return fmt.Errorf("delete %s %q: %w", collection, id, err)
	}
	return nil
}
