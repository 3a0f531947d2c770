package handlers

import (
	"fmt"

	"windquote/calculator"
	"windquote/services"
	"windquote/store"
)

// quoteData is a quote priced against its own catalog.
type quoteData struct {
	Quote       store.Quote
	ProjectName string
	Configured  bool
	Catalog     calculator.Catalog
	Summary     services.QuoteSummary
}

// loadQuoteData loads a quote with its lots and resolves every line
// against the catalog built from the quote's engineering input.
func loadQuoteData(s *store.Store, quoteID string) (quoteData, error) {
	q, err := s.LoadQuote(quoteID)
	if err != nil {
		return quoteData{}, err
	}
	in, err := s.LoadEngineeringInput(quoteID)
	if err != nil {
		return quoteData{}, err
	}
	lots, err := s.LoadLots(quoteID)
	if err != nil {
		return quoteData{}, err
	}

	project, err := s.App().FindRecordById("projects", q.ProjectID)
	if err != nil {
		return quoteData{}, fmt.Errorf("project of quote %q: %w", quoteID, err)
	}

	cat := calculator.BuildCatalog(in)
	return quoteData{
		Quote:       q,
		ProjectName: project.GetString("name"),
		Configured:  in != nil,
		Catalog:     cat,
		Summary:     services.BuildQuoteSummary(lots, cat),
	}, nil
}

// exportData flattens quote data for the file generators.
func (d quoteData) exportData(opts services.ExportOptions) services.ExportData {
	return services.BuildExportData(d.Quote, d.ProjectName, d.Summary, opts)
}
