package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"windquote/store"
)

// Export row levels.
const (
	LevelLot = iota
	LevelSection
	LevelLine
)

// ExportRow represents a single row in the quote export (lot, section, or line).
// Quantity is the resolved quantity; exporters never resolve anything.
type ExportRow struct {
	Level       int    // 0 = lot, 1 = section, 2 = line
	Index       string // "1", "1.1", "1.1.1" etc
	Designation string
	Unit        string
	Quantity    float64
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	Multiplier  float64
}

// ExportData holds all data needed for export.
type ExportData struct {
	Title       string
	ProjectName string
	Version     int
	Company     string
	Currency    string
	CreatedDate string
	Rows        []ExportRow
	CAPEX       decimal.Decimal
}

// ExportOptions carries the configured export header fields.
type ExportOptions struct {
	Company  string
	Currency string
}

// BuildExportData flattens a priced summary into export rows.
func BuildExportData(q store.Quote, projectName string, sum QuoteSummary, opts ExportOptions) ExportData {
	data := ExportData{
		Title:       q.Title,
		ProjectName: projectName,
		Version:     q.Version,
		Company:     opts.Company,
		Currency:    opts.Currency,
		CreatedDate: q.Created,
		CAPEX:       sum.CAPEX,
	}
	if data.Currency == "" {
		data.Currency = "EUR"
	}

	for i, lot := range sum.Lots {
		lotIdx := fmt.Sprintf("%d", i+1)
		name := lot.Name
		if lot.Code != "" {
			name = lot.Code + " - " + lot.Name
		}
		data.Rows = append(data.Rows, ExportRow{
			Level:       LevelLot,
			Index:       lotIdx,
			Designation: name,
			Total:       lot.Total,
		})
		for j, sec := range lot.Sections {
			secIdx := fmt.Sprintf("%s.%d", lotIdx, j+1)
			data.Rows = append(data.Rows, ExportRow{
				Level:       LevelSection,
				Index:       secIdx,
				Designation: sec.Name,
				Total:       sec.Total,
				Multiplier:  sec.Multiplier,
			})
			for k, l := range sec.Lines {
				data.Rows = append(data.Rows, ExportRow{
					Level:       LevelLine,
					Index:       fmt.Sprintf("%s.%d", secIdx, k+1),
					Designation: l.Designation,
					Unit:        l.Unit,
					Quantity:    l.Quantity,
					UnitPrice:   l.UnitPrice,
					Total:       l.Total,
				})
			}
		}
	}
	return data
}
