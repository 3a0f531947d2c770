// Package services provides pricing, export and import functions for quotes.
package services

import (
	"github.com/shopspring/decimal"

	"windquote/formula"
	"windquote/quantity"
	"windquote/store"
)

// LineSummary is a billed line with its quantity already resolved.
type LineSummary struct {
	ID          string          `json:"id"`
	Designation string          `json:"designation"`
	Unit        string          `json:"unit"`
	Kind        string          `json:"kind"`
	Source      string          `json:"source"`
	Quantity    float64         `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type SectionSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Multiplier float64         `json:"multiplier"`
	Lines      []LineSummary   `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
}

type LotSummary struct {
	ID       string           `json:"id"`
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Sections []SectionSummary `json:"sections"`
	Total    decimal.Decimal  `json:"total"`
}

// QuoteSummary is the priced tree of a quote. CAPEX is the sum of lots.
type QuoteSummary struct {
	Lots      []LotSummary    `json:"lots"`
	CAPEX     decimal.Decimal `json:"capex"`
	LineCount int             `json:"line_count"`
}

// SummarizeLine resolves the quantity of l against vars and prices it.
func SummarizeLine(l store.Line, vars formula.Variables) LineSummary {
	q := quantity.Resolve(l.Quantity, vars)
	price := decimal.NewFromFloat(l.UnitPrice)
	return LineSummary{
		ID:          l.ID,
		Designation: l.Designation,
		Unit:        l.Unit,
		Kind:        l.Quantity.Kind.String(),
		Source:      l.Quantity.Text(),
		Quantity:    q,
		UnitPrice:   price,
		Total:       decimal.NewFromFloat(q).Mul(price),
	}
}

// CalcSectionTotal multiplies the sum of line totals by the section
// multiplier.
func CalcSectionTotal(lineTotals []decimal.Decimal, multiplier float64) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Sum(decimal.Zero, lineTotals...)
	return subtotal, subtotal.Mul(decimal.NewFromFloat(multiplier))
}

func SummarizeSection(sec store.Section, vars formula.Variables) SectionSummary {
	out := SectionSummary{
		ID:         sec.ID,
		Name:       sec.Name,
		Multiplier: sec.Multiplier,
		Lines:      make([]LineSummary, 0, len(sec.Lines)),
	}
	totals := make([]decimal.Decimal, 0, len(sec.Lines))
	for _, l := range sec.Lines {
		ls := SummarizeLine(l, vars)
		out.Lines = append(out.Lines, ls)
		totals = append(totals, ls.Total)
	}
	out.Subtotal, out.Total = CalcSectionTotal(totals, sec.Multiplier)
	return out
}

// BuildQuoteSummary resolves every line of lots against one catalog
// snapshot and rolls totals up to CAPEX.
func BuildQuoteSummary(lots []store.Lot, vars formula.Variables) QuoteSummary {
	out := QuoteSummary{Lots: make([]LotSummary, 0, len(lots)), CAPEX: decimal.Zero}
	for _, lot := range lots {
		ls := LotSummary{
			ID:       lot.ID,
			Code:     lot.Code,
			Name:     lot.Name,
			Sections: make([]SectionSummary, 0, len(lot.Sections)),
			Total:    decimal.Zero,
		}
		for _, sec := range lot.Sections {
			ss := SummarizeSection(sec, vars)
			ls.Sections = append(ls.Sections, ss)
			ls.Total = ls.Total.Add(ss.Total)
			out.LineCount += len(ss.Lines)
		}
		out.Lots = append(out.Lots, ls)
		out.CAPEX = out.CAPEX.Add(ls.Total)
	}
	return out
}
