package templates

import (
	"context"

	"github.com/a-h/templ"

	"windquote/services"
)

type QuoteSummaryData struct {
	ProjectID   string
	ProjectName string
	QuoteID     string
	Title       string
	Version     int
	Status      string
	Currency    string
	Configured  bool
	Summary     services.QuoteSummary
}

// QuoteSummaryContent renders the priced lot tree of a quote. Quantity
// cells show the reference or formula as typed, with the resolved value
// beside it.
func QuoteSummaryContent(data QuoteSummaryData) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.f(`<section id="quote-summary" data-quote="%s">`, data.QuoteID)
		h.f(`<nav class="breadcrumbs"><a href="/projects/%s/quotes">%s</a></nav>`, data.ProjectID, data.ProjectName)
		h.f(`<h1>%s <small>v%d</small> <span class="badge">%s</span></h1>`, data.Title, data.Version, data.Status)
		h.raw(`<div class="actions">`)
		h.f(`<a href="/quotes/%s/variables">Variables</a>`, data.QuoteID)
		h.f(`<a href="/quotes/%s/export/excel">Excel</a>`, data.QuoteID)
		h.f(`<a href="/quotes/%s/export/pdf">PDF</a>`, data.QuoteID)
		h.f(`<a href="/quotes/%s/export/csv">CSV</a>`, data.QuoteID)
		h.raw(`</div>`)
		if !data.Configured {
			h.raw(`<p class="alert alert-info">Calculateur non configuré : les références de variables restent en attente.</p>`)
		}

		for _, lot := range data.Summary.Lots {
			h.f(`<article class="lot" id="lot-%s"><h2>%s - %s</h2>`, lot.ID, lot.Code, lot.Name)
			for _, sec := range lot.Sections {
				h.f(`<div class="section" id="section-%s"><h3>%s`, sec.ID, sec.Name)
				if sec.Multiplier != 1 {
					h.f(` <span class="badge">× %s</span>`, services.FormatQuantity(sec.Multiplier))
				}
				h.raw(`</h3>`)
				h.raw(`<table class="table"><thead><tr><th>Désignation</th><th>Unité</th>`)
				h.raw(`<th>Quantité</th><th>Prix unitaire</th><th>Total</th></tr></thead><tbody>`)
				for _, l := range sec.Lines {
					h.f(`<tr id="line-%s" data-kind="%s">`, l.ID, l.Kind)
					h.f(`<td>%s</td><td>%s</td>`, l.Designation, l.Unit)
					h.f(`<td><input name="text" value="%s" hx-patch="/lines/%s/quantity" hx-trigger="change" hx-swap="none">`,
						l.Source, l.ID)
					if l.Kind != "literal" {
						h.f(` <span class="resolved">= %s</span>`, services.FormatQuantity(l.Quantity))
					}
					h.raw(`</td>`)
					h.f(`<td class="num">%s</td>`, services.FormatMoney(l.UnitPrice, data.Currency))
					h.f(`<td class="num">%s</td></tr>`, services.FormatMoney(l.Total, data.Currency))
				}
				h.raw(`</tbody><tfoot><tr><td colspan="4">Total section</td>`)
				h.f(`<td class="num">%s</td></tr></tfoot></table></div>`, services.FormatMoney(sec.Total, data.Currency))
			}
			h.f(`<p class="lot-total">Total %s : %s</p></article>`, lot.Code, services.FormatMoney(lot.Total, data.Currency))
		}

		h.f(`<p class="capex"><strong>Total CAPEX : %s</strong></p></section>`, services.FormatMoney(data.Summary.CAPEX, data.Currency))
	})
}

func QuoteSummaryPage(data QuoteSummaryData) templ.Component {
	return Page(data.Title, QuoteSummaryContent(data))
}
