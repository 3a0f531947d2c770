package templates

import (
	"context"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"windquote/services"
	"windquote/store"
)

type PriceItemsData struct {
	Query string
	Items []store.PriceItem
}

// PriceItemsContent is the unit-price database with its search box. The
// box re-fetches this fragment as the user types.
func PriceItemsContent(data PriceItemsData) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<section id="price-items"><h1>Bordereau de prix</h1>`)
		h.f(`<input type="search" name="q" value="%s" placeholder="Code, désignation, catégorie" `, data.Query)
		h.raw(`hx-get="/price-items" hx-trigger="input changed delay:300ms" hx-target="#price-items" hx-swap="outerHTML">`)
		if len(data.Items) == 0 {
			h.raw(`<p class="empty">Aucun prix.</p></section>`)
			return
		}
		h.raw(`<table class="table"><thead><tr><th>Code</th><th>Désignation</th><th>Unité</th>`)
		h.raw(`<th class="num">Prix unitaire</th><th>Catégorie</th></tr></thead><tbody>`)
		for _, p := range data.Items {
			h.f(`<tr id="price-item-%s"><td><code>%s</code></td><td>%s</td><td>%s</td>`, p.ID, p.Code, p.Designation, p.Unit)
			h.f(`<td class="num">%s</td><td>%s</td></tr>`, services.FormatEUR(decimal.NewFromFloat(p.UnitPrice)), p.Category)
		}
		h.raw(`</tbody></table></section>`)
	})
}

func PriceItemsPage(data PriceItemsData) templ.Component {
	return Page("Bordereau de prix", PriceItemsContent(data))
}
