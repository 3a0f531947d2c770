package templates

import (
	"context"

	"github.com/a-h/templ"

	"windquote/calculator"
	"windquote/services"
)

type VariablesData struct {
	QuoteID         string
	Title           string
	Groups          []calculator.CategoryGroup
	Unreferenceable []string
}

// VariablesContent lists the catalog grouped by category. Each name is a
// button that copies the $name into the focused quantity cell.
func VariablesContent(data VariablesData) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.f(`<section id="variables" data-quote="%s">`, data.QuoteID)
		h.f(`<h1>Variables · %s</h1>`, data.Title)
		h.f(`<p><a href="/quotes/%s">Retour au devis</a></p>`, data.QuoteID)
		if len(data.Groups) == 0 {
			h.raw(`<p class="empty">Aucune variable : le calculateur n'est pas configuré.</p></section>`)
			return
		}
		for _, g := range data.Groups {
			h.f(`<details open class="category"><summary>%s <span class="badge">%d</span></summary>`,
				g.Category, len(g.Variables))
			h.raw(`<table class="table"><tbody>`)
			for _, v := range g.Variables {
				h.f(`<tr><td><button type="button" class="var" data-insert="%s">%s</button></td>`, v.Name, v.Name)
				h.f(`<td>%s</td><td class="num">%s</td></tr>`, v.Label, services.FormatQuantity(v.Value))
			}
			h.raw(`</tbody></table></details>`)
		}
		if len(data.Unreferenceable) > 0 {
			h.raw(`<div class="alert alert-warning">Noms inutilisables dans une formule :<ul>`)
			for _, name := range data.Unreferenceable {
				h.f(`<li><code>%s</code></li>`, name)
			}
			h.raw(`</ul></div>`)
		}
		h.raw(`</section>`)
	})
}

func VariablesPage(data VariablesData) templ.Component {
	return Page("Variables", VariablesContent(data))
}
