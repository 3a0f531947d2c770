package templates

import (
	"context"

	"github.com/a-h/templ"
)

type ProjectListItem struct {
	ID               string
	Name             string
	Client           string
	Site             string
	Status           string
	StatusBadgeClass string
	QuoteCount       int
	CreatedDate      string
}

type ProjectListData struct {
	Items      []ProjectListItem
	TotalCount int
}

// ProjectListContent is the project table without the page shell, for
// HTMX swaps.
func ProjectListContent(data ProjectListData) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.f(`<section id="project-list"><h1>Projets <span class="badge">%d</span></h1>`, data.TotalCount)
		if len(data.Items) == 0 {
			h.raw(`<p class="empty">Aucun projet pour le moment.</p></section>`)
			return
		}
		h.raw(`<table class="table"><thead><tr><th>Projet</th><th>Client</th><th>Site</th>`)
		h.raw(`<th>Statut</th><th>Devis</th><th>Créé le</th></tr></thead><tbody>`)
		for _, p := range data.Items {
			h.f(`<tr id="project-%s">`, p.ID)
			h.f(`<td><a href="/projects/%s/quotes">%s</a></td>`, p.ID, p.Name)
			h.f(`<td>%s</td><td>%s</td>`, p.Client, p.Site)
			h.f(`<td><span class="badge %s">%s</span></td>`, p.StatusBadgeClass, p.Status)
			h.f(`<td>%d</td><td>%s</td></tr>`, p.QuoteCount, p.CreatedDate)
		}
		h.raw(`</tbody></table></section>`)
	})
}

func ProjectListPage(data ProjectListData) templ.Component {
	return Page("Projets", ProjectListContent(data))
}
