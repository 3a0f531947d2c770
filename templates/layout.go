// Package templates renders the HTML pages of the quoting UI as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// html accumulates the first write error so components can emit markup
// without checking every call.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes s escaped.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// f writes a formatted fragment; string arguments are escaped.
func (h *html) f(format string, args ...any) {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = templ.EscapeString(s)
		}
	}
	h.raw(fmt.Sprintf(format, args...))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func component(fn func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		fn(ctx, h)
		return h.err
	})
}

// Page wraps content in the application shell.
func Page(title string, content templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="fr"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.f(`<title>%s · windquote</title>`, title)
		h.raw(`<link rel="stylesheet" href="/static/css/app.css">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script><script src="/static/js/app.js" defer></script>`)
		h.raw(`</head><body hx-boost="true">`)
		h.raw(`<header class="navbar"><a href="/projects" class="brand">windquote</a>`)
		h.raw(`<a href="/price-items">Bordereau de prix</a></header>`)
		h.raw(`<main id="main-content">`)
		h.render(ctx, content)
		h.raw(`</main><div id="toast-container"></div></body></html>`)
	})
}
