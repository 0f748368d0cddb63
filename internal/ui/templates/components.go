// Package templates renders the dashboard page and the fragments the SSE
// handlers patch into it.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"datastar": func() string { return DatastarScript },
}).ParseFS(files, "html/*.html"))

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

func Dashboard(p Page) templ.Component {
	return component("dashboard", p)
}

func ControlsPanel(c Controls) templ.Component {
	return component("controls", c)
}

func ScatterPanel(s Scatter) templ.Component {
	return component("scatter", s)
}

func SelectionPanel(s Selection) templ.Component {
	return component("selection", s)
}

func NotesPanel(n Notes) templ.Component {
	return component("notes", n)
}

func PredictionsPanel(p Predictions) templ.Component {
	return component("predictions", p)
}

func TrendPanel(t Trend) templ.Component {
	return component("trend", t)
}

func FlashMessage(f Flash) templ.Component {
	return component("flash", f)
}

// RenderString renders c for an SSE patch.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
