// Package charts renders the dashboard charts as SVG with go-chart.
package charts

import (
	"errors"
	"fmt"
	"html"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	axisPadding   = 300
	titlePadding  = 150
	labelMaxRunes = 23
)

var highlightColor = drawing.ColorFromHex("d62728")

// pointStyle renders points only, without connecting lines.
func pointStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    width,
		DotColor:    col,
	}
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 24}}
}

func colorAt(i int) drawing.Color {
	return chart.GetDefaultColor(i)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Placeholder writes a small SVG carrying message, for charts with no data.
func Placeholder(w io.Writer, width, height int, message string) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#666">%s</text></svg>`,
		width, height, html.EscapeString(message))
	return err
}
