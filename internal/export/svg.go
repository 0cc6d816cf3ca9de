// Package export renders observable series and phase portraits as SVG.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/kadanoff/internal/analysis"
)

const (
	background = "#0a0a0a"
	axisColor  = "#3a3a3a"
	textColor  = "#9a9a9a"
)

// PathToSVG draws points as a single polyline over a dark background. The
// caption is written in the top left corner when non-empty.
func PathToSVG(w io.Writer, points []analysis.Point, width, height int, stroke, caption string) error {
	if len(points) < 2 {
		return fmt.Errorf("export: need at least two points, got %d", len(points))
	}
	b := analysis.BoundsOf(points)
	fw, fh := float64(width), float64(height)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	if b.MinX <= 0 && b.MaxX >= 0 {
		x, _ := b.Project(analysis.Point{}, fw, fh)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="%s"/>
`, x, x, height, axisColor))
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		_, y := b.Project(analysis.Point{}, fw, fh)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="%s"/>
`, y, width, y, axisColor))
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i, p := range points {
		x, y := b.Project(p, fw, fh)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")

	if caption != "" {
		sb.WriteString(fmt.Sprintf(`<text x="8" y="18" fill="%s" font-family="monospace" font-size="12">%s</text>
`, textColor, escape(caption)))
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// SeriesToSVG plots y against t.
func SeriesToSVG(w io.Writer, t, y []float64, width, height int, caption string) error {
	if len(t) != len(y) {
		return analysis.ErrLengthMismatch
	}
	points := make([]analysis.Point, len(t))
	for i := range t {
		points[i] = analysis.Point{X: t[i], Y: y[i]}
	}
	return PathToSVG(w, points, width, height, "#00d7af", caption)
}

// PortraitToSVG plots a phase portrait.
func PortraitToSVG(w io.Writer, p *analysis.Portrait, width, height int) error {
	return PathToSVG(w, p.Points, width, height, "#ff87ff", p.YLabel+" vs "+p.XLabel)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
