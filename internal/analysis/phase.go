package analysis

import (
	"errors"
	"strings"
)

// ErrLengthMismatch is returned when paired series differ in length.
var ErrLengthMismatch = errors.New("analysis: series lengths differ")

// Point is one sample of a two-dimensional trajectory.
type Point struct {
	X, Y float64
}

// Portrait is a trajectory through a two-dimensional phase space, e.g. the
// classical phonon displacement against its momentum.
type Portrait struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPortrait pairs x[i] with y[i].
func NewPortrait(xLabel, yLabel string, x, y []float64) (*Portrait, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	p := &Portrait{XLabel: xLabel, YLabel: yLabel, Points: make([]Point, len(x))}
	for i := range x {
		p.Points[i] = Point{X: x[i], Y: y[i]}
	}
	return p, nil
}

// Bounds is the padded bounding box of a point set.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// BoundsOf returns the bounding box of points grown by 10% on every side.
func BoundsOf(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{MaxX: 1, MaxY: 1}
	}
	b := Bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points {
		b.MinX = min(b.MinX, p.X)
		b.MaxX = max(b.MaxX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxY = max(b.MaxY, p.Y)
	}
	rx := b.MaxX - b.MinX
	ry := b.MaxY - b.MinY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	b.MinX -= rx * 0.1
	b.MaxX += rx * 0.1
	b.MinY -= ry * 0.1
	b.MaxY += ry * 0.1
	return b
}

// Project maps p onto a width×height grid with the origin at the top left.
func (b Bounds) Project(p Point, width, height float64) (float64, float64) {
	x := (p.X - b.MinX) / (b.MaxX - b.MinX) * width
	y := height - (p.Y-b.MinY)/(b.MaxY-b.MinY)*height
	return x, y
}

// ASCII renders the portrait on a character canvas, drawing the axes where
// they cross the visible area.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	b := BoundsOf(p.Points)

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		x, y := b.Project(pt, float64(width-1), float64(height-1))
		col, row := int(x), int(y)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if b.MinX <= 0 && b.MaxX >= 0 {
		x, _ := b.Project(Point{}, float64(width-1), float64(height-1))
		col := int(x)
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		_, y := b.Project(Point{}, float64(width-1), float64(height-1))
		row := int(y)
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
