package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/kadanoff/internal/analysis"
)

func TestSeriesToSVG(t *testing.T) {
	var buf bytes.Buffer
	ts := []float64{0, 1, 2, 3}
	ys := []float64{-1, 0.5, 1, -0.2}
	if err := SeriesToSVG(&buf, ts, ys, 200, 100, "Xph <t>"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"<svg", "<path", " L", "Xph &lt;t&gt;", "<line"} {
		if !strings.Contains(out, s) {
			t.Errorf("svg missing %q", s)
		}
	}
	if n := strings.Count(out, " L"); n != 3 {
		t.Errorf("path segments = %d, want 3", n)
	}
}

func TestPathToSVGErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := PathToSVG(&buf, []analysis.Point{{X: 1}}, 10, 10, "red", ""); err == nil {
		t.Error("expected error for a single point")
	}
	if err := SeriesToSVG(&buf, []float64{1, 2}, []float64{1}, 10, 10, ""); !errors.Is(err, analysis.ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestPortraitToSVG(t *testing.T) {
	p, err := analysis.NewPortrait("Xph", "Pph", []float64{1, 0, -1, 0}, []float64{0, 1, 0, -1})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := PortraitToSVG(&buf, p, 100, 100); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Pph vs Xph") {
		t.Error("caption missing")
	}
}
