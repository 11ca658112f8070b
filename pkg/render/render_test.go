package render

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func tripletDiagram(t *testing.T) *diagram.Diagram {
	t.Helper()
	m, err := optical.Sample("triplet")
	if err != nil {
		t.Fatal(err)
	}
	d := diagram.New(m, diagram.Height)
	if _, err := d.UpdateData(diagram.BuildRebuild, diagram.View{}); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestViewport(t *testing.T) {
	b := geom.Bbox{Min: geom.Pt(-10, -5), Max: geom.Pt(10, 5)}
	vp := newViewport(b, 240, 120, 20)

	tests := []struct {
		p    geom.Point
		x, y float64
	}{
		{geom.Pt(-10, 5), 20, 20},
		{geom.Pt(10, -5), 220, 100},
		{geom.Pt(0, 0), 120, 60},
	}
	for _, tt := range tests {
		x, y := vp.toScreen(tt.p)
		if x != tt.x || y != tt.y {
			t.Errorf("toScreen(%v) = (%v, %v), want (%v, %v)", tt.p, x, y, tt.x, tt.y)
		}
	}

	want := [][4]float64{{20, 60, 220, 60}, {120, 100, 120, 20}}
	diff(t, want, vp.axes())
}

func TestViewportAxesOutsideBounds(t *testing.T) {
	b := geom.Bbox{Min: geom.Pt(1, 1), Max: geom.Pt(2, 2)}
	if got := newViewport(b, 100, 100, 0).axes(); len(got) != 0 {
		t.Errorf("axes = %v, want none", got)
	}
}

func TestElementLabels(t *testing.T) {
	d := tripletDiagram(t)
	var got []string
	for _, l := range elementLabels(d) {
		got = append(got, l.text)
	}
	diff(t, []string{"Object", "TL1", "TL2", "TL3", "Image"}, got)
}

func TestPlaceLabelsAvoidsMarkers(t *testing.T) {
	d := tripletDiagram(t)
	vp := newViewport(Bounds(d), 800, 600, 40)
	measure := func(s string) (float64, float64) { return float64(len(s)) * 7, 12 }
	pos := placeLabels(d, vp, 1, measure)
	if len(pos) != 5 {
		t.Fatalf("placed %d labels, want 5", len(pos))
	}
	for i, p := range pos {
		x, y := vp.toScreen(d.Shape[i])
		if p.X == x && p.Y == y {
			t.Errorf("label %d sits on its node", i)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	d := tripletDiagram(t)
	opts := DefaultOptions()
	opts.Width, opts.Height = 320, 240
	opts.Title = "triplet"

	var buf bytes.Buffer
	if err := RenderPNG(d, &buf, opts); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, [2]int{320, 240}, [2]int{img.Bounds().Dx(), img.Bounds().Dy()})

	white := func(x, y int) bool {
		r, g, b, _ := img.At(x, y).RGBA()
		return r == 0xffff && g == 0xffff && b == 0xffff
	}
	if !white(0, opts.Height-1) {
		t.Error("corner is not background")
	}
	vp := newViewport(Bounds(d), float64(opts.Width), float64(opts.Height), float64(opts.Padding))
	x, y := vp.toScreen(d.Shape[2])
	if white(int(x), int(y)) {
		t.Errorf("no marker at node 2 (%v, %v)", x, y)
	}
}

func TestRenderSVG(t *testing.T) {
	d := tripletDiagram(t)
	opts := DefaultOptions()
	opts.Title = "triplet"

	var buf bytes.Buffer
	if err := RenderSVG(d, &buf, opts); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "<polygon", "<polyline", "<title>triplet</title>", ">TL2<", "</svg>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	// background plus one marker per node
	if got, want := strings.Count(out, "<rect"), 1+len(d.Shape); got != want {
		t.Errorf("%d rects, want %d", got, want)
	}
}

func TestRenderSVGSlideLines(t *testing.T) {
	d := tripletDiagram(t)
	if _, err := d.UpdateData(diagram.BuildUpdate, diagram.View{EnableSlide: true}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := RenderSVG(d, &buf, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "stroke-dasharray") {
		t.Error("slide lines not drawn dotted")
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderSVGWriteError(t *testing.T) {
	if err := RenderSVG(tripletDiagram(t), failWriter{}, DefaultOptions()); err == nil {
		t.Error("expected write error")
	}
}

func TestWriteFormat(t *testing.T) {
	d := tripletDiagram(t)
	var buf bytes.Buffer
	if err := Write(d, &buf, "SVG", DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if err := Write(d, &buf, "gif", DefaultOptions()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("gif: err = %v, want ErrUnknownFormat", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out.png", "png", false},
		{"dir/Out.SVG", "svg", false},
		{"out.jpg", "", true},
		{"out", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	got := Options{Padding: -3}.withDefaults()
	want := DefaultOptions()
	want.Padding = 0
	want.Labels = false
	diff(t, want, got, cmpopts.EquateEmpty())
}
