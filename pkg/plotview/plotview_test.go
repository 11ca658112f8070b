package plotview

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

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

func newFigure(t *testing.T, name string, typ diagram.Type) *Figure {
	t.Helper()
	m, err := optical.Sample(name)
	if err != nil {
		t.Fatal(err)
	}
	f := New(diagram.New(m, typ), name)
	if err := f.Refresh(diagram.BuildRebuild); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestRefreshFitsBounds(t *testing.T) {
	f := newFigure(t, "triplet", diagram.Height)
	want := f.Diagram.FitAxisLimits()
	diff(t, want, f.Bounds)
	diff(t, want, f.View.Bounds)
}

func TestRefreshUpdateKeepsBounds(t *testing.T) {
	f := newFigure(t, "triplet", diagram.Height)
	before := f.Bounds

	// move node 2 far out; a plain update must not refit
	if err := f.Diagram.ApplyData(2, geom.Pt(0, 40)); err != nil {
		t.Fatal(err)
	}
	if err := f.Refresh(diagram.BuildUpdate); err != nil {
		t.Fatal(err)
	}
	diff(t, before, f.Bounds)
	if f.Diagram.Shape[2].Y != 40 {
		t.Errorf("node 2 y = %v, want 40", f.Diagram.Shape[2].Y)
	}

	if err := f.Refresh(diagram.BuildRebuild); err != nil {
		t.Fatal(err)
	}
	if f.Bounds.Max.Y < 40 {
		t.Errorf("rebuild bounds %v do not enclose node 2", f.Bounds)
	}
}

func TestFigureDrivesGestures(t *testing.T) {
	f := newFigure(t, "triplet", diagram.Height)
	d := f.Diagram
	d.RegisterCommands(diagram.CommandInputs{})

	target := diagram.Target{Entity: d.Nodes[2], Handle: "shape"}
	start := d.Shape[2]
	end := geom.Pt(start.X, start.Y+1)
	for _, ev := range []diagram.Event{
		{Kind: diagram.Press, Pt: start, HasData: true},
		diagram.At(diagram.Drag, end.X, end.Y),
		diagram.At(diagram.Release, end.X, end.Y),
	} {
		if err := d.DoAction(f, ev, target); err != nil {
			t.Fatalf("%v: %v", ev.Kind, err)
		}
	}
	if got := d.Shape[2]; got.Y != end.Y {
		t.Errorf("node 2 = %v, want y %v", got, end.Y)
	}
}

func TestPlotLimits(t *testing.T) {
	f := newFigure(t, "triplet", diagram.Height)
	f.View.EnableSlide = true
	if err := f.Refresh(diagram.BuildUpdate); err != nil {
		t.Fatal(err)
	}
	p, err := f.Plot()
	if err != nil {
		t.Fatal(err)
	}
	b := f.Bounds
	diff(t, [4]float64{b.Min.X, b.Max.X, b.Min.Y, b.Max.Y}, [4]float64{p.X.Min, p.X.Max, p.Y.Min, p.Y.Max})
	diff(t, "chief ray height", p.X.Label.Text)
	diff(t, "triplet", p.Title.Text)
}

func TestNodeLabels(t *testing.T) {
	f := newFigure(t, "singlet", diagram.Slope)
	l, err := nodeLabels(f.Diagram)
	if err != nil {
		t.Fatal(err)
	}
	// the singlet's two surfaces share one label
	diff(t, []string{"Object", "E1", "Image"}, l.Labels)
}

func TestWrite(t *testing.T) {
	f := newFigure(t, "telephoto", diagram.Height)

	var buf bytes.Buffer
	if err := f.Write(&buf, "png"); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("decode png: %v", err)
	}

	buf.Reset()
	if err := f.Write(&buf, "svg"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("svg output lacks <svg")
	}

	if err := f.Write(&buf, "bmp"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSave(t *testing.T) {
	f := newFigure(t, "mirror", diagram.Slope)
	path := filepath.Join(t.TempDir(), "mirror.svg")
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}
}
