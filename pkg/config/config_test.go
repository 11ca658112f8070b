package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paraxedit.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Default(), cfg)
}

func TestLoadPartial(t *testing.T) {
	path := writeFile(t, `
log_level = "debug"

[diagram]
type = "slp"
enable_slide = true

[edit]
factory = "lens"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.LogLevel = "debug"
	want.Diagram.Type = "slp"
	want.Diagram.EnableSlide = true
	want.Edit.Factory = "lens"
	diff(t, want, cfg)

	lvl, err := cfg.Level()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("Level() = %v, %v", lvl, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		is      error
	}{
		{"syntax", "[diagram\n", nil},
		{"unknown key", "colour = \"red\"\n", nil},
		{"diagram type", "[diagram]\ntype = \"xy\"\n", ErrUnknownDiagramType},
		{"factory", "[edit]\nfactory = \"prism\"\n", optical.ErrUnknownFactory},
		{"radius", "[diagram]\nbarrel_radius = 0.0\n", nil},
		{"format", "[render]\nformat = \"gif\"\n", nil},
		{"level", "log_level = \"loud\"\n", nil},
		{"mode", "[edit]\ninteract_mode = \"absorb\"\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
			diff(t, Default(), cfg)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Diagram.Type = "slp"
	cfg.Diagram.BarrelConstraint = true
	cfg.Diagram.BarrelRadius = 2.5
	cfg.Render.Format = "svg"
	cfg.Edit.InteractMode = "reflect"
	cfg.Edit.NodeInit = "mirror"

	path := filepath.Join(t.TempDir(), "cfg.toml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, cfg, got)
}

func TestInputs(t *testing.T) {
	cfg := Default()
	cfg.Edit.InteractMode = "reflect"
	cfg.Edit.NodeInit = "mirror"
	cfg.Edit.Factory = "lens"
	in, err := cfg.Inputs()
	if err != nil {
		t.Fatal(err)
	}
	if in.NodeInit != optical.MirrorFactory || in.Factory != optical.LensFactory {
		t.Errorf("factories = %v, %v", in.NodeInit, in.Factory)
	}
	if in.InteractMode != optical.Reflect {
		t.Errorf("mode = %v, want reflect", in.InteractMode)
	}
}

func TestApply(t *testing.T) {
	m, err := optical.Sample("singlet")
	if err != nil {
		t.Fatal(err)
	}
	d := diagram.New(m, diagram.Height)
	cfg := Default()
	cfg.Diagram.Type = "slp"
	cfg.Diagram.BarrelConstraint = true
	cfg.Diagram.BarrelRadius = 3
	cfg.Diagram.Label = "singlet"
	if err := cfg.Apply(d); err != nil {
		t.Fatal(err)
	}
	if d.Type != diagram.Slope || !d.DoBarrelConstraint || d.BarrelRadius != 3 || d.Label != "singlet" {
		t.Errorf("diagram not configured: %+v", d)
	}

	cfg.Diagram.Type = "bad"
	if err := cfg.Apply(d); !errors.Is(err, ErrUnknownDiagramType) {
		t.Errorf("err = %v, want ErrUnknownDiagramType", err)
	}
}

func TestRenderOptions(t *testing.T) {
	cfg := Default()
	cfg.Render.Width, cfg.Render.Height, cfg.Render.Padding = 400, 300, 10
	o := cfg.RenderOptions()
	diff(t, [3]int{400, 300, 10}, [3]int{o.Width, o.Height, o.Padding})
	if !o.Labels {
		t.Error("labels disabled")
	}
}
