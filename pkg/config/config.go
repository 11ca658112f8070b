// Package config holds persistent settings for the parax tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
	"github.com/ha1tch/paraxial-toolkit/pkg/render"
)

// ErrUnknownDiagramType is returned for a diagram type other than ht or slp.
var ErrUnknownDiagramType = errors.New("unknown diagram type")

// Config holds persistent settings.
type Config struct {
	LogLevel string  `toml:"log_level"` // debug, info, warn or error
	Diagram  Diagram `toml:"diagram"`
	Render   Render  `toml:"render"`
	Edit     Edit    `toml:"edit"`
}

// Diagram settings.
type Diagram struct {
	Type             string  `toml:"type"` // "ht" or "slp"
	EnableSlide      bool    `toml:"enable_slide"`
	BarrelConstraint bool    `toml:"barrel_constraint"`
	BarrelRadius     float64 `toml:"barrel_radius"`
	Label            string  `toml:"label"`
}

// Render settings for image output.
type Render struct {
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Padding int    `toml:"padding"`
	Format  string `toml:"format"` // "png" or "svg"
}

// Edit settings for element insertion.
type Edit struct {
	InteractMode string `toml:"interact_mode"` // "transmit" or "reflect"
	NodeInit     string `toml:"node_init"`     // factory for new nodes
	Factory      string `toml:"factory"`       // factory dropped on a node
}

// Default returns the default configuration.
func Default() Config {
	ro := render.DefaultOptions()
	return Config{
		LogLevel: "info",
		Diagram: Diagram{
			Type:         string(diagram.Height),
			BarrelRadius: 1,
			Label:        "paraxial",
		},
		Render: Render{
			Width:   ro.Width,
			Height:  ro.Height,
			Padding: ro.Padding,
			Format:  "png",
		},
		Edit: Edit{
			InteractMode: "transmit",
			NodeInit:     "thinlens",
			Factory:      "thinlens",
		},
	}
}

// Path returns the path to the config file.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paraxedit.toml"
	}
	return filepath.Join(home, ".paraxedit.toml")
}

// Load reads the config file at path. Keys missing from the file keep
// their defaults; a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Default(), fmt.Errorf("%s: unknown key %s", path, keys[0])
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	buf.WriteString("# paraxedit configuration\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Validate checks enumerated settings and ranges.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.DiagramType(); err != nil {
		return err
	}
	if c.Diagram.BarrelRadius <= 0 {
		return fmt.Errorf("barrel_radius %v must be positive", c.Diagram.BarrelRadius)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height)
	}
	if c.Render.Padding < 0 {
		return fmt.Errorf("render padding %d is negative", c.Render.Padding)
	}
	if c.Render.Format != "png" && c.Render.Format != "svg" {
		return fmt.Errorf("render format %q: %w", c.Render.Format, render.ErrUnknownFormat)
	}
	if _, err := optical.ParseInteractionMode(c.Edit.InteractMode); err != nil {
		return err
	}
	for _, name := range []string{c.Edit.NodeInit, c.Edit.Factory} {
		if _, err := optical.FactoryByName(name); err != nil {
			return err
		}
	}
	return nil
}

// DiagramType returns the configured diagram type.
func (c Config) DiagramType() (diagram.Type, error) {
	t, err := diagram.ParseType(c.Diagram.Type)
	if err != nil {
		return "", fmt.Errorf("%q: %w", c.Diagram.Type, ErrUnknownDiagramType)
	}
	return t, nil
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Inputs returns the command inputs for diagram actions.
func (c Config) Inputs() (diagram.CommandInputs, error) {
	mode, err := optical.ParseInteractionMode(c.Edit.InteractMode)
	if err != nil {
		return diagram.CommandInputs{}, err
	}
	nodeInit, err := optical.FactoryByName(c.Edit.NodeInit)
	if err != nil {
		return diagram.CommandInputs{}, err
	}
	factory, err := optical.FactoryByName(c.Edit.Factory)
	if err != nil {
		return diagram.CommandInputs{}, err
	}
	return diagram.CommandInputs{NodeInit: nodeInit, Factory: factory, InteractMode: mode}, nil
}

// RenderOptions returns the image options for rendering.
func (c Config) RenderOptions() render.Options {
	o := render.DefaultOptions()
	o.Width, o.Height, o.Padding = c.Render.Width, c.Render.Height, c.Render.Padding
	return o
}

// Apply copies the diagram settings onto d. The caller must rebuild.
func (c Config) Apply(d *diagram.Diagram) error {
	t, err := c.DiagramType()
	if err != nil {
		return err
	}
	d.SetType(t)
	d.Label = c.Diagram.Label
	d.DoBarrelConstraint = c.Diagram.BarrelConstraint
	d.BarrelRadius = c.Diagram.BarrelRadius
	return nil
}
