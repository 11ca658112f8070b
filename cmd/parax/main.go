// Command parax is a CLI tool for working with paraxial lens diagrams.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ha1tch/paraxial-toolkit/pkg/config"
	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
	"github.com/ha1tch/paraxial-toolkit/pkg/plotview"
	"github.com/ha1tch/paraxial-toolkit/pkg/render"
)

const usage = `parax - paraxial lens diagram toolkit

Usage:
  parax <command> <sample> [options]

Commands:
  info       Show surfaces, elements and first order data
  table      Show the paraxial ray table
  render     Render the diagram to PNG or SVG
  plot       Plot the diagram with axes (PNG, SVG, PDF)
  drag       Drag a node and show the result
  shift      Drag a conjugate line (object or stop shift)
  insert     Insert an element on an edge
  replace    Replace the element at a node
  samples    List the built in lenses

Options:
  -o, --output <file>   write the diagram to file
  -c, --config <file>   config file (default ~/.paraxedit.toml)
  --slope               use a slope diagram instead of a height diagram
  --slide               drag nodes along their slide lines
  --barrel <r>          show the barrel constraint with radius r
  --node <i>            node index (drag, replace)
  --edge <i>            edge index (insert)
  --line object|stop    conjugate line (shift)
  --to <x,y>            gesture end point
  --factory <name>      element factory (thinlens, lens, mirror)
  -t, --title <text>    image title
  -v, --verbose         debug logging

Examples:
  parax info triplet
  parax render triplet -o triplet.svg --slide
  parax drag triplet --node 2 --to 0,5 -o dragged.png
  parax shift telephoto --line stop --to 1,4 -o shifted.png
  parax insert singlet --edge 2 --to 1,3 --factory lens

Use "parax samples" for the available lenses.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "info", "table", "render", "plot", "drag", "shift", "insert", "replace":
		if err := run(cmd, args, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "samples":
		for _, name := range optical.SampleNames() {
			fmt.Println(name)
		}
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

type options struct {
	sample     string
	output     string
	configPath string
	title      string
	slope      bool
	slide      bool
	barrel     float64
	node       int
	edge       int
	line       string
	to         *geom.Point
	factory    string
	verbose    bool
}

var valueFlags = map[string]bool{
	"-o": true, "--output": true,
	"-c": true, "--config": true,
	"-t": true, "--title": true,
	"--barrel": true, "--node": true, "--edge": true,
	"--line": true, "--to": true, "--factory": true,
}

func parseArgs(args []string) (options, error) {
	opts := options{node: -1, edge: -1}
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return opts, fmt.Errorf("missing sample name")
	}
	opts.sample = args[0]

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--slope":
			opts.slope = true
			continue
		case "--slide":
			opts.slide = true
			continue
		case "-v", "--verbose":
			opts.verbose = true
			continue
		}
		if !valueFlags[args[i]] {
			return opts, fmt.Errorf("unknown option %s", args[i])
		}
		if i+1 >= len(args) {
			return opts, fmt.Errorf("%s needs a value", args[i])
		}
		v := args[i+1]
		var err error
		switch args[i] {
		case "-o", "--output":
			opts.output = v
		case "-c", "--config":
			opts.configPath = v
		case "-t", "--title":
			opts.title = v
		case "--barrel":
			opts.barrel, err = strconv.ParseFloat(v, 64)
		case "--node":
			opts.node, err = strconv.Atoi(v)
		case "--edge":
			opts.edge, err = strconv.Atoi(v)
		case "--line":
			opts.line = v
		case "--to":
			var p geom.Point
			p, err = parsePoint(v)
			opts.to = &p
		case "--factory":
			opts.factory = v
		}
		if err != nil {
			return opts, fmt.Errorf("%s: %w", args[i], err)
		}
		i++
	}
	return opts, nil
}

func parsePoint(s string) (geom.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geom.Point{}, fmt.Errorf("point %q is not x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geom.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(x, y), nil
}

// session is a sample lens shown in a figure.
type session struct {
	cfg config.Config
	fig *plotview.Figure
	log *slog.Logger
}

func newSession(opts options) (*session, error) {
	path := opts.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level, _ := cfg.Level()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if opts.factory != "" {
		cfg.Edit.Factory = opts.factory
	}
	if opts.slope {
		cfg.Diagram.Type = string(diagram.Slope)
	}
	if opts.barrel > 0 {
		cfg.Diagram.BarrelConstraint = true
		cfg.Diagram.BarrelRadius = opts.barrel
	}
	if opts.slide {
		cfg.Diagram.EnableSlide = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := optical.Sample(opts.sample)
	if err != nil {
		return nil, err
	}
	d := diagram.New(m, diagram.Height)
	d.SetLogger(logger)
	if err := cfg.Apply(d); err != nil {
		return nil, err
	}

	title := opts.title
	if title == "" {
		title = fmt.Sprintf("%s (%s)", opts.sample, d.Type)
	}
	fig := plotview.New(d, title)
	fig.SetLogger(logger)
	fig.View.EnableSlide = cfg.Diagram.EnableSlide
	if err := fig.Refresh(diagram.BuildRebuild); err != nil {
		return nil, err
	}
	return &session{cfg: cfg, fig: fig, log: logger}, nil
}

func run(cmd string, args []string, out io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	s, err := newSession(opts)
	if err != nil {
		return err
	}

	switch cmd {
	case "info":
		printInfo(out, s.fig.Diagram.Model)
		return nil
	case "table":
		printTable(out, s.fig.Diagram.Model.Parax)
		return nil
	case "render":
		return s.write(out, opts.output, opts.title)
	case "plot":
		if opts.output == "" {
			return fmt.Errorf("plot needs -o <file>")
		}
		if err := s.fig.Save(opts.output); err != nil {
			return err
		}
		fmt.Fprintf(out, "Written: %s\n", opts.output)
		return nil
	}

	if opts.to == nil && cmd != "replace" {
		return fmt.Errorf("%s needs --to x,y", cmd)
	}
	switch cmd {
	case "drag":
		err = s.dragNode(opts.node, *opts.to, opts.slide)
	case "shift":
		err = s.shiftLine(opts.line, *opts.to)
	case "insert":
		err = s.insert(opts.edge, *opts.to)
	case "replace":
		err = s.replace(opts.node)
	}
	if err != nil {
		return err
	}
	printTable(out, s.fig.Diagram.Model.Parax)
	if opts.output == "" {
		return nil
	}
	return s.write(out, opts.output, opts.title)
}

func (s *session) write(out io.Writer, path, title string) error {
	if path == "" {
		return fmt.Errorf("render needs -o <file>")
	}
	format, err := render.FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	ro := s.cfg.RenderOptions()
	ro.Title = title
	if err := render.Write(s.fig.Diagram, f, format, ro); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Written: %s\n", path)
	return nil
}

// gesture presses at from, drags to to and releases there.
func (s *session) gesture(target diagram.Target, from, to geom.Point) error {
	d := s.fig.Diagram
	events := []diagram.Event{
		{Kind: diagram.Press, Pt: from, HasData: true},
		diagram.At(diagram.Drag, to.X, to.Y),
		diagram.At(diagram.Release, to.X, to.Y),
	}
	for _, ev := range events {
		if err := d.DoAction(s.fig, ev, target); err != nil {
			// leave the figure consistent with the lens
			if rerr := s.fig.Refresh(diagram.BuildFullRebuild); rerr != nil {
				s.log.Error("rebuild after failed gesture", "err", rerr)
			}
			return fmt.Errorf("%s on %s: %w", ev.Kind, target.Entity.Label(), err)
		}
	}
	return nil
}

func (s *session) commands() error {
	in, err := s.cfg.Inputs()
	if err != nil {
		return err
	}
	s.fig.Diagram.RegisterCommands(in)
	return nil
}

func (s *session) dragNode(node int, to geom.Point, slide bool) error {
	d := s.fig.Diagram
	if node < 0 || node >= len(d.Nodes) {
		return fmt.Errorf("node %d: %w", node, optical.ErrNodeRange)
	}
	if err := s.commands(); err != nil {
		return err
	}
	handle := "shape"
	if slide {
		handle = "slide"
		if _, ok := findHandle(d, d.Nodes[node], handle); !ok {
			return fmt.Errorf("node %d has no slide line", node)
		}
	}
	return s.gesture(diagram.Target{Entity: d.Nodes[node], Handle: handle}, d.Shape[node], to)
}

func findHandle(d *diagram.Diagram, e diagram.Entity, name string) (diagram.Handle, bool) {
	for _, dr := range d.Drawables() {
		if dr.Entity == e && dr.Name == name {
			return dr.Handle, true
		}
	}
	return diagram.Handle{}, false
}

func (s *session) shiftLine(line string, to geom.Point) error {
	d := s.fig.Diagram
	var cl *diagram.ConjugateLine
	switch line {
	case "object", "":
		cl = d.ObjectShift
	case "stop":
		cl = d.StopShift
	default:
		return fmt.Errorf("unknown line %q", line)
	}
	if cl == nil {
		return fmt.Errorf("no %s shift line in a %s diagram of this lens", line, d.Type)
	}
	if err := s.commands(); err != nil {
		return err
	}
	return s.gesture(diagram.Target{Entity: cl, Handle: "shape"}, to, to)
}

func (s *session) insert(edge int, to geom.Point) error {
	d := s.fig.Diagram
	if edge < 0 || edge >= len(d.Edges) {
		return fmt.Errorf("edge %d out of range", edge)
	}
	in, err := s.cfg.Inputs()
	if err != nil {
		return err
	}
	d.RegisterAddReplaceElement(in)
	e := d.Edges[edge]
	mid := d.Shape[edge].Add(d.Shape[edge+1]).Scale(0.5)
	return s.gesture(diagram.Target{Entity: e, Handle: "shape"}, mid, to)
}

func (s *session) replace(node int) error {
	d := s.fig.Diagram
	if node < 0 || node >= len(d.Nodes) {
		return fmt.Errorf("node %d: %w", node, optical.ErrNodeRange)
	}
	in, err := s.cfg.Inputs()
	if err != nil {
		return err
	}
	d.RegisterAddReplaceElement(in)
	p := d.Shape[node]
	return s.gesture(diagram.Target{Entity: d.Nodes[node], Handle: "shape"}, p, p)
}

func printInfo(w io.Writer, m *optical.Model) {
	sm := m.Seq
	stop := "floating"
	if sm.StopSurface >= 0 {
		stop = strconv.Itoa(sm.StopSurface)
	}
	fmt.Fprintf(w, "Surfaces:    %d\n", sm.NumSurfaces())
	fmt.Fprintf(w, "Stop:        %s\n", stop)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tlabel\tmode\tpower\tcv\tsd\tsag\tthi\tmedium\telement\ty range\taxis\t")
	axes := sm.AxisDirections()
	for i, ifc := range sm.Ifcs {
		sd := ifc.SurfaceOD()
		thi, medium := "", ""
		if i < len(sm.Gaps) {
			thi = fmt.Sprintf("%.4f", sm.Gaps[i].Thi)
			medium = sm.Gaps[i].Medium.Name
		}
		elem := ""
		if e := m.Ele.ForSurface(ifc); e != nil {
			elem = e.Label()
		}
		ext := ifc.YApertureExtent()
		// axis angle from +z in the y-z plane, degrees
		axis := math.Atan2(axes[i].Y, axes[i].Z) * 180 / math.Pi
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.6f\t%.6f\t%.3f\t%.4f\t%s\t%s\t%s\t%.3f..%.3f\t%.2f\t\n",
			i, ifc.Label, ifc.Mode, ifc.OpticalPower(), ifc.Profile.Cv, sd,
			ifc.Profile.Sag(0, sd), thi, medium, elem, ext[0], ext[1], axis)
	}
	tw.Flush()
	fmt.Fprintln(w)

	fod := m.Parax.FirstOrder()
	fmt.Fprintf(w, "EFL:         %.4f\n", fod.EFL)
	fmt.Fprintf(w, "Power:       %.6f\n", fod.Power)
	fmt.Fprintf(w, "Mag:         %.4f\n", fod.Magnification)
	fmt.Fprintf(w, "Object dist: %.4f\n", fod.ObjectDistance)
	fmt.Fprintf(w, "Image dist:  %.4f\n", fod.ImageDistance)
	fmt.Fprintf(w, "Total track: %.4f\n", fod.TotalTrack)
	fmt.Fprintf(w, "Invariant:   %.6f\n", fod.OptInv)
}

func printTable(w io.Writer, pm *optical.ParaxialModel) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tpwr\ttau\tn\ty\tu\tybar\tubar\tmode\t")
	for i, rec := range pm.Sys {
		fmt.Fprintf(tw, "%d\t%.6f\t%.4f\t%.4f\t%.4f\t%.6f\t%.4f\t%.6f\t%s\t\n",
			i, rec.Pwr, rec.Tau, rec.Indx, pm.Ax[i].Ht, pm.Ax[i].Slp, pm.Pr[i].Ht, pm.Pr[i].Slp, rec.Rmd)
	}
	tw.Flush()
}
