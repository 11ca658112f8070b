// Command paraxedit is a TUI editor for paraxial lens diagrams.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/paraxial-toolkit/pkg/config"
	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
	"github.com/ha1tch/paraxial-toolkit/pkg/render"
)

// Mode is the gesture binding of the canvas.
type Mode int

const (
	ModeEdit       Mode = iota // drag nodes and conjugate lines
	ModeAddReplace             // insert on edges, replace on nodes
)

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
)

// Editor holds all editor state
type Editor struct {
	screen     tcell.Screen
	cfg        config.Config
	configPath string
	sample     string
	dgm        *diagram.Diagram
	view       diagram.View
	mode       Mode

	// world limits shown on the canvas
	bounds geom.Bbox
	// set after a failed edit; the next refresh rebuilds the lens
	forceFull bool

	// mouse gesture
	mouseDown bool
	target    diagram.Target

	// Undo/Redo
	undoStack []*optical.Model
	redoStack []*optical.Model
	pending   *optical.Model // taken on press, kept once the gesture edits

	sidebarWidth int

	// msgMu guards message and messageFlashStart for the flash ticker.
	msgMu             sync.Mutex
	message           string
	messageType       MessageType
	messageFlashStart int64 // Unix milliseconds when message was shown

	log *slog.Logger
}

func main() {
	sample := "triplet"
	if len(os.Args) > 1 {
		sample = os.Args[1]
	}

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// the terminal belongs to the editor; debug logs go to a temp file
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if level, _ := cfg.Level(); level <= slog.LevelDebug {
		f, err := os.Create(filepath.Join(os.TempDir(), "paraxedit.log"))
		if err == nil {
			defer f.Close()
			logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	// Initialize screen
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()
	screen.Clear()

	ed, err := newEditor(screen, cfg, cfgPath, logger)
	if err == nil {
		err = ed.loadSample(sample)
	}
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ed.run()

	screen.Fini()
}

func newEditor(screen tcell.Screen, cfg config.Config, cfgPath string, logger *slog.Logger) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		screen:       screen,
		cfg:          cfg,
		configPath:   cfgPath,
		view:         diagram.View{EnableSlide: cfg.Diagram.EnableSlide},
		sidebarWidth: 34,
		bounds:       geom.EmptyBbox(),
		log:          logger,
	}, nil
}

// loadSample replaces the lens with a built in sample.
func (ed *Editor) loadSample(name string) error {
	m, err := optical.Sample(name)
	if err != nil {
		return err
	}
	if err := ed.setModel(m); err != nil {
		return err
	}
	ed.sample = name
	ed.undoStack, ed.redoStack, ed.pending = nil, nil, nil
	return nil
}

// setModel builds a fresh diagram for m with the configured settings.
func (ed *Editor) setModel(m *optical.Model) error {
	d := diagram.New(m, diagram.Height)
	d.SetLogger(ed.log)
	if err := ed.cfg.Apply(d); err != nil {
		return err
	}
	ed.dgm = d
	ed.bounds = geom.EmptyBbox()
	ed.forceFull = false
	if err := ed.registerMode(); err != nil {
		return err
	}
	return ed.Refresh(diagram.BuildRebuild)
}

func (ed *Editor) registerMode() error {
	in, err := ed.cfg.Inputs()
	if err != nil {
		return err
	}
	if ed.mode == ModeAddReplace {
		ed.dgm.RegisterAddReplaceElement(in)
	} else {
		ed.dgm.RegisterCommands(in)
	}
	return nil
}

// Refresh rebuilds the diagram handles. It is the refresh hook diagram
// actions call.
func (ed *Editor) Refresh(mode diagram.BuildMode) error {
	if ed.forceFull {
		mode = diagram.BuildFullRebuild
	}
	if _, err := ed.dgm.UpdateData(mode, ed.view); err != nil {
		ed.forceFull = true
		return err
	}
	ed.forceFull = false
	if mode != diagram.BuildUpdate || ed.bounds.IsEmpty() {
		return ed.fit()
	}
	return nil
}

// fit refits the canvas to the diagram.
func (ed *Editor) fit() error {
	ed.bounds = render.Bounds(ed.dgm)
	ed.view.Bounds = ed.bounds
	// conjugate lines size themselves from the view limits
	_, err := ed.dgm.UpdateData(diagram.BuildUpdate, ed.view)
	return err
}

func (ed *Editor) run() {
	// Use a goroutine to send periodic refresh events during any flash animation
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if ed.flashing(time.Now().UnixMilli()) {
				ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	for {
		ed.draw()
		ed.screen.Show()

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ed.screen.Sync()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		case *tcell.EventInterrupt:
			// redraw for the flash animation
		case nil:
			return
		}
	}
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyCtrlZ:
		ed.undo()
		return false
	case tcell.KeyCtrlY:
		ed.redo()
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'e':
		ed.setMode(ModeEdit)
	case 'a':
		ed.setMode(ModeAddReplace)
	case 's':
		ed.view.EnableSlide = !ed.view.EnableSlide
		ed.cfg.Diagram.EnableSlide = ed.view.EnableSlide
		ed.apply(diagram.BuildUpdate, fmt.Sprintf("Slide lines %s", onOff(ed.view.EnableSlide)))
		ed.saveConfig()
	case 'b':
		ed.dgm.DoBarrelConstraint = !ed.dgm.DoBarrelConstraint
		ed.cfg.Diagram.BarrelConstraint = ed.dgm.DoBarrelConstraint
		ed.apply(diagram.BuildRebuild, fmt.Sprintf("Barrel constraint %s", onOff(ed.dgm.DoBarrelConstraint)))
		ed.saveConfig()
	case 't':
		t := diagram.Slope
		if ed.dgm.Type == diagram.Slope {
			t = diagram.Height
		}
		ed.dgm.SetType(t)
		ed.cfg.Diagram.Type = string(t)
		ed.bounds = geom.EmptyBbox()
		ed.apply(diagram.BuildRebuild, fmt.Sprintf("%s diagram", typeName(t)))
		ed.saveConfig()
	case 'f':
		if err := ed.fit(); err != nil {
			ed.fail(err)
		}
	case 'm':
		ed.cycleFactory()
	case 'r':
		if ed.cfg.Edit.InteractMode == string(optical.Reflect) {
			ed.cfg.Edit.InteractMode = string(optical.Transmit)
		} else {
			ed.cfg.Edit.InteractMode = string(optical.Reflect)
		}
		if err := ed.registerMode(); err != nil {
			ed.fail(err)
			return false
		}
		ed.showMessage("Insert mode: "+ed.cfg.Edit.InteractMode, MsgSuccess)
	case 'n':
		ed.nextSample()
	case 'w':
		ed.writeImage()
	case 'z':
		ed.undo()
	case 'y':
		ed.redo()
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func typeName(t diagram.Type) string {
	if t == diagram.Slope {
		return "Slope"
	}
	return "Height"
}

func (ed *Editor) setMode(m Mode) {
	ed.mode = m
	if err := ed.registerMode(); err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage(ed.modeString(), MsgInfo)
}

// apply refreshes after a setting change and reports the result.
func (ed *Editor) apply(mode diagram.BuildMode, msg string) {
	if err := ed.Refresh(mode); err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage(msg, MsgSuccess)
}

func (ed *Editor) cycleFactory() {
	fs := optical.Factories
	next := fs[0]
	for i, f := range fs {
		if f.Name == ed.cfg.Edit.Factory {
			next = fs[(i+1)%len(fs)]
		}
	}
	ed.cfg.Edit.Factory = next.Name
	if err := ed.registerMode(); err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage("Factory: "+next.Name, MsgSuccess)
}

func (ed *Editor) nextSample() {
	names := optical.SampleNames()
	next := names[0]
	for i, n := range names {
		if n == ed.sample {
			next = names[(i+1)%len(names)]
		}
	}
	if err := ed.loadSample(next); err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage("Loaded "+next, MsgSuccess)
}

func (ed *Editor) writeImage() {
	path := ed.sample + "." + ed.cfg.Render.Format
	f, err := os.Create(path)
	if err != nil {
		ed.fail(err)
		return
	}
	opts := ed.cfg.RenderOptions()
	opts.Title = ed.sample
	err = render.Write(ed.dgm, f, ed.cfg.Render.Format, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage("Written: "+path, MsgSuccess)
}

func (ed *Editor) saveConfig() {
	if ed.configPath == "" {
		return
	}
	if err := config.Save(ed.configPath, ed.cfg); err != nil {
		ed.log.Warn("save config", "err", err)
	}
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pressed := ev.Buttons()&tcell.Button1 != 0
	p := ed.toWorld(x, y)

	switch {
	case pressed && !ed.mouseDown:
		w, h := ed.canvasSize()
		if x >= w || y >= h {
			return
		}
		ed.mouseDown = true
		t, ok := ed.dgm.Pick(p, ed.pickTolerance())
		if !ok {
			ed.target = diagram.Target{}
			return
		}
		ed.target = t
		ed.pending = ed.dgm.Model.Clone()
		ed.dispatch(diagram.Event{Kind: diagram.Press, Pt: p, HasData: true})
	case pressed && ed.mouseDown:
		ed.keepSnapshot(ed.dispatch(diagram.Event{Kind: diagram.Drag, Pt: p, HasData: true}))
	case !pressed && ed.mouseDown:
		ed.keepSnapshot(ed.dispatch(diagram.Event{Kind: diagram.Release, Pt: p, HasData: true}))
		ed.mouseDown = false
		ed.target = diagram.Target{}
		ed.pending = nil
	}
}

// dispatch sends ev to the picked handle and reports whether an action
// ran without error.
func (ed *Editor) dispatch(ev diagram.Event) bool {
	if ed.target.Entity == nil {
		return false
	}
	err := ed.dgm.DoAction(ed, ev, ed.target)
	if err == nil {
		return true
	}
	if errors.Is(err, diagram.ErrNoGesture) {
		return false
	}
	ed.fail(fmt.Errorf("%s %s: %w", ev.Kind, ed.target.Entity.Label(), err))
	ed.target = diagram.Target{}
	ed.pending = nil
	return false
}

// Undo/Redo operations

const maxUndoLevels = 50

// keepSnapshot pushes the lens taken at press time once the gesture has
// changed something.
func (ed *Editor) keepSnapshot(changed bool) {
	if !changed || ed.pending == nil {
		return
	}
	ed.undoStack = append(ed.undoStack, ed.pending)
	if len(ed.undoStack) > maxUndoLevels {
		ed.undoStack = ed.undoStack[1:]
	}
	// Clear redo stack on new action
	ed.redoStack = nil
	ed.pending = nil
}

func (ed *Editor) undo() {
	if len(ed.undoStack) == 0 {
		ed.showMessage("Nothing to undo", MsgInfo)
		return
	}
	m := ed.undoStack[len(ed.undoStack)-1]
	ed.undoStack = ed.undoStack[:len(ed.undoStack)-1]
	ed.redoStack = append(ed.redoStack, ed.dgm.Model.Clone())
	if err := ed.setModel(m); err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage("Undo", MsgSuccess)
}

func (ed *Editor) redo() {
	if len(ed.redoStack) == 0 {
		ed.showMessage("Nothing to redo", MsgInfo)
		return
	}
	m := ed.redoStack[len(ed.redoStack)-1]
	ed.redoStack = ed.redoStack[:len(ed.redoStack)-1]
	ed.undoStack = append(ed.undoStack, ed.dgm.Model.Clone())
	if err := ed.setModel(m); err != nil {
		ed.fail(err)
		return
	}
	ed.showMessage("Redo", MsgSuccess)
}

// fail reports err and rebuilds the lens from the sequential model.
func (ed *Editor) fail(err error) {
	ed.log.Error("edit failed", "err", err)
	ed.showMessage(err.Error(), MsgError)
	ed.forceFull = true
	if rerr := ed.Refresh(diagram.BuildFullRebuild); rerr != nil {
		ed.log.Error("rebuild", "err", rerr)
	}
}

// flashing reports whether the current message is still animating at
// now (Unix milliseconds). Safe to call from the ticker goroutine.
func (ed *Editor) flashing(now int64) bool {
	ed.msgMu.Lock()
	defer ed.msgMu.Unlock()
	if ed.message == "" || ed.messageFlashStart <= 0 {
		return false
	}
	elapsed := now - ed.messageFlashStart
	return elapsed >= 0 && elapsed < 700
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.msgMu.Lock()
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart = time.Now().UnixMilli()
	ed.msgMu.Unlock()
	// Trigger immediate refresh for flash animation
	if ed.screen != nil {
		ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}
