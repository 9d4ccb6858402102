// scanline - software 3D renderer and model viewer
// Renders built-in shapes, glTF models and YAML scenes to the terminal, a
// desktop window or a PNG file.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset rotation and zoom
//	T           - Toggle texturing
//	L           - Toggle lighting
//	C           - Toggle backface culling
//	F           - Swap the culled face
//	?           - Toggle status line
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/taigrr/scanline/pkg/display"
	"github.com/taigrr/scanline/pkg/render"
)

var (
	texturePath  = flag.String("texture", "", "Path to texture image (PNG/JPG)")
	targetFPS    = flag.Int("fps", 60, "Target FPS")
	bgColor      = flag.String("bg", "#1e1e28", "Background color (#rrggbb)")
	shapeName    = flag.String("shape", "", "Built-in shape: cube, quad, axes, grid, wirecube")
	scenePath    = flag.String("scene", "", "YAML scene file")
	windowMode   = flag.Bool("window", false, "Open a desktop window instead of drawing to the terminal")
	windowScale  = flag.Int("scale", 2, "Window pixel scale")
	frameSize    = flag.String("size", "320x240", "Frame size for -window and -snapshot (WxH)")
	snapshotPath = flag.String("snapshot", "", "Render one frame to this PNG file and exit")
	introSeconds = flag.Float64("intro", 1.5, "Fly-in duration in seconds, 0 to skip")
	logLevel     = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	logFile      = flag.String("log-file", "", "Write logs here instead of stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "scanline - software 3D renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: scanline [options] [model.glb|model.gltf]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  T/L/C/F     - Texturing, lighting, culling, culled face\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle status line\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	closeLog, err := setupLogger(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	opt := Options{
		FPS:        *targetFPS,
		Model:      flag.Arg(0),
		Shape:      *shapeName,
		Texture:    *texturePath,
		Background: *bgColor,
		Scene:      *scenePath,
		Intro:      *introSeconds,
	}

	switch {
	case *snapshotPath != "":
		err = runSnapshot(opt, *snapshotPath)
	case *windowMode:
		err = runWindow(opt)
	default:
		err = runTerminal(opt)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// setupLogger installs a text logger for the render packages.
func setupLogger(level, path string) (func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	out, closeFn := os.Stderr, func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log: %w", err)
		}
		out, closeFn = f, func() { f.Close() }
	}
	render.SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})))
	return closeFn, nil
}

func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	return w, h, nil
}

// runSnapshot renders a single frame at a fixed angle and saves it.
func runSnapshot(opt Options, path string) error {
	w, h, err := parseSize(*frameSize)
	if err != nil {
		return err
	}
	opt.Intro = 0
	sink := display.NewSnapshot(w, h)
	v, err := NewViewer(sink, opt)
	if err != nil {
		return err
	}
	v.Rotation.Pitch.Position = 0.4
	v.Rotation.Yaw.Position = 0.6
	sink.Caption = v.name
	if err := v.Frame(0); err != nil {
		return err
	}
	st := v.Renderer().Stats()
	render.Logger().Info("snapshot",
		"path", path,
		"triangles", st.Triangles,
		"culled", st.Culled,
		"lines", st.Lines)
	return sink.Save(path)
}

// ebitenKeys maps window keys to the names Viewer.Key understands.
var ebitenKeys = []struct {
	key  ebiten.Key
	name string
}{
	{ebiten.KeyEscape, "esc"},
	{ebiten.KeyW, "w"}, {ebiten.KeyS, "s"}, {ebiten.KeyA, "a"}, {ebiten.KeyD, "d"},
	{ebiten.KeyArrowUp, "up"}, {ebiten.KeyArrowDown, "down"},
	{ebiten.KeyArrowLeft, "left"}, {ebiten.KeyArrowRight, "right"},
	{ebiten.KeyQ, "q"}, {ebiten.KeyE, "e"},
	{ebiten.KeySpace, "space"}, {ebiten.KeyR, "r"},
	{ebiten.KeyT, "t"}, {ebiten.KeyL, "l"}, {ebiten.KeyC, "c"}, {ebiten.KeyF, "f"},
	{ebiten.KeyEqual, "+"}, {ebiten.KeyMinus, "-"}, {ebiten.KeySlash, "?"},
}

func runWindow(opt Options) error {
	w, h, err := parseSize(*frameSize)
	if err != nil {
		return err
	}
	win := display.NewWindow(w, h)
	v, err := NewViewer(win, opt)
	if err != nil {
		return err
	}
	v.ShowHUD = true

	last := time.Now()
	var dragX, dragY int
	win.Step = func() error {
		for _, k := range ebitenKeys {
			if inpututil.IsKeyJustPressed(k.key) && v.Key(k.name) {
				return ebiten.Termination
			}
			if inpututil.IsKeyJustReleased(k.key) {
				v.Release(k.name)
			}
		}
		x, y := ebiten.CursorPosition()
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			v.Drag(x-dragX, y-dragY)
		}
		dragX, dragY = x, y
		if _, dy := ebiten.Wheel(); dy != 0 {
			v.Zoom.Step(-dy * 0.5)
		}

		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now
		if err := v.Frame(dt); err != nil {
			return err
		}
		if v.ShowHUD {
			win.SetCaption(v.Status())
		} else {
			win.SetCaption("")
		}
		return nil
	}
	return win.Run("scanline - "+v.name, *windowScale, opt.FPS)
}

func runTerminal(opt Options) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	sink := display.NewTerminal(width, height)
	v, err := NewViewer(sink, opt)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(opt.FPS))
	defer ticker.Stop()

	var mouseDown bool
	var lastX, lastY int
	last := time.Now()
	events := term.Events()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				sink.Resize(width, height)
				if err := v.Resize(sink.Size()); err != nil {
					return err
				}
			case uv.KeyPressEvent:
				if v.Key(keyName(ev)) {
					return nil
				}
			case uv.KeyReleaseEvent:
				v.Release(keyName(ev))
			case uv.MouseClickEvent:
				mouseDown = true
				lastX, lastY = ev.X, ev.Y
			case uv.MouseReleaseEvent:
				mouseDown = false
			case uv.MouseMotionEvent:
				if mouseDown {
					v.Drag(ev.X-lastX, ev.Y-lastY)
					lastX, lastY = ev.X, ev.Y
				}
			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					v.Zoom.Step(-0.5)
				case uv.MouseWheelDown:
					v.Zoom.Step(0.5)
				}
			}

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := v.Frame(dt); err != nil {
				return err
			}
			sink.Draw(term, uv.Rect(0, 0, width, height))
			if v.ShowHUD {
				drawStatus(term, v.Status(), width)
			}
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

// keyNames are the keys Viewer.Key and Viewer.Release act on.
var keyNames = []string{
	"esc", "ctrl+c",
	"w", "s", "a", "d", "up", "down", "left", "right", "q", "e",
	"space", "r", "t", "l", "c", "f", "+", "=", "-", "_", "?", "shift+/",
}

func keyName(ev interface{ MatchString(...string) bool }) string {
	for _, k := range keyNames {
		if ev.MatchString(k) {
			return k
		}
	}
	return ""
}

// drawStatus writes s across the top row.
func drawStatus(scr interface{ SetCell(int, int, *uv.Cell) }, s string, width int) {
	style := uv.Style{Fg: color.White, Bg: color.Black}
	col := 0
	for _, r := range s {
		if col >= width {
			return
		}
		scr.SetCell(col, 0, &uv.Cell{Content: string(r), Width: 1, Style: style})
		col++
	}
}
