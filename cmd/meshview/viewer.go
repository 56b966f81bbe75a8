package main

import (
	"context"
	"fmt"
	gomath "math"
	"path/filepath"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/ttzck/gm-meshproc/internal/config"
	"github.com/ttzck/gm-meshproc/internal/engine/camera"
	"github.com/ttzck/gm-meshproc/internal/engine/debug"
	"github.com/ttzck/gm-meshproc/internal/engine/input"
	"github.com/ttzck/gm-meshproc/internal/engine/model"
	"github.com/ttzck/gm-meshproc/internal/engine/renderer"
	"github.com/ttzck/gm-meshproc/internal/engine/window"
	"github.com/ttzck/gm-meshproc/internal/logger"
	"github.com/ttzck/gm-meshproc/pkg/decimate"
	"github.com/ttzck/gm-meshproc/pkg/formats"
	"github.com/ttzck/gm-meshproc/pkg/math"
	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

// viewer holds the application state of meshview.
type viewer struct {
	cfg *config.Config
	log *zap.Logger

	win      *window.Window
	input    *input.Input
	camera   *camera.OrbitCamera
	renderer *renderer.Renderer

	path     string
	original *mesh.Mesh // As loaded, for reload
	current  *mesh.Mesh
	fit      math.Mat4 // Fixed at load so decimation does not shift the view

	mode      decimate.CostMode
	wireframe bool
	bbox      bool

	screenshots *debug.ScreenshotCapture
	wantShot    bool // Capture after the next draw, before the swap

	// Paths picked in the file dialog, handed to the main thread
	pending chan string
}

func newViewer(cfg *config.Config, win *window.Window) (*viewer, error) {
	mode, err := decimate.ParseCostMode(cfg.Decimation.CostMode)
	if err != nil {
		return nil, err
	}

	r, err := renderer.New(logger.Named("renderer"))
	if err != nil {
		return nil, err
	}
	r.Background = cfg.Viewer.Background

	v := &viewer{
		cfg:       cfg,
		log:       logger.Named("viewer"),
		win:       win,
		input:     input.New(),
		camera:    camera.NewOrbitCamera(),
		renderer:  r,
		fit:       math.Identity(),
		mode:      mode,
		wireframe: cfg.Viewer.Wireframe,
		pending:   make(chan string, 1),

		screenshots: debug.NewScreenshotCapture("screenshots", windowTitle),
	}
	v.renderer.Resize(win.DrawableSize())
	v.updateTitle()
	return v, nil
}

func (v *viewer) close() {
	v.renderer.Close()
}

// open loads path and makes it the reload source.
func (v *viewer) open(path string) error {
	m, skipped, err := formats.Load(path)
	if err != nil {
		return err
	}
	if skipped > 0 {
		v.log.Warn("faces skipped while loading", zap.String("path", path), zap.Int("skipped", skipped))
	}
	if !m.IsTriangleMesh() {
		v.log.Warn("mesh has non-triangle faces; decimation quality may suffer", zap.String("path", path))
	}

	v.path = path
	v.original = m
	v.fit = math.ModelFit(m.Bounds())
	v.camera.Reset()
	v.setMesh(m.Clone())

	v.log.Info("mesh loaded",
		zap.String("path", path),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("faces", m.NumFaces()),
	)
	return nil
}

func (v *viewer) setMesh(m *mesh.Mesh) {
	v.current = m
	buffers := model.BuildMesh(m)
	v.renderer.Upload(buffers)
	v.renderer.SetOverlay(debug.BBoxWireframe(buffers.Bounds, 0))
	v.updateTitle()
}

// reload restores the mesh as it was loaded.
func (v *viewer) reload() {
	if v.original == nil {
		return
	}
	v.setMesh(v.original.Clone())
	v.log.Info("mesh reloaded", zap.String("path", v.path))
}

// decimate keeps percent of the current vertices.
func (v *viewer) decimate(percent float64) {
	if v.current == nil {
		return
	}

	opts, err := v.cfg.Decimation.Options(logger.Named("decimate"))
	if err != nil {
		v.log.Error("invalid decimation settings", zap.Error(err))
		return
	}
	opts.CostMode = v.mode

	target := decimate.TargetFromPercent(v.current.NumVertices(), percent)
	start := time.Now()
	stats, err := decimate.Simplify(context.Background(), v.current, target, opts)
	if err != nil {
		v.log.Error("decimation failed", zap.Error(err))
		return
	}
	v.log.Info("decimate",
		zap.Float64("percent", percent),
		zap.Int("target", target),
		zap.Duration("took", time.Since(start)),
		zap.Object("stats", stats),
	)
	v.setMesh(v.current)
}

// openDialog shows a native file dialog without blocking the render loop.
func (v *viewer) openDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Meshes", "off", "obj").
			Filter("All Files", "*").
			Title("Open Mesh").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				v.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case v.pending <- path:
		default:
		}
	}()
}

// screenshot saves the back buffer.
func (v *viewer) screenshot() {
	w, h := v.win.DrawableSize()
	path, err := v.screenshots.CaptureFromPixels(v.renderer.ReadPixels(w, h), int(w), int(h))
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *viewer) updateTitle() {
	title := windowTitle
	if v.current != nil {
		title = fmt.Sprintf("%s - %s - %d vertices, %d faces - cost: %s",
			windowTitle, filepath.Base(v.path),
			v.current.NumVertices(), v.current.NumFaces(), v.mode)
	}
	v.win.SetTitle(title)
}

// handleKey dispatches a key press. Returns false to quit.
func (v *viewer) handleKey(key sdl.Keycode) bool {
	switch {
	case key >= sdl.K_1 && key <= sdl.K_9:
		v.decimate(float64(key-sdl.K_0) * 10)
	case key == sdl.K_RETURN:
		v.decimate(v.cfg.Decimation.TargetPercent)
	case key == sdl.K_m:
		if v.mode == decimate.CostAtTarget {
			v.mode = decimate.CostAtMinimizer
		} else {
			v.mode = decimate.CostAtTarget
		}
		v.log.Info("cost mode changed", zap.Stringer("mode", v.mode))
		v.updateTitle()
	case key == sdl.K_w:
		v.wireframe = !v.wireframe
	case key == sdl.K_b:
		v.bbox = !v.bbox
	case key == sdl.K_F12:
		v.wantShot = true
	case key == sdl.K_BACKSPACE:
		v.reload()
	case key == sdl.K_o:
		v.openDialog()
	case key == sdl.K_r:
		v.camera.Reset()
	case key == sdl.K_f:
		if v.current != nil {
			v.camera.Focus(v.fit, v.current.Bounds())
		}
	case key == sdl.K_ESCAPE:
		return false
	}
	return true
}

func (v *viewer) run() {
	running := true
	for running {
		if v.input.Update() {
			break
		}

		for _, e := range v.input.Events() {
			switch e.Type {
			case input.EventWindowResize:
				v.renderer.Resize(v.win.DrawableSize())
			case input.EventKeyDown:
				running = running && v.handleKey(e.Key)
			case input.EventDrag:
				v.camera.HandleDrag(e.DeltaX, e.DeltaY)
			case input.EventWheel:
				v.camera.HandleZoom(e.DeltaY)
			}
		}

		select {
		case path := <-v.pending:
			if err := v.open(path); err != nil {
				v.log.Error("failed to open mesh", zap.String("path", path), zap.Error(err))
			}
		default:
		}

		w, h := v.win.DrawableSize()
		aspect := float32(1)
		if h > 0 {
			aspect = float32(w) / float32(h)
		}
		fovY := v.cfg.Viewer.FOV * gomath.Pi / 180

		v.renderer.Draw(renderer.Frame{
			Model:      v.fit,
			View:       v.camera.ViewMatrix(),
			Projection: math.Perspective(fovY, aspect, 0.01, 100),
			Wireframe:  v.wireframe,
			Overlay:    v.bbox,
		})
		if v.wantShot {
			v.wantShot = false
			v.screenshot()
		}
		v.win.SwapBuffers()
	}
}
