// meshsimp is a CLI utility for inspecting and simplifying triangle meshes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/ttzck/gm-meshproc/internal/config"
	"github.com/ttzck/gm-meshproc/internal/logger"
	"github.com/ttzck/gm-meshproc/pkg/decimate"
	"github.com/ttzck/gm-meshproc/pkg/formats"
	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "decimate", "simplify":
		err = cmdDecimate(args)
	case "error":
		err = cmdError(args)
	case "gen":
		err = cmdGen(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshsimp - quadric error mesh simplification

Usage:
  meshsimp <command> [options]

Commands:
  info <mesh>                       Show mesh statistics
  decimate [options] <in> <out>     Simplify a mesh
  error <mesh>                      Print the initial quadric error
  gen <shape> <out>                 Write a test shape (tetra, icosa, sphere, grid)

Decimate options:
  -target N          Keep N vertices (0 collapses as far as possible)
  -percent P         Keep P percent of the vertices (default from config)
  -mode M            Collapse cost: target or minimizer
  -max-error E       Stop once the cheapest collapse costs more than E
  -keep-positions    Skip moving vertices to their quadric minimizers
  -config path       Config file
  -debug             Debug logging

Examples:
  meshsimp info bunny.off
  meshsimp decimate -percent 10 bunny.off bunny_small.obj
  meshsimp gen -level 4 sphere sphere.off`)
}

// loadMesh loads path and reports skipped faces on stderr.
func loadMesh(path string) (*mesh.Mesh, error) {
	m, skipped, err := formats.Load(path)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d faces skipped (non-manifold or degenerate)\n", skipped)
	}
	return m, nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: meshsimp info <mesh>")
	}

	m, err := loadMesh(args[0])
	if err != nil {
		return err
	}

	boundary := 0
	for e := range m.Edges() {
		if m.IsBoundaryEdge(e) {
			boundary++
		}
	}
	box := m.Bounds()
	size := box.Size()

	fmt.Printf("Mesh:      %s\n", args[0])
	fmt.Printf("Vertices:  %d\n", m.NumVertices())
	fmt.Printf("Edges:     %d (%d boundary)\n", m.NumEdges(), boundary)
	fmt.Printf("Faces:     %d\n", m.NumFaces())
	fmt.Printf("Triangles: %v\n", m.IsTriangleMesh())
	fmt.Printf("Euler:     %d\n", m.NumVertices()-m.NumEdges()+m.NumFaces())
	fmt.Printf("Bounds:    %.4g x %.4g x %.4g\n", size.X, size.Y, size.Z)
	if err := m.Validate(); err != nil {
		fmt.Printf("Validate:  %v\n", err)
	}
	return nil
}

func cmdDecimate(args []string) error {
	fs := flag.NewFlagSet("decimate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	target := fs.Int("target", -1, "Keep N vertices (default: from -percent)")
	percent := fs.Float64("percent", 0, "Keep P percent of the vertices")
	mode := fs.String("mode", "", "Collapse cost: target or minimizer")
	maxError := fs.Float64("max-error", -1, "Stop once the cheapest collapse costs more")
	keepPositions := fs.Bool("keep-positions", false, "Skip the minimizer pass")
	workers := fs.Int("workers", 0, "Worker goroutines")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return errors.New("usage: meshsimp decimate [options] <in> <out>")
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	if *percent > 0 {
		cfg.Decimation.TargetPercent = *percent
	}
	if *mode != "" {
		cfg.Decimation.CostMode = *mode
	}
	if *maxError >= 0 {
		cfg.Decimation.MaxError = *maxError
	}
	if *keepPositions {
		cfg.Decimation.KeepPositions = true
	}
	if *workers > 0 {
		cfg.Decimation.Workers = *workers
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}

	opts, err := cfg.Decimation.Options(logger.Named("decimate"))
	if err != nil {
		return err
	}

	m, err := loadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	n := resolveTarget(*target, m.NumVertices(), cfg.Decimation.TargetPercent)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := decimate.Simplify(ctx, m, n, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("decimation interrupted; writing partial result")
			m.GarbageCollect()
		} else {
			return err
		}
	}

	if err := formats.Save(fs.Arg(1), m); err != nil {
		return err
	}

	fmt.Printf("Vertices:  %d -> %d (target %d)\n", stats.InitialVertices, stats.FinalVertices, n)
	fmt.Printf("Faces:     %d -> %d\n", stats.InitialFaces, stats.FinalFaces)
	fmt.Printf("Collapses: %d (%d rejected)\n", stats.Collapses, stats.Rejected)
	fmt.Printf("Stopped:   %s\n", stats.Reason)
	fmt.Printf("Error:     %.6g\n", stats.ErrorAfter)
	fmt.Printf("Elapsed:   %s\n", stats.Elapsed)
	logger.Debug("decimate done", zap.String("out", fs.Arg(1)), zap.Object("stats", stats))
	return nil
}

// resolveTarget returns target when it was given and the percentage of
// numVertices otherwise. A negative target means unset.
func resolveTarget(target, numVertices int, percent float64) int {
	if target >= 0 {
		return target
	}
	return decimate.TargetFromPercent(numVertices, percent)
}

func cmdError(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: meshsimp error <mesh>")
	}

	m, err := loadMesh(args[0])
	if err != nil {
		return err
	}

	d := decimate.New(m, decimate.DefaultOptions())
	if err := d.Initialize(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Quadric error: %.6g\n", d.QuadricError())
	return nil
}

func cmdGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	level := fs.Int("level", 3, "Subdivision level for sphere")
	size := fs.Int("n", 16, "Cells per side for grid")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return errors.New("usage: meshsimp gen [-level L] [-n N] <tetra|icosa|sphere|grid> <out>")
	}

	var m *mesh.Mesh
	switch strings.ToLower(fs.Arg(0)) {
	case "tetra", "tetrahedron":
		m = mesh.Tetrahedron()
	case "icosa", "icosahedron":
		m = mesh.Icosahedron()
	case "sphere", "icosphere":
		m = mesh.Icosphere(*level)
	case "grid":
		m = mesh.Grid(*size)
	default:
		return fmt.Errorf("unknown shape %q", fs.Arg(0))
	}

	if err := formats.Save(fs.Arg(1), m); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d vertices, %d faces\n", fs.Arg(1), m.NumVertices(), m.NumFaces())
	return nil
}
