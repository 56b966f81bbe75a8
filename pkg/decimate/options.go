package decimate

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// CostMode selects where the merged quadric of a collapse is evaluated.
type CostMode int

const (
	// CostAtTarget evaluates the merged quadric at the surviving vertex.
	CostAtTarget CostMode = iota
	// CostAtMinimizer evaluates the merged quadric at its minimizer and
	// falls back to CostAtTarget when the minimizer is singular.
	CostAtMinimizer
)

// ErrUnknownCostMode is returned by ParseCostMode.
var ErrUnknownCostMode = errors.New("unknown cost mode")

// String returns the configuration name of the mode.
func (m CostMode) String() string {
	switch m {
	case CostAtTarget:
		return "target"
	case CostAtMinimizer:
		return "minimizer"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseCostMode parses "target" or "minimizer".
func ParseCostMode(s string) (CostMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "target", "":
		return CostAtTarget, nil
	case "minimizer", "optimal":
		return CostAtMinimizer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCostMode, s)
	}
}

// Options configures a Decimater.
type Options struct {
	// CostMode selects the collapse cost.
	CostMode CostMode
	// MaxError stops decimation once the cheapest collapse costs more.
	// Zero disables the limit.
	MaxError float64
	// KeepPositions skips moving the surviving vertices to their quadric
	// minimizers after the collapses.
	KeepPositions bool
	// Workers bounds the goroutines used for quadric initialization,
	// priority computation and the final position pass. Zero means
	// GOMAXPROCS.
	Workers int
	// Logger receives progress messages. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the options used by the reference algorithm.
func DefaultOptions() Options {
	return Options{CostMode: CostAtTarget}
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// TargetFromPercent converts a percentage of vertices to keep into a vertex
// count. The percentage is clamped to [0, 100].
func TargetFromPercent(numVertices int, percent float64) int {
	percent = max(0, min(100, percent))
	return int(float64(numVertices) * 0.01 * percent)
}
