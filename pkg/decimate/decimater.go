// Package decimate simplifies triangle meshes by greedy halfedge collapses
// ranked with quadric error metrics.
//
// Every vertex accumulates the quadrics of its incident face planes. A
// collapse of v0 into v1 merges their quadrics, so the quadric of a vertex
// measures the squared distance to all planes of the original surface it
// now stands for. Collapses run cheapest first until the vertex target is
// met or no legal collapse remains, after which each vertex may be moved to
// the point minimizing its quadric.
package decimate

import (
	"context"
	"errors"
	"fmt"
	stdmath "math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

// ErrNotInitialized is returned by Decimate before Initialize was called.
var ErrNotInitialized = errors.New("decimater not initialized")

// StopReason tells why Decimate returned.
type StopReason int

const (
	// StopNone means the mesh was already at or below the target.
	StopNone StopReason = iota
	// StopTarget means the vertex target was reached.
	StopTarget
	// StopExhausted means no legal collapse was left.
	StopExhausted
	// StopMaxError means the cheapest collapse exceeded Options.MaxError.
	StopMaxError
)

// String returns a human-readable reason.
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopTarget:
		return "target reached"
	case StopExhausted:
		return "no legal collapse"
	case StopMaxError:
		return "max error exceeded"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Stats summarizes one Decimate call.
type Stats struct {
	InitialVertices  int
	InitialFaces     int
	FinalVertices    int
	FinalFaces       int
	Collapses        int
	Rejected         int // candidates found illegal when dequeued
	SingularVertices int // vertices kept in place by the position pass
	ErrorBefore      float64
	ErrorAfter       float64
	Reason           StopReason
	Elapsed          time.Duration
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("vertices_before", s.InitialVertices)
	enc.AddInt("vertices_after", s.FinalVertices)
	enc.AddInt("faces_before", s.InitialFaces)
	enc.AddInt("faces_after", s.FinalFaces)
	enc.AddInt("collapses", s.Collapses)
	enc.AddInt("rejected", s.Rejected)
	enc.AddInt("singular", s.SingularVertices)
	enc.AddFloat64("error_before", s.ErrorBefore)
	enc.AddFloat64("error_after", s.ErrorAfter)
	enc.AddString("reason", s.Reason.String())
	enc.AddDuration("elapsed", s.Elapsed)
	return nil
}

// Decimater owns the per-vertex quadrics and per-halfedge priorities of one
// mesh. It mutates the mesh through its edit API only and is not safe for
// concurrent use.
type Decimater struct {
	mesh *mesh.Mesh
	opts Options
	log  *zap.Logger

	quadrics    []Quadric
	queue       *collapseQueue
	stamp       []uint32
	generation  uint32
	initialized bool
}

// New returns a decimater for m.
func New(m *mesh.Mesh, opts Options) *Decimater {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Decimater{
		mesh: m,
		opts: opts,
		log:  log,
	}
}

// Mesh returns the mesh being simplified.
func (d *Decimater) Mesh() *mesh.Mesh { return d.mesh }

// SetCostMode changes the collapse cost used by the next Decimate call.
func (d *Decimater) SetCostMode(mode CostMode) { d.opts.CostMode = mode }

// Quadric returns the accumulated quadric of v.
func (d *Decimater) Quadric(v mesh.Vertex) Quadric { return d.quadrics[v] }

// Priority returns the last computed collapse cost of h, +Inf if h is
// illegal or has not been ranked yet.
func (d *Decimater) Priority(h mesh.Halfedge) float64 {
	if d.queue == nil {
		return stdmath.Inf(1)
	}
	return d.queue.cost(h)
}

// Reset discards all quadrics.
func (d *Decimater) Reset() {
	d.quadrics = nil
	d.queue = nil
	d.initialized = false
}

// Initialize accumulates the plane quadric of every incident face into each
// vertex. Faces with a degenerate normal contribute nothing. Calling it again
// without Reset adds the planes a second time.
func (d *Decimater) Initialize(ctx context.Context) error {
	m := d.mesh
	if len(d.quadrics) < m.VertexSlots() {
		grown := make([]Quadric, m.VertexSlots())
		copy(grown, d.quadrics)
		d.quadrics = grown
	}

	err := d.parallel(ctx, m.VertexSlots(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := mesh.Vertex(i)
			if m.IsDeletedVertex(v) {
				continue
			}
			p := m.Position(v)
			for f := range m.FacesAround(v) {
				n := m.FaceNormal(f)
				if n.SqrLength() == 0 {
					continue
				}
				d.quadrics[v].Add(QuadricFromPlane(n, p))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("initialize quadrics: %w", err)
	}

	d.initialized = true
	d.log.Debug("quadrics initialized",
		zap.Int("vertices", m.NumVertices()),
		zap.Int("workers", d.opts.workers()))
	return nil
}

// QuadricError returns the sum over live vertices of their quadric evaluated
// at their position. It is zero right after Initialize.
func (d *Decimater) QuadricError() float64 {
	var sum float64
	for v := range d.mesh.Vertices() {
		if int(v) < len(d.quadrics) {
			sum += d.quadrics[v].Evaluate(d.mesh.Position(v))
		}
	}
	return sum
}

// IsCollapseLegal reports whether collapsing h keeps the mesh manifold, does
// not pull a boundary vertex into the interior, and flips no face.
func (d *Decimater) IsCollapseLegal(h mesh.Halfedge) bool {
	m := d.mesh
	if m.IsDeletedHalfedge(h) || !m.IsCollapseOK(h) {
		return false
	}
	v0, v1 := m.FromVertex(h), m.ToVertex(h)
	if m.IsBoundaryVertex(v0) && !m.IsBoundaryVertex(v1) {
		return false
	}

	p1 := m.Position(v1)
	for f := range m.FacesAround(v0) {
		if faceHasVertex(m, f, v1) {
			continue
		}
		before := m.FaceNormal(f)
		after := m.FaceNormalWith(f, v0, p1)
		if before.Dot(after) < 0 {
			return false
		}
	}
	return true
}

func faceHasVertex(m *mesh.Mesh, f mesh.Face, v mesh.Vertex) bool {
	for u := range m.VerticesOf(f) {
		if u == v {
			return true
		}
	}
	return false
}

// CollapseCost returns the cost of collapsing h, +Inf if it is illegal.
func (d *Decimater) CollapseCost(h mesh.Halfedge) float64 {
	if !d.IsCollapseLegal(h) {
		return stdmath.Inf(1)
	}
	m := d.mesh
	v0, v1 := m.FromVertex(h), m.ToVertex(h)
	q := d.quadrics[v0].Plus(d.quadrics[v1])
	if d.opts.CostMode == CostAtMinimizer {
		if p, err := q.Minimizer(); err == nil {
			return q.Evaluate(p)
		}
	}
	return q.Evaluate(m.Position(v1))
}

// Decimate collapses halfedges, cheapest first, until the mesh has target
// vertices or no legal collapse remains. Removed elements are only marked
// deleted; call GarbageCollect on the mesh afterwards. Cancelling ctx stops
// the loop between collapses and leaves a consistent mesh.
func (d *Decimater) Decimate(ctx context.Context, target int) (Stats, error) {
	start := time.Now()
	m := d.mesh
	stats := Stats{
		InitialVertices: m.NumVertices(),
		InitialFaces:    m.NumFaces(),
	}
	finish := func() Stats {
		stats.FinalVertices = m.NumVertices()
		stats.FinalFaces = m.NumFaces()
		stats.Elapsed = time.Since(start)
		return stats
	}

	target = max(target, 0)
	if m.IsEmpty() || target >= m.NumVertices() {
		return finish(), nil
	}
	if !d.initialized {
		return finish(), ErrNotInitialized
	}

	stats.ErrorBefore = d.QuadricError()
	if err := d.rankAll(ctx); err != nil {
		return finish(), fmt.Errorf("decimate: %w", err)
	}

	for m.NumVertices() > target {
		if err := ctx.Err(); err != nil {
			return finish(), fmt.Errorf("decimate: %w", err)
		}

		h, cost, ok := d.queue.peek()
		if !ok || stdmath.IsInf(cost, 1) {
			stats.Reason = StopExhausted
			d.log.Debug("no legal collapse left", zap.Int("vertices", m.NumVertices()))
			break
		}
		if d.opts.MaxError > 0 && cost > d.opts.MaxError {
			stats.Reason = StopMaxError
			break
		}
		if !d.IsCollapseLegal(h) {
			d.queue.update(h, stdmath.Inf(1))
			stats.Rejected++
			continue
		}

		v0, v1 := m.FromVertex(h), m.ToVertex(h)
		d.quadrics[v1].Add(d.quadrics[v0])

		prev, oppNext := m.Prev(h), m.Next(h^1)
		m.Collapse(h)
		for _, x := range [...]mesh.Halfedge{h, prev, oppNext} {
			if m.IsDeletedHalfedge(x) {
				d.queue.remove(x)
				d.queue.remove(x ^ 1)
			}
		}
		stats.Collapses++
		d.rerank(v1)
	}
	if stats.Reason == StopNone {
		stats.Reason = StopTarget
	}

	if !d.opts.KeepPositions {
		singular, err := d.optimizePositions(ctx)
		if err != nil {
			return finish(), fmt.Errorf("decimate: %w", err)
		}
		stats.SingularVertices = singular
	}

	stats.ErrorAfter = d.QuadricError()
	stats = finish()
	d.log.Info("decimation finished", zap.Object("stats", stats))
	return stats, nil
}

// rankAll computes the cost of every live halfedge and rebuilds the queue.
// Workers only read the mesh and write their own cost slots, and this runs
// before the first collapse.
func (d *Decimater) rankAll(ctx context.Context) error {
	m := d.mesh
	d.queue = newCollapseQueue(m.HalfedgeSlots())
	d.stamp = make([]uint32, m.VertexSlots())
	d.generation = 0

	err := d.parallel(ctx, m.HalfedgeSlots(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			h := mesh.Halfedge(i)
			if !m.IsDeletedHalfedge(h) {
				d.queue.setCost(h, d.CollapseCost(h))
			}
		}
	})
	if err != nil {
		return err
	}

	live := make([]mesh.Halfedge, 0, m.NumHalfedges())
	for h := range m.Halfedges() {
		live = append(live, h)
	}
	d.queue.init(live)
	return nil
}

// rerank recomputes the cost of every halfedge touching v or one of its
// neighbours. Costs change only for halfedges at v, whose quadric grew, but
// legality also depends on the faces around the neighbours.
func (d *Decimater) rerank(v mesh.Vertex) {
	m := d.mesh
	d.generation++
	visit := func(u mesh.Vertex) {
		if d.stamp[u] == d.generation {
			return
		}
		d.stamp[u] = d.generation
		for h := range m.HalfedgesAround(u) {
			d.queue.update(h, d.CollapseCost(h))
			d.queue.update(h^1, d.CollapseCost(h^1))
		}
	}
	visit(v)
	for u := range m.VerticesAround(v) {
		visit(u)
	}
}

// optimizePositions moves every live vertex to the minimizer of its quadric
// and returns how many vertices kept their position because the minimizer
// was singular.
func (d *Decimater) optimizePositions(ctx context.Context) (int, error) {
	m := d.mesh
	var singular atomic.Int64
	err := d.parallel(ctx, m.VertexSlots(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := mesh.Vertex(i)
			if m.IsDeletedVertex(v) {
				continue
			}
			p, err := d.quadrics[v].Minimizer()
			if err != nil {
				singular.Add(1)
				continue
			}
			m.SetPosition(v, p)
		}
	})
	if n := singular.Load(); n > 0 {
		d.log.Debug("kept singular vertices in place", zap.Int64("count", n))
	}
	return int(singular.Load()), err
}

// parallel splits [0, n) into contiguous chunks and runs fn on them with at
// most Options.Workers goroutines. fn must only write state owned by its
// chunk.
func (d *Decimater) parallel(ctx context.Context, n int, fn func(lo, hi int)) error {
	workers := d.opts.workers()
	if n == 0 {
		return ctx.Err()
	}
	chunk := max((n+4*workers-1)/(4*workers), 256)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// Simplify initializes a decimater for m, reduces m to target vertices and
// compacts the mesh.
func Simplify(ctx context.Context, m *mesh.Mesh, target int, opts Options) (Stats, error) {
	d := New(m, opts)
	if err := d.Initialize(ctx); err != nil {
		return Stats{}, err
	}
	stats, err := d.Decimate(ctx, target)
	if err != nil {
		return stats, err
	}
	m.GarbageCollect()
	return stats, nil
}
