package decimate

import (
	"errors"
	"fmt"
	stdmath "math"

	"gonum.org/v1/gonum/mat"

	"github.com/ttzck/gm-meshproc/pkg/math"
)

// ErrSingularSystem is returned by Quadric.Minimizer when the quadric has no
// unique minimum, e.g. when all its planes are parallel or coplanar.
var ErrSingularSystem = errors.New("quadric system is singular")

// MaxCondition is the largest condition number of the quadric matrix for
// which Minimizer trusts the solution.
const MaxCondition = 1e10

// Quadric is the symmetric quadratic form
//
//	Q(p) = pᵀAp + 2bᵀp + c
//
// stored as the ten distinct coefficients of the 4x4 matrix
//
//	| a b c d |
//	| b e f g |
//	| c f h i |
//	| d g i j |
//
// Evaluating the quadric of a plane at p yields the squared distance of p
// to that plane. The zero value is the zero quadric.
type Quadric struct {
	a, b, c, d, e, f, g, h, i, j float64
}

// NewQuadric returns the quadric of the plane ax + by + cz + d = 0, assuming
// (a, b, c) has unit length.
func NewQuadric(a, b, c, d float64) Quadric {
	return Quadric{
		a: a * a, b: a * b, c: a * c, d: a * d,
		e: b * b, f: b * c, g: b * d,
		h: c * c, i: c * d,
		j: d * d,
	}
}

// QuadricFromPlane returns the quadric of the plane through point with the
// given unit normal.
func QuadricFromPlane(normal, point math.Vec3) Quadric {
	return NewQuadric(normal.X, normal.Y, normal.Z, -normal.Dot(point))
}

// Add accumulates o into q.
func (q *Quadric) Add(o Quadric) {
	q.a += o.a
	q.b += o.b
	q.c += o.c
	q.d += o.d
	q.e += o.e
	q.f += o.f
	q.g += o.g
	q.h += o.h
	q.i += o.i
	q.j += o.j
}

// Plus returns q + o.
func (q Quadric) Plus(o Quadric) Quadric {
	q.Add(o)
	return q
}

// IsZero reports whether all coefficients are zero.
func (q Quadric) IsZero() bool {
	return q == Quadric{}
}

// Evaluate returns Q(p). Rounding can make the result marginally negative.
func (q Quadric) Evaluate(p math.Vec3) float64 {
	x, y, z := p.X, p.Y, p.Z
	return q.a*x*x + 2*q.b*x*y + 2*q.c*x*z + 2*q.d*x +
		q.e*y*y + 2*q.f*y*z + 2*q.g*y +
		q.h*z*z + 2*q.i*z +
		q.j
}

// Minimizer returns the point minimizing Q, the solution of Ap = -b. It
// returns ErrSingularSystem when A is singular or too badly conditioned.
func (q Quadric) Minimizer() (math.Vec3, error) {
	a := mat.NewSymDense(3, []float64{
		q.a, q.b, q.c,
		q.b, q.e, q.f,
		q.c, q.f, q.h,
	})

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); stdmath.IsInf(cond, 1) || stdmath.IsNaN(cond) || cond > MaxCondition {
		return math.Vec3{}, fmt.Errorf("%w: condition number %g", ErrSingularSystem, cond)
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(3, []float64{-q.d, -q.g, -q.i})); err != nil {
		return math.Vec3{}, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}
	return math.Vec3{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}, nil
}

// String formats the upper triangle of the quadric matrix.
func (q Quadric) String() string {
	return fmt.Sprintf("Quadric[%g %g %g %g | %g %g %g | %g %g | %g]",
		q.a, q.b, q.c, q.d, q.e, q.f, q.g, q.h, q.i, q.j)
}
