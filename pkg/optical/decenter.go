package optical

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DecenterType selects how a decenter is applied around its surface.
type DecenterType int

const (
	DecenterLocal   DecenterType = iota // applied prior to the surface
	DecenterReverse                     // applied following the surface, in reverse
	DecenterDAR                         // applied prior, then returned to the initial frame
	DecenterBend                        // fold mirrors: applied before and after the surface
)

func (t DecenterType) String() string {
	switch t {
	case DecenterLocal:
		return "LOCAL"
	case DecenterReverse:
		return "REV"
	case DecenterDAR:
		return "DAR"
	case DecenterBend:
		return "BEND"
	}
	return "UNKNOWN"
}

// DecenterData holds a position and orientation change for a surface.
type DecenterData struct {
	Type  DecenterType
	Dec   r3.Vec // x, y, z vertex decenter
	Euler r3.Vec // alpha, beta, gamma in degrees
	RotPt r3.Vec // rotation point offset

	// RotMat is nil when there is no tilt. Call Update after changing Euler.
	RotMat *mat.Dense
}

// NewDecenterData creates decenter data and computes its rotation.
func NewDecenterData(t DecenterType, x, y, alpha, beta, gamma float64) *DecenterData {
	d := &DecenterData{
		Type:  t,
		Dec:   r3.Vec{X: x, Y: y},
		Euler: r3.Vec{X: alpha, Y: beta, Z: gamma},
	}
	d.Update()
	return d
}

// Update recomputes the rotation matrix from the Euler angles. Alpha and
// beta are left-handed and converted before building a static xyz rotation.
func (d *DecenterData) Update() {
	if d.Euler == (r3.Vec{}) {
		d.RotMat = nil
		return
	}
	ai := deg2rad(-d.Euler.X)
	aj := deg2rad(-d.Euler.Y)
	ak := deg2rad(d.Euler.Z)
	d.RotMat = euler2mat(ai, aj, ak)
}

// TformBeforeSurf returns the rotation and translation applied before the
// surface. The rotation may be nil.
func (d *DecenterData) TformBeforeSurf() (*mat.Dense, r3.Vec) {
	if d.Type != DecenterReverse {
		return d.RotMat, d.Dec
	}
	return nil, r3.Vec{}
}

// TformAfterSurf returns the rotation and translation applied after the
// surface. The rotation may be nil.
func (d *DecenterData) TformAfterSurf() (*mat.Dense, r3.Vec) {
	switch d.Type {
	case DecenterReverse, DecenterDAR:
		var rt *mat.Dense
		if d.RotMat != nil {
			rt = mat.DenseCopyOf(d.RotMat.T())
		}
		return rt, r3.Scale(-1, d.Dec)
	case DecenterBend:
		return d.RotMat, r3.Vec{}
	}
	return nil, r3.Vec{}
}

// Rotate applies a rotation matrix to v. A nil matrix is the identity.
func Rotate(m *mat.Dense, v r3.Vec) r3.Vec {
	if m == nil {
		return v
	}
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// AxisDirections returns the direction of the optical axis, in the object
// space frame, leaving each surface. Fold mirrors turn it.
func (sm *SeqModel) AxisDirections() []r3.Vec {
	var rot mat.Dense
	rot.CloneFrom(eye3())
	dirs := make([]r3.Vec, len(sm.Ifcs))
	for i, ifc := range sm.Ifcs {
		if d := ifc.Decenter; d != nil {
			if r, _ := d.TformBeforeSurf(); r != nil {
				rot.Mul(mat.DenseCopyOf(&rot), r)
			}
			if r, _ := d.TformAfterSurf(); r != nil {
				rot.Mul(mat.DenseCopyOf(&rot), r)
			}
		}
		dirs[i] = Rotate(&rot, r3.Vec{Z: 1})
	}
	return dirs
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// euler2mat builds Rz(ak)·Ry(aj)·Rx(ai).
func euler2mat(ai, aj, ak float64) *mat.Dense {
	si, ci := math.Sincos(ai)
	sj, cj := math.Sincos(aj)
	sk, ck := math.Sincos(ak)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, ci, -si,
		0, si, ci,
	})
	ry := mat.NewDense(3, 3, []float64{
		cj, 0, sj,
		0, 1, 0,
		-sj, 0, cj,
	})
	rz := mat.NewDense(3, 3, []float64{
		ck, -sk, 0,
		sk, ck, 0,
		0, 0, 1,
	})

	var zy, zyx mat.Dense
	zy.Mul(rz, ry)
	zyx.Mul(&zy, rx)
	return &zyx
}
