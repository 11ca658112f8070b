package geom

import "gonum.org/v1/gonum/mat"

// ShearX returns the 2x2 matrix [[1, k], [0, 1]]. Applied to row vectors
// it adds k*x to y, which is the object-image conjugate shift.
func ShearX(k float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, k, 0, 1})
}

// ShearY returns the 2x2 matrix [[1, 0], [k, 1]]. Applied to row vectors
// it adds k*y to x, which is the stop conjugate shift.
func ShearY(k float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, 0, k, 1})
}

// Transform multiplies each point, taken as a row vector, by m and returns
// the resulting shape. m must be 2x2.
func Transform(shape []Point, m mat.Matrix) []Point {
	if len(shape) == 0 {
		return nil
	}
	rows := mat.NewDense(len(shape), 2, nil)
	for i, p := range shape {
		rows.Set(i, 0, p.X)
		rows.Set(i, 1, p.Y)
	}
	var out mat.Dense
	out.Mul(rows, m)

	res := make([]Point, len(shape))
	for i := range res {
		res[i] = Point{out.At(i, 0), out.At(i, 1)}
	}
	return res
}
