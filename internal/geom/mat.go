package geom

import "math"

// Mat3 is a 3x3 matrix in row-major order:
//
//	| M[0][0] M[0][1] M[0][2] |
//	| M[1][0] M[1][1] M[1][2] |
//	| M[2][0] M[2][1] M[2][2] |
//
// Turtle bases store heading, left and up as columns 0, 1 and 2.
type Mat3 struct {
	M [3][3]float64
}

// Identity3 returns the identity matrix.
func Identity3() Mat3 {
	return Mat3{M: [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
}

// Rows builds a matrix from three rows.
func Rows(r0, r1, r2 [3]float64) Mat3 {
	return Mat3{M: [3][3]float64{r0, r1, r2}}
}

// Mul returns m × o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.M[i][j] = m.M[i][0]*o.M[0][j] + m.M[i][1]*o.M[1][j] + m.M[i][2]*o.M[2][j]
		}
	}
	return r
}

// MulVec returns m × v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m.M[0][0]*v.X + m.M[0][1]*v.Y + m.M[0][2]*v.Z,
		m.M[1][0]*v.X + m.M[1][1]*v.Y + m.M[1][2]*v.Z,
		m.M[2][0]*v.X + m.M[2][1]*v.Y + m.M[2][2]*v.Z,
	}
}

// Col returns column i.
func (m Mat3) Col(i int) Vec3 {
	return Vec3{m.M[0][i], m.M[1][i], m.M[2][i]}
}

func (m Mat3) Transpose() Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.M[i][j] = m.M[j][i]
		}
	}
	return r
}

// IsOrthonormal reports whether mᵀm is the identity within tol.
func (m Mat3) IsOrthonormal(tol float64) bool {
	p := m.Transpose().Mul(m)
	id := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(p.M[i][j]-id.M[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// RotU rotates about the up axis (turn left / right).
func RotU(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Rows(
		[3]float64{c, s, 0},
		[3]float64{-s, c, 0},
		[3]float64{0, 0, 1},
	)
}

// RotL rotates about the left axis (pitch down / up).
func RotL(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Rows(
		[3]float64{c, 0, -s},
		[3]float64{0, 1, 0},
		[3]float64{s, 0, c},
	)
}

// RotH rotates about the heading axis (roll).
func RotH(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Rows(
		[3]float64{1, 0, 0},
		[3]float64{0, c, -s},
		[3]float64{0, s, c},
	)
}
