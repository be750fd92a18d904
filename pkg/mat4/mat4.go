// Package mat4 provides the 3D vector and 4x4 homogeneous matrix math used to
// place slides in a shared CSS 3D space.
//
// Matrices are stored column-major, the same layout CSS matrix3d() uses, so
// a Matrix4 can be handed to a renderer without transposition. Every function
// is value-in/value-out; the *Into variants write into a caller-owned matrix
// and tolerate aliasing.
package mat4

import "math"

// Vector3 is a 3 component vector (x, y, z).
type Vector3 [3]float64

// Matrix4 is a 4x4 homogeneous transform in column-major order.
// Indices 12, 13 and 14 hold the translation.
type Matrix4 [16]float64

// degenerateAxisLength is the axis length below which Rotate refuses to normalize.
const degenerateAxisLength = 0.000001

// FromValues creates a vector from its components.
func FromValues(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

// X returns the x component.
func (v Vector3) X() float64 { return v[0] }

// Y returns the y component.
func (v Vector3) Y() float64 { return v[1] }

// Z returns the z component.
func (v Vector3) Z() float64 { return v[2] }

// Length returns the euclidean length of v.
func (v Vector3) Length() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Negate returns v with every component negated.
func Negate(v Vector3) Vector3 {
	return Vector3{-v[0], -v[1], -v[2]}
}

// Identity returns the 4x4 identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromTranslation returns the identity with its translation set to v.
func FromTranslation(v Vector3) Matrix4 {
	out := Identity()
	out[12] = v[0]
	out[13] = v[1]
	out[14] = v[2]
	return out
}

// Translation returns the translation components of m.
func (m Matrix4) Translation() Vector3 {
	return Vector3{m[12], m[13], m[14]}
}

// TransformPoint applies m to the point p (w = 1) and returns the
// resulting point after the perspective divide.
func (m Matrix4) TransformPoint(p Vector3) Vector3 {
	x, y, z := p[0], p[1], p[2]
	w := m[3]*x + m[7]*y + m[11]*z + m[15]
	if w == 0 {
		w = 1
	}
	return Vector3{
		(m[0]*x + m[4]*y + m[8]*z + m[12]) / w,
		(m[1]*x + m[5]*y + m[9]*z + m[13]) / w,
		(m[2]*x + m[6]*y + m[10]*z + m[14]) / w,
	}
}

// ApproxEqual reports whether every component of m and b differs by at most eps.
func (m Matrix4) ApproxEqual(b Matrix4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// IsAffine reports whether the last row of m is exactly [0 0 0 1].
func (m Matrix4) IsAffine() bool {
	return m[3] == 0 && m[7] == 0 && m[11] == 0 && m[15] == 1
}
