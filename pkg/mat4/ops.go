package mat4

import "math"

// Multiply composes two transforms. Element (row r, column c) of the result
// is the dot product of row r of a with column c of b, so for column vectors
// b is applied first and a second. Read as flat row-major arrays the same
// numbers are b*a. The order is significant: swapping operands silently
// yields a different placement.
func Multiply(a, b Matrix4) Matrix4 {
	var out Matrix4
	MultiplyInto(&out, a, b)
	return out
}

// MultiplyInto stores Multiply(a, b) in out. out may alias a or b.
func MultiplyInto(out *Matrix4, a, b Matrix4) {
	for c := 0; c < 4; c++ {
		b0, b1, b2, b3 := b[c*4], b[c*4+1], b[c*4+2], b[c*4+3]
		for r := 0; r < 4; r++ {
			out[c*4+r] = b0*a[r] + b1*a[4+r] + b2*a[8+r] + b3*a[12+r]
		}
	}
}

// cofactors holds the 2x2 sub-determinants shared by Determinant and Invert.
type cofactors struct {
	b00, b01, b02, b03, b04, b05 float64
	b06, b07, b08, b09, b10, b11 float64
}

func cofactorsOf(a *Matrix4) cofactors {
	return cofactors{
		b00: a[0]*a[5] - a[1]*a[4],
		b01: a[0]*a[6] - a[2]*a[4],
		b02: a[0]*a[7] - a[3]*a[4],
		b03: a[1]*a[6] - a[2]*a[5],
		b04: a[1]*a[7] - a[3]*a[5],
		b05: a[2]*a[7] - a[3]*a[6],
		b06: a[8]*a[13] - a[9]*a[12],
		b07: a[8]*a[14] - a[10]*a[12],
		b08: a[8]*a[15] - a[11]*a[12],
		b09: a[9]*a[14] - a[10]*a[13],
		b10: a[9]*a[15] - a[11]*a[13],
		b11: a[10]*a[15] - a[11]*a[14],
	}
}

func (c cofactors) det() float64 {
	return c.b00*c.b11 - c.b01*c.b10 + c.b02*c.b09 + c.b03*c.b08 - c.b04*c.b07 + c.b05*c.b06
}

// Determinant returns the determinant of a.
func Determinant(a Matrix4) float64 {
	return cofactorsOf(&a).det()
}

// Invert returns the inverse of a, or ErrSingular when the determinant is
// exactly zero. Nearly singular matrices are inverted as-is.
func Invert(a Matrix4) (Matrix4, error) {
	var out Matrix4
	if err := InvertInto(&out, a); err != nil {
		return Matrix4{}, err
	}
	return out, nil
}

// InvertInto stores the inverse of a in out. out may alias a. On error out
// is left untouched.
func InvertInto(out *Matrix4, a Matrix4) error {
	c := cofactorsOf(&a)
	det := c.det()
	if det == 0 {
		return ErrSingular
	}
	det = 1.0 / det

	out[0] = (a[5]*c.b11 - a[6]*c.b10 + a[7]*c.b09) * det
	out[1] = (a[2]*c.b10 - a[1]*c.b11 - a[3]*c.b09) * det
	out[2] = (a[13]*c.b05 - a[14]*c.b04 + a[15]*c.b03) * det
	out[3] = (a[10]*c.b04 - a[9]*c.b05 - a[11]*c.b03) * det
	out[4] = (a[6]*c.b08 - a[4]*c.b11 - a[7]*c.b07) * det
	out[5] = (a[0]*c.b11 - a[2]*c.b08 + a[3]*c.b07) * det
	out[6] = (a[14]*c.b02 - a[12]*c.b05 - a[15]*c.b01) * det
	out[7] = (a[8]*c.b05 - a[10]*c.b02 + a[11]*c.b01) * det
	out[8] = (a[4]*c.b10 - a[5]*c.b08 + a[7]*c.b06) * det
	out[9] = (a[1]*c.b08 - a[0]*c.b10 - a[3]*c.b06) * det
	out[10] = (a[12]*c.b04 - a[13]*c.b02 + a[15]*c.b00) * det
	out[11] = (a[9]*c.b02 - a[8]*c.b04 - a[11]*c.b00) * det
	out[12] = (a[5]*c.b07 - a[4]*c.b09 - a[6]*c.b06) * det
	out[13] = (a[0]*c.b09 - a[1]*c.b07 + a[2]*c.b06) * det
	out[14] = (a[13]*c.b01 - a[12]*c.b03 - a[14]*c.b00) * det
	out[15] = (a[8]*c.b03 - a[9]*c.b01 + a[10]*c.b00) * det
	return nil
}

// Rotate composes a rotation of rad radians around axis onto a. The axis is
// normalized first; axes shorter than 1e-6 yield ErrDegenerateAxis. The
// translation column of a (indices 12-15) is carried over unchanged.
func Rotate(a Matrix4, rad float64, axis Vector3) (Matrix4, error) {
	out := a
	if err := RotateInto(&out, a, rad, axis); err != nil {
		return Matrix4{}, err
	}
	return out, nil
}

// RotateInto stores Rotate(a, rad, axis) in out. out may alias a. On error
// out is left untouched.
func RotateInto(out *Matrix4, a Matrix4, rad float64, axis Vector3) error {
	length := axis.Length()
	if math.Abs(length) < degenerateAxisLength {
		return ErrDegenerateAxis
	}
	x, y, z := axis[0]/length, axis[1]/length, axis[2]/length

	s, c := math.Sincos(rad)
	t := 1 - c

	// Rodrigues rotation, column-major.
	b00, b01, b02 := x*x*t+c, y*x*t+z*s, z*x*t-y*s
	b10, b11, b12 := x*y*t-z*s, y*y*t+c, z*y*t+x*s
	b20, b21, b22 := x*z*t+y*s, y*z*t-x*s, z*z*t+c

	for r := 0; r < 4; r++ {
		a0, a1, a2 := a[r], a[4+r], a[8+r]
		out[r] = a0*b00 + a1*b01 + a2*b02
		out[4+r] = a0*b10 + a1*b11 + a2*b12
		out[8+r] = a0*b20 + a1*b21 + a2*b22
	}
	out[12], out[13], out[14], out[15] = a[12], a[13], a[14], a[15]
	return nil
}
