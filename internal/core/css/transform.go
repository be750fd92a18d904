// Package css converts between CSS transform values and mat4 matrices.
//
// It accepts what a browser reports as computed style (none, matrix(),
// matrix3d()) as well as the affine transform functions an author writes in a
// deck document, and formats matrices back as matrix3d() for the host to apply.
package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/zeusync/xiuli/pkg/mat4"
)

// function is one parsed transform function, e.g. rotateY(30deg).
type function struct {
	name string
	args []string
}

// ParseTransform parses a CSS transform list into a matrix. An empty value
// or "none" is the identity. Functions compose left to right, so the
// rightmost one is applied to the element first, as in CSS.
func ParseTransform(s string) (mat4.Matrix4, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return mat4.Identity(), nil
	}

	fns, err := splitFunctions(s)
	if err != nil {
		return mat4.Matrix4{}, err
	}

	out := mat4.Identity()
	for _, fn := range fns {
		m, err := fn.matrix()
		if err != nil {
			return mat4.Matrix4{}, fmt.Errorf("%s: %w", fn.name, err)
		}
		out = mat4.Multiply(out, m)
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mat4.Matrix4{}, fmt.Errorf("%w: %q overflows", ErrInvalidNumber, s)
		}
	}
	return out, nil
}

// FormatTransform renders m as a CSS matrix3d() value.
func FormatTransform(m mat4.Matrix4) string {
	var b strings.Builder
	b.WriteString("matrix3d(")
	for i, v := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatNumber(v))
	}
	b.WriteByte(')')
	return b.String()
}

func formatNumber(v float64) string {
	if v == 0 {
		// drop the sign of negative zero
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func splitFunctions(s string) ([]function, error) {
	var fns []function
	rest := s
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			return fns, nil
		}
		open := strings.IndexByte(rest, '(')
		if open <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedTransform, s)
		}
		closing := strings.IndexByte(rest, ')')
		if closing < open {
			return nil, fmt.Errorf("%w: %q", ErrMalformedTransform, s)
		}
		name := strings.TrimSpace(rest[:open])
		if strings.ContainsFunc(name, unicode.IsSpace) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedTransform, s)
		}
		fns = append(fns, function{
			name: strings.ToLower(name),
			args: splitArgs(rest[open+1 : closing]),
		})
		rest = rest[closing+1:]
	}
}

func splitArgs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func (fn function) matrix() (mat4.Matrix4, error) {
	switch fn.name {
	case "matrix":
		v, err := fn.numbers(6)
		if err != nil {
			return mat4.Matrix4{}, err
		}
		m := mat4.Identity()
		m[0], m[1], m[4], m[5], m[12], m[13] = v[0], v[1], v[2], v[3], v[4], v[5]
		return m, nil
	case "matrix3d":
		v, err := fn.numbers(16)
		if err != nil {
			return mat4.Matrix4{}, err
		}
		var m mat4.Matrix4
		copy(m[:], v)
		return m, nil
	case "translate", "translate3d", "translatex", "translatey", "translatez":
		return fn.translate()
	case "scale", "scale3d", "scalex", "scaley", "scalez":
		return fn.scale()
	case "rotate", "rotatez":
		return fn.rotate(mat4.FromValues(0, 0, 1))
	case "rotatex":
		return fn.rotate(mat4.FromValues(1, 0, 0))
	case "rotatey":
		return fn.rotate(mat4.FromValues(0, 1, 0))
	case "rotate3d":
		if len(fn.args) != 4 {
			return mat4.Matrix4{}, ErrArgumentCount
		}
		axis, err := parseNumbers(fn.args[:3])
		if err != nil {
			return mat4.Matrix4{}, err
		}
		return fn.rotateBy(fn.args[3], mat4.FromValues(axis[0], axis[1], axis[2]))
	default:
		return mat4.Matrix4{}, ErrUnsupportedFunction
	}
}

func (fn function) numbers(n int) ([]float64, error) {
	if len(fn.args) != n {
		return nil, ErrArgumentCount
	}
	return parseNumbers(fn.args)
}

func (fn function) translate() (mat4.Matrix4, error) {
	var v mat4.Vector3
	var axes []int
	switch fn.name {
	case "translatex":
		axes = []int{0}
	case "translatey":
		axes = []int{1}
	case "translatez":
		axes = []int{2}
	case "translate":
		if len(fn.args) == 1 {
			axes = []int{0}
		} else {
			axes = []int{0, 1}
		}
	case "translate3d":
		axes = []int{0, 1, 2}
	}
	if len(fn.args) != len(axes) {
		return mat4.Matrix4{}, ErrArgumentCount
	}
	for i, axis := range axes {
		l, err := parseLength(fn.args[i])
		if err != nil {
			return mat4.Matrix4{}, err
		}
		v[axis] = l
	}
	return mat4.FromTranslation(v), nil
}

func (fn function) scale() (mat4.Matrix4, error) {
	s := mat4.Vector3{1, 1, 1}
	v, err := parseNumbers(fn.args)
	if err != nil {
		return mat4.Matrix4{}, err
	}
	switch {
	case fn.name == "scalex" && len(v) == 1:
		s[0] = v[0]
	case fn.name == "scaley" && len(v) == 1:
		s[1] = v[0]
	case fn.name == "scalez" && len(v) == 1:
		s[2] = v[0]
	case fn.name == "scale" && len(v) == 1:
		s[0], s[1] = v[0], v[0]
	case fn.name == "scale" && len(v) == 2:
		s[0], s[1] = v[0], v[1]
	case fn.name == "scale3d" && len(v) == 3:
		s = mat4.Vector3{v[0], v[1], v[2]}
	default:
		return mat4.Matrix4{}, ErrArgumentCount
	}
	m := mat4.Identity()
	m[0], m[5], m[10] = s[0], s[1], s[2]
	return m, nil
}

func (fn function) rotate(axis mat4.Vector3) (mat4.Matrix4, error) {
	if len(fn.args) != 1 {
		return mat4.Matrix4{}, ErrArgumentCount
	}
	return fn.rotateBy(fn.args[0], axis)
}

func (fn function) rotateBy(angle string, axis mat4.Vector3) (mat4.Matrix4, error) {
	rad, err := parseAngle(angle)
	if err != nil {
		return mat4.Matrix4{}, err
	}
	return mat4.Rotate(mat4.Identity(), rad, axis)
}

// parseFinite is strconv.ParseFloat without NaN and infinities.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func parseNumbers(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := parseFinite(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, a)
		}
		out[i] = v
	}
	return out, nil
}

// parseLength accepts px values and unitless numbers.
func parseLength(s string) (float64, error) {
	v, err := parseFinite(strings.TrimSuffix(strings.ToLower(s), "px"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, s)
	}
	return v, nil
}

// parseAngle returns s in radians. A unitless angle is only valid when zero.
func parseAngle(s string) (float64, error) {
	lower := strings.ToLower(s)
	units := []struct {
		suffix string
		scale  float64
	}{
		{"grad", math.Pi / 200},
		{"turn", 2 * math.Pi},
		{"deg", math.Pi / 180},
		{"rad", 1},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(lower, u.suffix); ok {
			v, err := parseFinite(num)
			if err != nil || math.IsInf(v*u.scale, 0) {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
			}
			return v * u.scale, nil
		}
	}
	if v, err := strconv.ParseFloat(lower, 64); err == nil && v == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAngle, s)
}
