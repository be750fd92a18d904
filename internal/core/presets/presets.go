// Package presets generates local slide transforms for common deck layouts.
package presets

import (
	"fmt"
	"math"
	"slices"

	"github.com/zeusync/xiuli/pkg/mat4"
)

// The layouts were tuned with these rounded constants; keep them so decks
// land where their authors placed them.
const (
	fullTurn    = 6.28319
	quarterTurn = 1.5708
	ringSlots   = 6
)

var yAxis = mat4.FromValues(0, 1, 0)

// Generator returns the local transform of slide index out of total, built
// on top of base.
type Generator func(base mat4.Matrix4, index, total int) (mat4.Matrix4, error)

// Steps climbs a staircase away from the viewer.
func Steps(base mat4.Matrix4, index, _ int) (mat4.Matrix4, error) {
	i := float64(index)
	base[12], base[13], base[14] = 600, -400*i, -400*i
	return base, nil
}

// Circular places slides on a ring of six without turning them.
func Circular(base mat4.Matrix4, index, _ int) (mat4.Matrix4, error) {
	theta := fullTurn * float64(index) / ringSlots
	base[12] = 600 * math.Sin(theta)
	base[13] = 200
	base[14] = 800 * (math.Cos(theta) - 1)
	return base, nil
}

// SpiralSteps winds the whole deck once around the Y axis while descending.
func SpiralSteps(base mat4.Matrix4, index, total int) (mat4.Matrix4, error) {
	if total <= 0 {
		return mat4.Matrix4{}, fmt.Errorf("%w: %d", ErrInvalidTotal, total)
	}
	theta := fullTurn * float64(index) / float64(total)
	m, err := mat4.Rotate(base, theta-quarterTurn, yAxis)
	if err != nil {
		return mat4.Matrix4{}, err
	}
	m[12] = 500 * math.Sin(theta)
	m[13] = -400 * float64(index)
	m[14] = 500 * (math.Cos(theta) - 1)
	return m, nil
}

// SpiralRotated turns each slide to face outward on a rising ring of six.
func SpiralRotated(base mat4.Matrix4, index, _ int) (mat4.Matrix4, error) {
	theta := fullTurn * float64(index) / ringSlots
	m, err := mat4.Rotate(base, theta, yAxis)
	if err != nil {
		return mat4.Matrix4{}, err
	}
	m[12] = 600 * math.Sin(theta)
	m[13] = 200 * float64(index)
	m[14] = 600 * (math.Cos(theta) - 1)
	return m, nil
}

// Poly turns each slide to face outward on a flat ring of six.
func Poly(base mat4.Matrix4, index, _ int) (mat4.Matrix4, error) {
	theta := fullTurn * float64(index) / ringSlots
	m, err := mat4.Rotate(base, theta, yAxis)
	if err != nil {
		return mat4.Matrix4{}, err
	}
	m[12] = 600 * math.Sin(theta)
	m[13] = 200
	m[14] = 600 * (math.Cos(theta) - 1)
	return m, nil
}

// registry names the generators a deck document may select.
var registry = map[string]Generator{
	"steps":         Steps,
	"circular":      Circular,
	"spiralSteps":   SpiralSteps,
	"spiralRotated": SpiralRotated,
	"poly":          Poly,
}

// Lookup returns the generator named name.
func Lookup(name string) (Generator, error) {
	gen := registry[name]
	if gen == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return gen, nil
}

// Names lists the preset names in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Layout applies gen to the identity for every index in [0, total).
func Layout(gen Generator, total int) ([]mat4.Matrix4, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTotal, total)
	}
	out := make([]mat4.Matrix4, total)
	for i := range total {
		m, err := gen(mat4.Identity(), i, total)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}
