package placement

import "github.com/zeusync/xiuli/pkg/mat4"

// Size is the rendered width and height of a slide or of the viewing root.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Slide is one element to arrange. Transform is its authored local transform
// and Origin its transform-origin in the slide's own untransformed space.
type Slide struct {
	ID        string
	Size      Size
	Transform mat4.Matrix4
	Origin    mat4.Vector3
}

// Container is the element the engine moves. Its authored transform is read
// once at construction and becomes the engine's base transform; every
// navigation hands the computed world transform back through ApplyTransform.
type Container interface {
	InitialTransform() mat4.Matrix4
	ApplyTransform(m mat4.Matrix4)
}

// Root reports the rendered size of the viewing root that frames the container.
type Root interface {
	Size() Size
}

// SettledHandler receives the target slide and the payload of the navigation
// whose transition just completed.
type SettledHandler func(slideID string, payload any)

// Stats counts engine activity since construction.
type Stats struct {
	Registered  int
	Navigations int
	Ignored     int
	Settled     int
}

// FixedRoot is a Root with a constant size.
type FixedRoot Size

func (r FixedRoot) Size() Size { return Size(r) }

// SliceContainer is an in-memory Container that records every applied
// transform. Useful for offline layout computation and tests.
type SliceContainer struct {
	Initial mat4.Matrix4
	Applied []mat4.Matrix4
}

// NewSliceContainer returns a container whose authored transform is initial.
func NewSliceContainer(initial mat4.Matrix4) *SliceContainer {
	return &SliceContainer{Initial: initial}
}

func (c *SliceContainer) InitialTransform() mat4.Matrix4 { return c.Initial }

func (c *SliceContainer) ApplyTransform(m mat4.Matrix4) {
	c.Applied = append(c.Applied, m)
}

// Last returns the most recently applied transform.
func (c *SliceContainer) Last() (mat4.Matrix4, bool) {
	if len(c.Applied) == 0 {
		return mat4.Matrix4{}, false
	}
	return c.Applied[len(c.Applied)-1], true
}
