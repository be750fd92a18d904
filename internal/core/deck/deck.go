// Package deck loads presentation documents and mounts them on a placement
// engine.
package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/xiuli/internal/core/css"
	"github.com/zeusync/xiuli/internal/core/placement"
	"github.com/zeusync/xiuli/internal/core/presets"
	"github.com/zeusync/xiuli/pkg/mat4"
)

// DefaultTransitionDuration replaces a zero container transition. Without
// a running transition the host never reports completion, so a deck that
// disables it would never settle.
const DefaultTransitionDuration = 2 * time.Second

// Deck describes a presentation in JSON or YAML.
type Deck struct {
	Name      string         `json:"name" yaml:"name"`
	Root      placement.Size `json:"root" yaml:"root"`
	Container Container      `json:"container" yaml:"container"`
	Preset    string         `json:"preset,omitempty" yaml:"preset,omitempty"`
	Slides    []SlideConfig  `json:"slides" yaml:"slides"`
}

// Container holds the authored style of the element the engine moves.
type Container struct {
	Transform          string `json:"transform,omitempty" yaml:"transform,omitempty"`
	TransitionDuration string `json:"transition_duration,omitempty" yaml:"transition_duration,omitempty"`
}

// SlideConfig is one slide as written in the document. A zero width or
// height takes the root's.
type SlideConfig struct {
	ID        string  `json:"id" yaml:"id"`
	Width     float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Transform string  `json:"transform,omitempty" yaml:"transform,omitempty"`
	Origin    string  `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// LoadJSON decodes and validates a deck from r.
func LoadJSON(r io.Reader) (*Deck, error) {
	var d Deck
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadYAML decodes and validates a deck from r.
func LoadYAML(r io.Reader) (*Deck, error) {
	var d Deck
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Deck, error) {
	var load func(io.Reader) (*Deck, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		load = LoadYAML
	case ".json":
		load = LoadJSON
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Validate checks everything Mount needs, so a valid deck only fails to
// mount on a singular slide transform.
func (d *Deck) Validate() error {
	if d.Root.Width <= 0 || d.Root.Height <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidRoot, d.Root.Width, d.Root.Height)
	}
	if len(d.Slides) == 0 {
		return ErrNoSlides
	}
	if _, err := css.ParseTransform(d.Container.Transform); err != nil {
		return fmt.Errorf("container transform: %w", err)
	}
	if _, err := css.ParseDuration(d.Container.TransitionDuration); err != nil {
		return fmt.Errorf("container transition: %w", err)
	}
	if d.Preset != "" {
		if _, err := presets.Lookup(d.Preset); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(d.Slides))
	for i, s := range d.Slides {
		if s.ID == "" {
			return fmt.Errorf("slide %d: %w", i, ErrEmptySlideID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSlideID, s.ID)
		}
		seen[s.ID] = struct{}{}

		if s.Width < 0 || s.Height < 0 {
			return fmt.Errorf("slide %s: %w", s.ID, ErrInvalidSlideSize)
		}
		if d.Preset != "" && s.Transform != "" {
			return fmt.Errorf("slide %s: %w", s.ID, ErrPresetConflict)
		}
		if _, err := css.ParseTransform(s.Transform); err != nil {
			return fmt.Errorf("slide %s transform: %w", s.ID, err)
		}
		size := d.slideSize(s)
		if _, err := css.ParseOrigin(s.Origin, size.Width, size.Height); err != nil {
			return fmt.Errorf("slide %s origin: %w", s.ID, err)
		}
	}
	return nil
}

func (d *Deck) slideSize(s SlideConfig) placement.Size {
	size := placement.Size{Width: s.Width, Height: s.Height}
	if size.Width == 0 {
		size.Width = d.Root.Width
	}
	if size.Height == 0 {
		size.Height = d.Root.Height
	}
	return size
}

// Resolve turns the document into engine slides in document order. With a
// preset, the generator replaces every local transform.
func (d *Deck) Resolve() ([]placement.Slide, error) {
	var gen presets.Generator
	if d.Preset != "" {
		var err error
		if gen, err = presets.Lookup(d.Preset); err != nil {
			return nil, err
		}
	}

	out := make([]placement.Slide, 0, len(d.Slides))
	for i, s := range d.Slides {
		size := d.slideSize(s)

		var local mat4.Matrix4
		var err error
		if gen != nil {
			local, err = gen(mat4.Identity(), i, len(d.Slides))
		} else {
			local, err = css.ParseTransform(s.Transform)
		}
		if err != nil {
			return nil, fmt.Errorf("slide %s transform: %w", s.ID, err)
		}

		origin, err := css.ParseOrigin(s.Origin, size.Width, size.Height)
		if err != nil {
			return nil, fmt.Errorf("slide %s origin: %w", s.ID, err)
		}

		out = append(out, placement.Slide{
			ID:        s.ID,
			Size:      size,
			Transform: local,
			Origin:    origin,
		})
	}
	return out, nil
}

// ContainerTransform is the container's authored transform.
func (d *Deck) ContainerTransform() (mat4.Matrix4, error) {
	return css.ParseTransform(d.Container.Transform)
}

// EffectiveTransitionDuration is the container transition the host should
// run. A missing or zero duration becomes DefaultTransitionDuration.
func (d *Deck) EffectiveTransitionDuration() (time.Duration, error) {
	dur, err := css.ParseDuration(d.Container.TransitionDuration)
	if err != nil {
		return 0, err
	}
	if dur == 0 {
		return DefaultTransitionDuration, nil
	}
	return dur, nil
}

// Sink receives every container transform the engine applies.
type Sink interface {
	ApplyTransform(m mat4.Matrix4)
}

type container struct {
	initial mat4.Matrix4
	sink    Sink
}

func (c container) InitialTransform() mat4.Matrix4 { return c.initial }

func (c container) ApplyTransform(m mat4.Matrix4) { c.sink.ApplyTransform(m) }

// Mount builds an engine over the deck's container and root and registers
// every slide in order. The first slide is registered as the initial one.
func (d *Deck) Mount(sink Sink, opts ...placement.Option) (*placement.Engine, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	base, err := d.ContainerTransform()
	if err != nil {
		return nil, fmt.Errorf("container transform: %w", err)
	}
	slides, err := d.Resolve()
	if err != nil {
		return nil, err
	}

	engine, err := placement.New(container{initial: base, sink: sink}, placement.FixedRoot(d.Root), opts...)
	if err != nil {
		return nil, err
	}

	var errs []error
	for i, s := range slides {
		if err = engine.Register(s, i == 0); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return engine, nil
}
