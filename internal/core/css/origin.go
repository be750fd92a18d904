package css

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zeusync/xiuli/pkg/mat4"
)

// ParseOrigin parses a transform-origin value for an element of the given
// size. Keywords and percentages resolve against width and height; an empty
// value is the CSS default "50% 50% 0". The z component must be a length.
func ParseOrigin(s string, width, height float64) (mat4.Vector3, error) {
	origin := mat4.FromValues(width/2, height/2, 0)
	tokens := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(tokens) > 3 {
		return mat4.Vector3{}, fmt.Errorf("%w: %q", ErrInvalidOrigin, s)
	}

	// "top left" names the vertical keyword first
	if len(tokens) == 1 && isVertical(tokens[0]) {
		tokens = []string{"center", tokens[0]}
	}
	if len(tokens) >= 2 && isVertical(tokens[0]) && !isVertical(tokens[1]) {
		tokens[0], tokens[1] = tokens[1], tokens[0]
	}

	sizes := [2]float64{width, height}
	for i, tok := range tokens {
		if i == 2 {
			z, err := parseLength(tok)
			if err != nil {
				return mat4.Vector3{}, fmt.Errorf("%w: %q", ErrInvalidOrigin, s)
			}
			origin[2] = z
			continue
		}
		v, err := originComponent(strings.ToLower(tok), i, sizes[i])
		if err != nil {
			return mat4.Vector3{}, fmt.Errorf("%w: %q", ErrInvalidOrigin, s)
		}
		origin[i] = v
	}
	return origin, nil
}

func isVertical(tok string) bool {
	switch strings.ToLower(tok) {
	case "top", "bottom":
		return true
	}
	return false
}

func originComponent(tok string, axis int, size float64) (float64, error) {
	switch tok {
	case "center":
		return size / 2, nil
	case "left", "top":
		if (tok == "left") != (axis == 0) {
			return 0, ErrInvalidOrigin
		}
		return 0, nil
	case "right", "bottom":
		if (tok == "right") != (axis == 0) {
			return 0, ErrInvalidOrigin
		}
		return size, nil
	}
	if pct, ok := strings.CutSuffix(tok, "%"); ok {
		v, err := parseFinite(pct)
		if err != nil || math.IsInf(size*v, 0) {
			return 0, ErrInvalidOrigin
		}
		return size * v / 100, nil
	}
	return parseLength(tok)
}

// ParseDuration parses a CSS time such as "2s" or "350ms". For a list of
// durations the first one is returned.
func ParseDuration(s string) (time.Duration, error) {
	first, _, _ := strings.Cut(s, ",")
	first = strings.ToLower(strings.TrimSpace(first))
	if first == "" {
		return 0, nil
	}

	scale := float64(time.Second)
	num, ok := strings.CutSuffix(first, "ms")
	if ok {
		scale = float64(time.Millisecond)
	} else if num, ok = strings.CutSuffix(first, "s"); !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	v, err := parseFinite(num)
	if err != nil || v < 0 || v*scale >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return time.Duration(v * scale), nil
}
