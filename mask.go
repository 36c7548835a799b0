package exhibit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMaskType is returned by ParseMaskType for unknown names.
var ErrUnknownMaskType = errors.New("exhibit: unknown mask type")

// MaskType selects the shape of a reveal or hide transition.
type MaskType uint8

const (
	MaskToCenter    MaskType = iota // collapses toward the centre
	MaskFromCenter                  // grows out of the centre
	MaskLeftToRight                 // sweeps from the left edge to the right
	MaskRightToLeft                 // sweeps from the right edge to the left
)

var maskNames = [...]string{
	MaskToCenter:    "to_center",
	MaskFromCenter:  "from_center",
	MaskLeftToRight: "left_to_right",
	MaskRightToLeft: "right_to_left",
}

// String returns the snake_case name used in configuration.
func (m MaskType) String() string {
	if int(m) < len(maskNames) {
		return maskNames[m]
	}
	return "unknown"
}

// ParseMaskType parses a mask name. Case, '-' and '_' are ignored, so
// "left_to_right", "LeftToRight" and "left-to-right" are equivalent.
func ParseMaskType(name string) (MaskType, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(name))
	for i, n := range maskNames {
		if strings.ReplaceAll(n, "_", "") == key {
			return MaskType(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownMaskType)
}

// Normalized mask rectangles, in output space.
var (
	maskFull      = UnitRect
	maskCenter    = Rect{0.5, 0.5, 0, 0}
	maskLeftEdge  = Rect{0, 0, 0, 1}
	maskRightEdge = Rect{1, 0, 0, 1}
)

// maskStates returns the start and end rectangles of a transition.
func maskStates(kind MaskType, reveal bool) (from, to Rect) {
	switch kind {
	case MaskToCenter:
		if reveal {
			return maskFull, maskCenter
		}
		return maskCenter, maskFull
	case MaskFromCenter:
		if reveal {
			return maskCenter, maskFull
		}
		return maskFull, maskCenter
	case MaskLeftToRight:
		if reveal {
			return maskLeftEdge, maskFull
		}
		return maskFull, maskRightEdge
	case MaskRightToLeft:
		if reveal {
			return maskRightEdge, maskFull
		}
		return maskFull, maskLeftEdge
	default:
		return maskFull, maskFull
	}
}

// Mask returns the current normalized mask rectangle. Only the part of the
// output inside it is drawn.
func (s *Sprite) Mask() Rect {
	return s.mask
}

// SetMask sets the normalized mask rectangle and cancels mask animations.
func (s *Sprite) SetMask(r Rect) {
	s.maskTrack.cancel()
	s.mask = r
}

// ClearMask shows the whole sprite again.
func (s *Sprite) ClearMask() {
	s.SetMask(maskFull)
}

// MaskReveal animates the mask from the start to the end state of a reveal of
// the given kind. The start state is applied immediately unless the
// animation is appended behind another mask animation, in which case it is
// applied when this one starts.
func (s *Sprite) MaskReveal(tl *Timeline, kind MaskType, opts TweenOpts) *Tween {
	from, to := maskStates(kind, true)
	return s.applyMaskAnimation(tl, from, to, opts)
}

// MaskHide animates the mask from the start to the end state of a hide of
// the given kind. Completed fires when the hide finishes.
func (s *Sprite) MaskHide(tl *Timeline, kind MaskType, opts TweenOpts) *Tween {
	from, to := maskStates(kind, false)
	t := s.applyMaskAnimation(tl, from, to, opts)
	return t.OnComplete(s.completed.Emit)
}

func (s *Sprite) applyMaskAnimation(tl *Timeline, from, to Rect, opts TweenOpts) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "mask animation")
	}
	if !opts.Append || tl == nil || !s.maskTrack.running() {
		s.maskTrack.cancel()
		s.mask = from
	}
	return animate(tl, &s.maskTrack, s,
		[]*float64{&s.mask.X, &s.mask.Y, &s.mask.Width, &s.mask.Height},
		[]float64{to.X, to.Y, to.Width, to.Height},
		opts, func() { s.mask = from })
}
