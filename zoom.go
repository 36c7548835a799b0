package exhibit

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// zoomArea computes the sub-rectangle of a size.X×size.Y texture sampled at
// the given zoom level.
//
// The area shrinks linearly from the full texture at zoom 0 to minFrac of
// each side at zoom 1, never below one pixel. Its centre moves linearly from
// the texture centre to focus (normalized), and the rectangle is then shifted
// back inside the texture, so the result is always non-empty and contained.
func zoomArea(size image.Point, zoom float64, focus Vec2, minFrac float64) image.Rectangle {
	if size.X <= 0 || size.Y <= 0 {
		return image.Rectangle{}
	}
	z := clamp01(zoom)
	if z == 0 {
		return image.Rectangle{Max: size}
	}
	if minFrac <= 0 || minFrac > 1 {
		minFrac = defaultMinZoomFraction
	}

	w, h := float64(size.X), float64(size.Y)
	f := 1 - z*(1-minFrac)
	aw := math.Max(math.Round(w*f), 1)
	ah := math.Max(math.Round(h*f), 1)

	cx := lerp(w/2, clamp01(focus.X)*w, z)
	cy := lerp(h/2, clamp01(focus.Y)*h, z)

	x0 := clampRange(math.Round(cx-aw/2), 0, w-aw)
	y0 := clampRange(math.Round(cy-ah/2), 0, h-ah)

	return image.Rect(int(x0), int(y0), int(x0+aw), int(y0+ah))
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// zoomKey is the input of the last zoom area computation. The area and the
// offscreen pass are redone only when it changes.
type zoomKey struct {
	zoom    float64
	focus   Vec2
	size    image.Point
	minFrac float64
}

// updateZoom recomputes the zoom area if zoom, zoom center, texture size or
// the configured minimum changed since the last call.
func (s *Sprite) updateZoom() {
	if s.input == nil {
		return
	}
	key := zoomKey{
		zoom:    s.zoom,
		focus:   s.zoomCenter,
		size:    s.input.Bounds().Size(),
		minFrac: minZoomFraction,
	}
	if !s.zoomDirty && key == s.lastZoom {
		return
	}
	area := zoomArea(key.size, key.zoom, key.focus, key.minFrac)
	if area != s.zoomArea {
		s.fboDirty = true
	}
	s.zoomArea = area
	s.lastZoom = key
	s.zoomDirty = false
}

// updateFBO regenerates the output texture from the input and the zoom
// area. An area covering the whole input needs no offscreen pass: the input
// is drawn as is. Otherwise the area is scaled up into a target the size of
// the input, which is only reallocated when that size changes.
func (s *Sprite) updateFBO() {
	s.fboDirty = false
	if s.input == nil {
		s.output = nil
		return
	}
	size := s.input.Bounds().Size()
	if s.zoomArea == (image.Rectangle{Max: size}) {
		s.output = s.input
		return
	}

	if s.fbo == nil {
		s.fbo = NewRenderTexture(size.X, size.Y)
	} else {
		s.fbo.Resize(size.X, size.Y)
	}
	s.fbo.Clear()

	src := s.input.SubImage(s.zoomArea.Add(s.input.Bounds().Min)).(*ebiten.Image)
	dst := s.fbo.Size()
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(
		float64(dst.X)/float64(s.zoomArea.Dx()),
		float64(dst.Y)/float64(s.zoomArea.Dy()),
	)
	op.Filter = ebiten.FilterLinear
	op.Blend = ebiten.BlendCopy
	s.fbo.DrawImage(src, &op)
	s.output = s.fbo.Image()
	statZoomPasses++
}
