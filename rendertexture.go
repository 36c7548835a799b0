package exhibit

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// RenderTexture is a persistent offscreen target. Sprites use one as the
// framebuffer their zoomed/cropped output is rendered into. It is owned by
// whoever created it and is never shared or pooled.
type RenderTexture struct {
	image *ebiten.Image
	w, h  int
}

// NewRenderTexture creates an offscreen target of the given size.
func NewRenderTexture(w, h int) *RenderTexture {
	if w <= 0 || h <= 0 {
		panic("exhibit: render texture size must be positive")
	}
	statFBOAllocations++
	return &RenderTexture{
		image: ebiten.NewImage(w, h),
		w:     w,
		h:     h,
	}
}

// Image returns the underlying *ebiten.Image.
func (rt *RenderTexture) Image() *ebiten.Image {
	return rt.image
}

// Size returns the texture size in pixels.
func (rt *RenderTexture) Size() image.Point {
	return image.Pt(rt.w, rt.h)
}

// Clear fills the texture with transparent black.
func (rt *RenderTexture) Clear() {
	rt.image.Clear()
}

// DrawImage draws src onto this texture using the provided options.
func (rt *RenderTexture) DrawImage(src *ebiten.Image, op *ebiten.DrawImageOptions) {
	rt.image.DrawImage(src, op)
}

// Resize reallocates the texture if the size differs. It reports whether a
// new image was allocated; the old contents are lost in that case.
func (rt *RenderTexture) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		panic("exhibit: render texture size must be positive")
	}
	if rt.image != nil && rt.w == width && rt.h == height {
		return false
	}
	if rt.image != nil {
		rt.image.Deallocate()
	}
	rt.image = ebiten.NewImage(width, height)
	rt.w = width
	rt.h = height
	statFBOAllocations++
	return true
}

// Dispose deallocates the underlying image. The RenderTexture should not be
// used after calling Dispose.
func (rt *RenderTexture) Dispose() {
	if rt.image != nil {
		rt.image.Deallocate()
		rt.image = nil
	}
}
