package exhibit

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Sprite draws a provider's texture with position, scale, origin, zoom/crop,
// mask, tint and alpha applied. Every animatable property is stored as the
// value the animation engine writes into, so Draw always reads the current
// animated value.
//
// Position and scale are split into an absolute value and an animated
// offset, like a placement plus a motion: MoveTo and ScaleTo animate the
// offsets so the effective value reaches the requested target.
type Sprite struct {
	// Name is used in debug messages.
	Name string
	// BlendMode selects how the sprite is composited onto the destination.
	BlendMode BlendMode

	provider      TextureProvider
	ownsProvider  bool // created by NewSprite; the sprite updates it
	changeConn    *Connection
	inputStale    bool
	input         *ebiten.Image
	output        *ebiten.Image
	fbo           *RenderTexture

	origin      Origin
	coordinates Vec2
	offset      Vec2
	scale       Vec2
	scaleOffset Vec2
	alpha       float64
	tint        Color
	mask        Rect

	zoom       float64
	zoomCenter Vec2
	zoomArea   image.Rectangle
	zoomDirty  bool
	fboDirty   bool
	lastZoom   zoomKey

	alphaTrack track
	moveTrack  track
	scaleTrack track
	tintTrack  track
	zoomTrack  track
	maskTrack  track

	completed Signal
	disposed  bool
}

func spriteDefaults(s *Sprite) {
	s.scale = Vec2{1, 1}
	s.alpha = 1
	s.tint = ColorWhite
	s.mask = maskFull
	s.zoomCenter = Vec2{0.5, 0.5}
	s.zoomDirty = true
	s.fboDirty = true
}

// NewSprite creates a sprite backed by its own empty ImageProvider. Bind
// content with Provider().SetSource or replace the provider with
// SetProvider. The sprite updates a provider it created itself.
func NewSprite() *Sprite {
	s := &Sprite{}
	spriteDefaults(s)
	p := NewImageProvider("")
	s.SetProvider(p)
	p.Release() // the sprite now holds the only reference
	s.ownsProvider = true
	return s
}

// NewSpriteWithProvider creates a sprite bound to p. The sprite takes its
// own reference; the caller keeps theirs and remains responsible for calling
// p.Update once per frame.
func NewSpriteWithProvider(p TextureProvider) *Sprite {
	s := &Sprite{}
	spriteDefaults(s)
	s.SetProvider(p)
	return s
}

// --- Provider binding ---

// Provider returns the bound provider.
func (s *Sprite) Provider() TextureProvider {
	return s.provider
}

// SetProvider binds p, releasing the previous provider. The sprite
// subscribes to p's texture changes; the subscription is removed on rebind
// and on Dispose.
func (s *Sprite) SetProvider(p TextureProvider) {
	if p == nil {
		panic("exhibit: cannot bind nil provider")
	}
	if globalDebug {
		debugCheckDisposed(s, "SetProvider")
	}
	if p == s.provider {
		return
	}
	p.Retain()
	s.unbindProvider()
	s.provider = p
	s.ownsProvider = false
	s.changeConn = p.TextureChanged().Connect(s.onTextureChanged)
	s.inputStale = true
}

func (s *Sprite) onTextureChanged() {
	s.inputStale = true
}

func (s *Sprite) unbindProvider() {
	if s.changeConn != nil {
		s.changeConn.Disconnect()
		s.changeConn = nil
	}
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
	s.input = nil
	s.output = nil
}

// --- Setters ---

// SetAlpha sets the opacity and cancels alpha animations.
func (s *Sprite) SetAlpha(alpha float64) {
	s.alphaTrack.cancel()
	s.alpha = clamp01(alpha)
}

// SetCoordinates sets the absolute position and clears the animated offset.
func (s *Sprite) SetCoordinates(pos Vec2) {
	s.moveTrack.cancel()
	s.coordinates = pos
	s.offset = Vec2{}
}

// SetOrigin selects which point of the sprite the coordinates name.
func (s *Sprite) SetOrigin(o Origin) {
	s.origin = o
}

// SetScale sets a uniform absolute scale and clears the animated offset.
func (s *Sprite) SetScale(scale float64) {
	s.SetScaleXY(Vec2{scale, scale})
}

// SetScaleXY sets a per-axis absolute scale and clears the animated offset.
func (s *Sprite) SetScaleXY(scale Vec2) {
	s.scaleTrack.cancel()
	s.scale = scale
	s.scaleOffset = Vec2{}
}

// SetTint sets the color multiplied into the output.
func (s *Sprite) SetTint(c Color) {
	s.tintTrack.cancel()
	s.tint = c
}

// SetZoom sets the zoom level in [0, 1]. 0 shows the whole texture.
func (s *Sprite) SetZoom(zoom float64) {
	s.zoomTrack.cancel()
	s.zoom = clamp01(zoom)
}

// SetZoomCenter sets the normalized point of the texture zoomed into.
func (s *Sprite) SetZoomCenter(focus Vec2) {
	s.zoomCenter = Vec2{clamp01(focus.X), clamp01(focus.Y)}
}

// --- Getters ---

// Alpha returns the current opacity.
func (s *Sprite) Alpha() float64 { return s.alpha }

// Coordinates returns the absolute position without the animated offset.
func (s *Sprite) Coordinates() Vec2 { return s.coordinates }

// Position returns the effective position: coordinates plus offset.
func (s *Sprite) Position() Vec2 {
	return Vec2{s.coordinates.X + s.offset.X, s.coordinates.Y + s.offset.Y}
}

// Origin returns the anchor point.
func (s *Sprite) Origin() Origin { return s.origin }

// Scale returns the effective scale: absolute scale plus offset.
func (s *Sprite) Scale() Vec2 {
	return Vec2{s.scale.X + s.scaleOffset.X, s.scale.Y + s.scaleOffset.Y}
}

// Tint returns the current tint.
func (s *Sprite) Tint() Color { return s.tint }

// Zoom returns the current zoom level.
func (s *Sprite) Zoom() float64 { return s.zoom }

// ZoomCenter returns the normalized zoom focus.
func (s *Sprite) ZoomCenter() Vec2 { return s.zoomCenter }

// ZoomArea returns the region of the input texture currently sampled, in
// texture pixels, recomputing it if the zoom state changed.
func (s *Sprite) ZoomArea() image.Rectangle {
	s.syncInput()
	s.updateZoom()
	return s.zoomArea
}

// Input returns the texture last read from the provider.
func (s *Sprite) Input() *ebiten.Image { return s.input }

// Output returns the zoomed and cropped texture that Draw renders.
func (s *Sprite) Output() *ebiten.Image { return s.output }

// Size returns the natural size of the content.
func (s *Sprite) Size() Vec2 {
	if s.input != nil {
		sz := s.input.Bounds().Size()
		return Vec2{float64(sz.X), float64(sz.Y)}
	}
	if s.provider == nil {
		return Vec2{}
	}
	return s.provider.Size()
}

// Bounds returns the screen-space rectangle covered by the sprite, from its
// content size, effective scale, origin and position. The mask is not
// applied.
func (s *Sprite) Bounds() Rect {
	size := s.Size()
	sc := s.Scale()
	w, h := size.X*sc.X, size.Y*sc.Y
	pos := s.Position()
	if s.origin == OriginCenter {
		return Rect{pos.X - w/2, pos.Y - h/2, w, h}
	}
	return Rect{pos.X, pos.Y, w, h}
}

// Completed fires when a MaskHide animation finishes.
func (s *Sprite) Completed() *Signal { return &s.completed }

// IsDisposed reports whether Dispose has been called.
func (s *Sprite) IsDisposed() bool { return s.disposed }

// --- Frame ---

// Update pulls a new texture from the provider if it changed, recomputes the
// zoom area when the zoom state is dirty and regenerates the output when
// either changed. A provider created by NewSprite is updated first.
func (s *Sprite) Update() {
	if s.disposed || s.provider == nil {
		return
	}
	if s.ownsProvider {
		s.provider.Update()
	}
	s.syncInput()
	if s.input == nil {
		return
	}
	s.updateZoom()
	if s.fboDirty {
		s.updateFBO()
	}
}

// syncInput re-reads the provider texture after a change notification.
func (s *Sprite) syncInput() {
	if s.provider == nil || !s.provider.IsReady() {
		return
	}
	if !s.inputStale && s.input != nil {
		return
	}
	tex := s.provider.Texture()
	if tex == nil {
		return
	}
	s.inputStale = false
	if tex == s.input {
		return
	}
	s.input = tex
	s.zoomDirty = true
	s.fboDirty = true
}

// Draw renders the sprite onto dst. It is a no-op while the provider is not
// ready, when fully transparent, or when the mask is empty.
func (s *Sprite) Draw(dst *ebiten.Image) {
	if s.disposed || s.provider == nil || !s.provider.IsReady() {
		return
	}
	s.Update()
	if s.output == nil || s.alpha <= 0 {
		return
	}

	size := s.output.Bounds().Size()
	clip := maskPixels(s.mask, size)
	if clip.Empty() {
		return
	}
	src := s.output.SubImage(clip.Add(s.output.Bounds().Min)).(*ebiten.Image)

	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(clip.Min.X), float64(clip.Min.Y))
	if s.origin == OriginCenter {
		op.GeoM.Translate(-float64(size.X)/2, -float64(size.Y)/2)
	}
	sc := s.Scale()
	op.GeoM.Scale(sc.X, sc.Y)
	pos := s.Position()
	op.GeoM.Translate(pos.X, pos.Y)

	c := s.tint
	a := clamp01(s.alpha) * clamp01(c.A)
	op.ColorScale.Scale(float32(c.R*a), float32(c.G*a), float32(c.B*a), float32(a))
	op.Filter = ebiten.FilterLinear
	op.Blend = s.BlendMode.EbitenBlend()
	dst.DrawImage(src, &op)
}

// maskPixels converts a normalized mask to a pixel rectangle inside size.
// An inverted mask, which overshooting eases produce, covers nothing.
func maskPixels(mask Rect, size image.Point) image.Rectangle {
	m := mask.Intersect(UnitRect)
	if m.Empty() {
		return image.Rectangle{}
	}
	w, h := float64(size.X), float64(size.Y)
	return image.Rect(
		int(math.Round(m.X*w)),
		int(math.Round(m.Y*h)),
		int(math.Round((m.X+m.Width)*w)),
		int(math.Round((m.Y+m.Height)*h)),
	)
}

// --- Animation ---

// AlphaTo animates the opacity to target.
func (s *Sprite) AlphaTo(tl *Timeline, target float64, opts TweenOpts) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "AlphaTo")
	}
	return animate(tl, &s.alphaTrack, s,
		[]*float64{&s.alpha}, []float64{clamp01(target)}, opts, nil)
}

// MoveTo animates the effective position to target, interpreted according
// to the origin. The animation runs on the offset from the coordinates.
func (s *Sprite) MoveTo(tl *Timeline, target Vec2, opts TweenOpts) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "MoveTo")
	}
	return animate(tl, &s.moveTrack, s,
		[]*float64{&s.offset.X, &s.offset.Y},
		[]float64{target.X - s.coordinates.X, target.Y - s.coordinates.Y}, opts, nil)
}

// ScaleTo animates the effective scale uniformly to target. The sprite grows
// around its origin.
func (s *Sprite) ScaleTo(tl *Timeline, target float64, opts TweenOpts) *Tween {
	return s.ScaleToXY(tl, Vec2{target, target}, opts)
}

// ScaleToXY animates the effective per-axis scale to target.
func (s *Sprite) ScaleToXY(tl *Timeline, target Vec2, opts TweenOpts) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "ScaleTo")
	}
	return animate(tl, &s.scaleTrack, s,
		[]*float64{&s.scaleOffset.X, &s.scaleOffset.Y},
		[]float64{target.X - s.scale.X, target.Y - s.scale.Y}, opts, nil)
}

// TintTo animates the tint to target.
func (s *Sprite) TintTo(tl *Timeline, target Color, opts TweenOpts) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "TintTo")
	}
	return animate(tl, &s.tintTrack, s,
		[]*float64{&s.tint.R, &s.tint.G, &s.tint.B, &s.tint.A},
		[]float64{target.R, target.G, target.B, target.A}, opts, nil)
}

// ZoomTo animates the zoom level to target in [0, 1]. The zoom area and the
// offscreen pass follow on the next Update or Draw.
func (s *Sprite) ZoomTo(tl *Timeline, target float64, opts TweenOpts) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "ZoomTo")
	}
	return animate(tl, &s.zoomTrack, s,
		[]*float64{&s.zoom}, []float64{clamp01(target)}, opts, nil)
}

// StartMedia arms the provider's completion signal if cueComplete is set
// and starts its media after delay seconds.
func (s *Sprite) StartMedia(tl *Timeline, loop, cueComplete bool, delay float32) *Tween {
	if globalDebug {
		debugCheckDisposed(s, "StartMedia")
	}
	p := s.provider
	t := tl.Call(delay, func() {
		if s.disposed || s.provider != p {
			return
		}
		p.SetCueComplete(cueComplete)
		p.StartMedia(loop)
	})
	t.target = s
	return t
}

// Animating reports whether any property animation is pending.
func (s *Sprite) Animating() bool {
	return s.alphaTrack.running() || s.moveTrack.running() ||
		s.scaleTrack.running() || s.tintTrack.running() ||
		s.zoomTrack.running() || s.maskTrack.running()
}

// StopAnimations cancels every property animation. Properties keep their
// current values.
func (s *Sprite) StopAnimations() {
	s.alphaTrack.cancel()
	s.moveTrack.cancel()
	s.scaleTrack.cancel()
	s.tintTrack.cancel()
	s.zoomTrack.cancel()
	s.maskTrack.cancel()
}

// --- Disposal ---

// Dispose cancels the sprite's animations, disconnects it from its provider,
// releases its provider reference and frees its offscreen target. No
// provider callback reaches the sprite afterwards. Safe to call twice.
func (s *Sprite) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.StopAnimations()
	s.unbindProvider()
	if s.fbo != nil {
		s.fbo.Dispose()
		s.fbo = nil
	}
	s.completed.DisconnectAll()
}
