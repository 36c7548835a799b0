// Package exhibit is the display layer of an interactive installation built
// on [Ebitengine].
//
// It draws content from interchangeable texture providers onto animated
// sprites: still images, frame-sequence video and pages rendered remotely
// and streamed over a websocket all satisfy one [TextureProvider] contract,
// and a [Sprite] composites whichever one it is bound to with zoom, crop,
// reveal/hide masks, tint, alpha, scale and position.
//
// # Quick start
//
//	tl := exhibit.NewTimeline()
//	pool := exhibit.NewPlayerPool()
//
//	p, err := exhibit.NewProvider("slides/intro.png", exhibit.ProviderOptions{Pool: pool})
//	if err != nil {
//		return err
//	}
//	sprite := exhibit.NewSpriteWithProvider(p)
//	sprite.SetOrigin(exhibit.OriginCenter)
//	sprite.SetCoordinates(exhibit.Vec2{X: 640, Y: 360})
//	sprite.MaskReveal(tl, exhibit.MaskFromCenter, exhibit.TweenOpts{Duration: 1.2})
//
// Each frame, update the providers you own, then the timeline, then draw:
//
//	func (g *Game) Update() error {
//		g.provider.Update()
//		g.timeline.Update(1 / float32(ebiten.TPS()))
//		return nil
//	}
//
//	func (g *Game) Draw(screen *ebiten.Image) { g.sprite.Draw(screen) }
//
// # Providers
//
// Providers are shared and reference counted. Constructors return one
// reference owned by the caller; every sprite bound to a provider holds
// another. The last [TextureProvider.Release] stops background work and
// frees GPU memory. Decoding, clip loading and network reads run on
// goroutines; textures are only created and swapped on the render thread,
// inside Update.
//
// # Animation
//
// Property animations ([Sprite.AlphaTo], [Sprite.MoveTo], [Sprite.ScaleTo],
// [Sprite.TintTo], [Sprite.ZoomTo], [Sprite.MaskReveal], [Sprite.MaskHide])
// are scheduled on a [Timeline] and eased with [gween]. Each returns a
// [Tween] handle that can be awaited, chained with [Tween.Then] or cancelled.
// Scheduling a second animation of the same property replaces the first
// unless [TweenOpts.Append] is set, in which case it runs afterwards.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package exhibit
