package exhibit

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// defaultFrameDelay is used for GIF frames that declare no delay, matching
// what browsers do for 0 and 1 centisecond delays.
const defaultFrameDelay = 0.1

// PlayerPool owns the media players used by video providers. It belongs to
// the application context and is passed to each VideoProvider, so a show can
// stop, pause or recycle every player at once between scenes.
type PlayerPool struct {
	players []*Player
	next    int
}

// NewPlayerPool creates an empty pool.
func NewPlayerPool() *PlayerPool {
	return &PlayerPool{}
}

// Acquire returns the next free player, creating one if the pool is
// exhausted. Players handed out since the last Reset are not reused.
func (pp *PlayerPool) Acquire() *Player {
	if pp.next >= len(pp.players) {
		pp.players = append(pp.players, &Player{})
	}
	p := pp.players[pp.next]
	pp.next++
	return p
}

// Reset stops and unloads every player and makes them all available again.
func (pp *PlayerPool) Reset() {
	pp.next = 0
	for _, p := range pp.players {
		p.Stop()
		p.Unload()
	}
}

// Pause pauses every playing player.
func (pp *PlayerPool) Pause() {
	for _, p := range pp.players {
		if p.IsPlaying() {
			p.Pause()
		}
	}
}

// Unpause resumes every paused player.
func (pp *PlayerPool) Unpause() {
	for _, p := range pp.players {
		if p.IsPaused() {
			p.Resume()
		}
	}
}

// Clear drops every player. Providers holding a player keep it alive but it
// is no longer managed by the pool.
func (pp *PlayerPool) Clear() {
	pp.players = nil
	pp.next = 0
}

// Len returns the number of players created by the pool.
func (pp *PlayerPool) Len() int {
	return len(pp.players)
}

// InUse returns the number of players handed out since the last Reset.
func (pp *PlayerPool) InUse() int {
	return pp.next
}

// clip is a fully decoded frame sequence.
type clip struct {
	gen    uint64
	frames []*image.RGBA
	delays []float64 // seconds per frame
	size   image.Point
	err    error
}

// Player decodes an animated GIF on a background goroutine and steps through
// its frames. Frame textures are uploaded lazily and kept for replay, so the
// texture a provider exposes is always swapped wholesale.
type Player struct {
	gen     atomic.Uint64
	pending atomic.Pointer[clip]

	clip     *clip
	textures []*ebiten.Image
	frame    int
	elapsed  float64

	playing bool
	paused  bool
	looping bool
}

// Load starts decoding path. The previous clip is unloaded immediately.
func (p *Player) Load(path string) {
	p.Unload()
	gen := p.gen.Add(1)
	if path == "" {
		return
	}
	go func() {
		c, err := decodeClip(path)
		if err != nil {
			c = &clip{err: err}
		}
		c.gen = gen
		p.pending.Store(c)
	}()
}

// Unload drops the current clip and its textures.
func (p *Player) Unload() {
	p.gen.Add(1)
	p.pending.Store(nil)
	for _, t := range p.textures {
		if t != nil {
			t.Deallocate()
		}
	}
	p.textures = nil
	p.clip = nil
	p.frame = 0
	p.elapsed = 0
}

// poll adopts a finished decode. It returns the decode error, if any.
func (p *Player) poll() error {
	c := p.pending.Swap(nil)
	if c == nil || c.gen != p.gen.Load() {
		return nil
	}
	if c.err != nil {
		return c.err
	}
	p.clip = c
	p.textures = make([]*ebiten.Image, len(c.frames))
	p.frame = 0
	p.elapsed = 0
	return nil
}

// Loaded reports whether a clip is ready to play.
func (p *Player) Loaded() bool { return p.clip != nil }

// Play starts playback from the first frame.
func (p *Player) Play(loop bool) {
	p.playing = true
	p.paused = false
	p.looping = loop
	p.frame = 0
	p.elapsed = 0
}

// Pause halts playback on the current frame.
func (p *Player) Pause() {
	if p.playing {
		p.paused = true
	}
}

// Resume continues a paused playback.
func (p *Player) Resume() {
	p.paused = false
}

// Stop ends playback and rewinds.
func (p *Player) Stop() {
	p.playing = false
	p.paused = false
	p.frame = 0
	p.elapsed = 0
}

// IsPlaying reports whether playback is running and not paused.
func (p *Player) IsPlaying() bool { return p.playing && !p.paused }

// IsPaused reports whether playback is paused.
func (p *Player) IsPaused() bool { return p.playing && p.paused }

// Frame returns the index of the current frame.
func (p *Player) Frame() int { return p.frame }

// FrameCount returns the number of frames in the loaded clip.
func (p *Player) FrameCount() int {
	if p.clip == nil {
		return 0
	}
	return len(p.clip.frames)
}

// Size returns the clip dimensions.
func (p *Player) Size() image.Point {
	if p.clip == nil {
		return image.Point{}
	}
	return p.clip.size
}

// advance moves playback forward by dt seconds. It returns true exactly when
// a non-looping playback passes its last frame.
func (p *Player) advance(dt float64) bool {
	if p.clip == nil || !p.playing || p.paused || len(p.clip.frames) == 0 {
		return false
	}
	p.elapsed += dt
	last := len(p.clip.frames) - 1
	for p.elapsed >= p.clip.delays[p.frame] {
		p.elapsed -= p.clip.delays[p.frame]
		if p.frame < last {
			p.frame++
			continue
		}
		if p.looping {
			p.frame = 0
			continue
		}
		p.playing = false
		p.elapsed = 0
		return true
	}
	return false
}

// texture returns the GPU texture for the current frame, uploading it on
// first use.
func (p *Player) texture() *ebiten.Image {
	if p.clip == nil || len(p.clip.frames) == 0 {
		return nil
	}
	if p.textures[p.frame] == nil {
		p.textures[p.frame] = ebiten.NewImageFromImage(p.clip.frames[p.frame])
		statFramesCommitted++
	}
	return p.textures[p.frame]
}

// decodeClip decodes every frame of an animated GIF into full-canvas RGBA
// frames, applying each frame's disposal method.
func decodeClip(path string) (*clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decode %s: no frames", path)
	}

	size := image.Pt(g.Config.Width, g.Config.Height)
	if size.X == 0 || size.Y == 0 {
		size = g.Image[0].Bounds().Max
	}
	canvas := image.NewRGBA(image.Rectangle{Max: size})

	c := &clip{size: size}
	for i, frame := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var restore *image.RGBA
		if disposal == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		c.frames = append(c.frames, cloneRGBA(canvas))

		delay := defaultFrameDelay
		if i < len(g.Delay) && g.Delay[i] > 1 {
			delay = float64(g.Delay[i]) / 100
		}
		c.delays = append(c.delays, delay)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}
	}
	return c, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// VideoProvider plays a frame sequence through a pooled Player.
type VideoProvider struct {
	ProviderBase

	pool   *PlayerPool
	player *Player
}

// NewVideoProvider creates a provider for the animated file at path using a
// player from pool. The first frame is shown once decoding finishes;
// playback starts with StartMedia.
func NewVideoProvider(path string, pool *PlayerPool) *VideoProvider {
	if pool == nil {
		panic("exhibit: NewVideoProvider requires a PlayerPool")
	}
	v := &VideoProvider{pool: pool, player: pool.Acquire()}
	v.Init(ProviderVideo, v.free)
	v.SetSource(path)
	return v
}

// Player returns the pooled player backing this provider.
func (v *VideoProvider) Player() *Player { return v.player }

// SetSource loads a new clip and invalidates the current frame.
func (v *VideoProvider) SetSource(path string) {
	if v.disposed {
		return
	}
	v.invalidate()
	v.source = path
	v.player.Stop()
	v.player.Load(path)
}

// IsReady reports whether the first frame has been decoded.
func (v *VideoProvider) IsReady() bool {
	v.sync()
	return v.ProviderBase.IsReady()
}

// Texture returns the current frame.
func (v *VideoProvider) Texture() *ebiten.Image {
	v.sync()
	return v.ProviderBase.Texture()
}

// Size returns the frame dimensions.
func (v *VideoProvider) Size() Vec2 {
	v.sync()
	s := v.player.Size()
	return Vec2{float64(s.X), float64(s.Y)}
}

// StartMedia starts playback from the first frame.
func (v *VideoProvider) StartMedia(loop bool) {
	v.ProviderBase.StartMedia(loop)
	v.player.Play(loop)
	v.sync()
}

// Step advances playback by dt seconds, swaps the texture to the current
// frame and fires MediaComplete when a non-looping playback ends.
func (v *VideoProvider) Step(dt float64) {
	if v.disposed {
		return
	}
	v.sync()
	finished := v.player.advance(dt)
	v.sync()
	if finished {
		v.CompleteMedia()
	}
}

// Update advances playback by one tick.
func (v *VideoProvider) Update() {
	v.Step(tickSeconds())
}

// tickSeconds returns the duration of one update tick. SyncWithFPS reports a
// negative TPS, in which case 60 Hz is assumed.
func tickSeconds() float64 {
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return 1 / float64(tps)
}

// sync adopts a finished decode and swaps in the current frame texture.
func (v *VideoProvider) sync() {
	if v.disposed {
		return
	}
	if err := v.player.poll(); err != nil {
		statDecodeFailures++
		v.SetError(err)
		return
	}
	if !v.player.Loaded() {
		// The pool unloaded the player under us.
		if v.ready {
			v.invalidate()
		}
		return
	}
	tex := v.player.texture()
	if tex != nil && tex != v.texture {
		v.SetTexture(tex)
	}
}

// free returns the player to an idle state. The player stays in its pool.
func (v *VideoProvider) free() {
	v.player.Stop()
	v.player.Unload()
}
