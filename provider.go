package exhibit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	// ErrNotReady is returned when a provider has no texture yet.
	ErrNotReady = errors.New("exhibit: provider not ready")
	// ErrUnsupportedMedia is returned for sources no provider can play.
	ErrUnsupportedMedia = errors.New("exhibit: unsupported media")
	// ErrDisposed is returned by operations on a released provider.
	ErrDisposed = errors.New("exhibit: provider disposed")
)

// ProviderKind tags the concrete provider variant.
type ProviderKind uint8

const (
	ProviderImage ProviderKind = iota // single static texture
	ProviderVideo                     // frame sequence played over time
	ProviderWeb                       // frames pushed by a remote page renderer
)

// String returns the kind name.
func (k ProviderKind) String() string {
	switch k {
	case ProviderImage:
		return "image"
	case ProviderVideo:
		return "video"
	case ProviderWeb:
		return "web"
	default:
		return "unknown"
	}
}

// TextureProvider produces a renderable texture for one or more sprites.
//
// Providers are shared: every sprite bound to a provider holds a reference
// (Retain) and drops it when unbound or disposed (Release). The provider is
// disposed when its last reference is released. Constructors hand one
// reference to the caller.
//
// All methods must be called from the render thread. Update must be called
// once per frame by the provider's owner; signals fire from inside Update.
//
// Implementations outside this package embed ProviderBase and call
// ProviderBase.Init from their constructor.
type TextureProvider interface {
	// Kind reports the provider variant.
	Kind() ProviderKind
	// Texture returns the current texture. Only valid when IsReady is true.
	Texture() *ebiten.Image
	// HasNewTexture reports whether the texture changed since the last call,
	// and clears the flag.
	HasNewTexture() bool
	// Size returns the natural size of the content in pixels.
	Size() Vec2
	// IsReady reports whether at least one valid texture exists.
	IsReady() bool
	// Source returns the path or URL the provider is bound to.
	Source() string
	// SetSource rebinds the provider and invalidates the current texture.
	SetSource(source string)
	// StartMedia begins playback. No-op for static providers.
	StartMedia(loop bool)
	// SetCueComplete arms (or disarms) the one-shot media complete signal.
	SetCueComplete(enabled bool)
	// Update advances per-frame state.
	Update()
	// MediaComplete fires once when non-looping media reaches its end.
	MediaComplete() *Signal
	// TextureChanged fires after every texture replacement.
	TextureChanged() *Signal
	// Err returns the last load or transport error, if any.
	Err() error
	// Retain adds a reference.
	Retain()
	// Release drops a reference and disposes the provider on the last one.
	Release()
}

// ProviderBase holds the state shared by all provider variants.
type ProviderBase struct {
	kind            ProviderKind
	texture         *ebiten.Image
	textureIsNew    bool
	ready           bool
	source          string
	mediaIsLooping  bool
	willCueComplete bool
	err             error

	mediaComplete  Signal
	textureChanged Signal

	refs     int
	disposed bool
	onFree   func()
}

// Init sets the provider kind, hands one reference to the caller and
// registers the hook that runs when the last reference is released.
func (b *ProviderBase) Init(kind ProviderKind, onFree func()) {
	b.kind = kind
	b.refs = 1
	b.onFree = onFree
}

// Kind reports the provider variant.
func (b *ProviderBase) Kind() ProviderKind { return b.kind }

// Texture returns the current texture, or nil when not ready.
func (b *ProviderBase) Texture() *ebiten.Image {
	if !b.ready {
		return nil
	}
	return b.texture
}

// HasNewTexture reports whether the texture was replaced since the last call.
// The flag is consumed: a second call returns false until the next replacement.
func (b *ProviderBase) HasNewTexture() bool {
	isNew := b.textureIsNew
	b.textureIsNew = false
	return isNew
}

// IsReady reports whether a valid texture exists.
func (b *ProviderBase) IsReady() bool { return b.ready && !b.disposed }

// Source returns the bound path or URL.
func (b *ProviderBase) Source() string { return b.source }

// Size returns the current texture size, or zero when not ready.
func (b *ProviderBase) Size() Vec2 {
	if b.texture == nil {
		return Vec2{}
	}
	s := b.texture.Bounds().Size()
	return Vec2{float64(s.X), float64(s.Y)}
}

// StartMedia is a no-op for static content.
func (b *ProviderBase) StartMedia(loop bool) {
	b.mediaIsLooping = loop
}

// SetCueComplete arms the media complete signal for the next playback end.
func (b *ProviderBase) SetCueComplete(enabled bool) { b.willCueComplete = enabled }

// Looping reports whether the last StartMedia requested looping playback.
func (b *ProviderBase) Looping() bool { return b.mediaIsLooping }

// MediaComplete returns the completion signal.
func (b *ProviderBase) MediaComplete() *Signal { return &b.mediaComplete }

// TextureChanged returns the signal fired after each texture swap.
func (b *ProviderBase) TextureChanged() *Signal { return &b.textureChanged }

// Err returns the last recorded error.
func (b *ProviderBase) Err() error { return b.err }

// Disposed reports whether the last reference has been released.
func (b *ProviderBase) Disposed() bool { return b.disposed }

// Refs returns the current reference count.
func (b *ProviderBase) Refs() int { return b.refs }

// Retain adds a reference.
func (b *ProviderBase) Retain() {
	if b.disposed {
		if globalDebug {
			panic("exhibit debug: Retain on disposed provider " + b.source)
		}
		return
	}
	b.refs++
}

// Release drops a reference. The last release runs the variant's dispose
// hook, disconnects every signal and drops the texture.
func (b *ProviderBase) Release() {
	if b.disposed {
		return
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	b.disposed = true
	if b.onFree != nil {
		b.onFree()
	}
	b.mediaComplete.DisconnectAll()
	b.textureChanged.DisconnectAll()
	b.texture = nil
	b.ready = false
	b.textureIsNew = false
}

// SetTexture replaces the texture wholesale, marks the provider ready, raises
// the new-texture flag and notifies subscribers. Must run on the render thread.
func (b *ProviderBase) SetTexture(img *ebiten.Image) {
	if b.disposed {
		return
	}
	if img == nil {
		b.invalidate()
		return
	}
	b.texture = img
	b.ready = true
	b.err = nil
	b.textureIsNew = true
	b.textureChanged.Emit()
}

// SetError records a load or transport error. The provider stays in its
// current readiness state.
func (b *ProviderBase) SetError(err error) {
	b.err = err
	if err != nil {
		debugf("%s provider %q: %v", b.kind, b.source, err)
	}
}

// CompleteMedia fires MediaComplete if armed and the media is not looping,
// then disarms so the signal can fire at most once per arming.
func (b *ProviderBase) CompleteMedia() {
	if !b.willCueComplete || b.mediaIsLooping {
		return
	}
	b.willCueComplete = false
	b.mediaComplete.Emit()
}

// invalidate drops the texture until a new one is committed.
func (b *ProviderBase) invalidate() {
	b.texture = nil
	b.ready = false
	b.textureIsNew = false
	b.err = nil
}

// ProviderOptions configures NewProvider.
type ProviderOptions struct {
	// Pool supplies players for animated sources. When nil, animated GIFs
	// are shown as a still image of their first frame.
	Pool *PlayerPool
	// Viewport is the page size for web sources. Zero uses the frame size.
	Viewport Vec2
}

// sniffLen is the number of header bytes filetype needs to match every
// format it knows.
const sniffLen = 262

// NewProvider picks a provider variant for source. ws:// and wss:// URLs get
// a WebProvider. Files are sniffed by content: animated formats get a
// VideoProvider, still images an ImageProvider. Video containers without a
// pure-Go decoder return ErrUnsupportedMedia. Files with no recognizable
// header (TGA has no magic) fall back to an ImageProvider.
func NewProvider(source string, opts ProviderOptions) (TextureProvider, error) {
	if isWebSource(source) {
		return NewWebProvider(source, opts.Viewport), nil
	}

	head, err := readHeader(source)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", source, err)
	}

	kind, _ := filetype.Match(head)
	switch {
	case kind.MIME.Value == "image/gif":
		if opts.Pool == nil {
			return NewImageProvider(source), nil
		}
		return NewVideoProvider(source, opts.Pool), nil
	case filetype.IsImage(head):
		return NewImageProvider(source), nil
	case filetype.IsVideo(head):
		return nil, fmt.Errorf("%s (%s): %w", source, kind.MIME.Value, ErrUnsupportedMedia)
	default:
		return NewImageProvider(source), nil
	}
}

func isWebSource(source string) bool {
	return strings.HasPrefix(source, "ws://") || strings.HasPrefix(source, "wss://")
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}
