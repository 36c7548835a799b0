package exhibit

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/hajimehoshi/ebiten/v2"
)

// ImageProvider backs sprites with a single static texture, either supplied
// directly or decoded from a file on a background goroutine.
//
// The decoded pixels are published through an atomic pointer and uploaded
// to the GPU on the render thread the next time the provider is polled
// (IsReady, Texture or Update), so the render thread never waits on disk or
// decode work and never observes a partially built texture.
type ImageProvider struct {
	ProviderBase

	gen     atomic.Uint64
	pending atomic.Pointer[decodeResult]

	mu        sync.Mutex
	done      chan struct{} // closed when the latest decode finishes
	decodeGen uint64        // generation of the latest decode started
	decodeSeq uint64        // bumped by every decode start, including reloads

	owned *ebiten.Image // texture allocated by this provider

	watcher *fsnotify.Watcher
}

type decodeResult struct {
	gen  uint64
	path string
	img  image.Image
	err  error
}

// NewImageProvider creates a provider that decodes path in the background.
// IsReady stays false until the decode completes. An empty path creates an
// unbound provider that stays not ready until SetSource is called.
func NewImageProvider(path string) *ImageProvider {
	p := &ImageProvider{}
	p.Init(ProviderImage, p.free)
	p.SetSource(path)
	if path != "" && watchImages {
		if err := p.Watch(); err != nil {
			p.SetError(err)
		}
	}
	return p
}

// NewImageProviderFromTexture creates a provider around an existing texture.
// It is ready immediately. The caller keeps ownership of img.
func NewImageProviderFromTexture(img *ebiten.Image) *ImageProvider {
	p := &ImageProvider{}
	p.Init(ProviderImage, p.free)
	p.SetTexture(img)
	return p
}

// SetSource binds the provider to a new file and starts decoding it. The
// current texture is invalidated until the new one is committed. A file that
// cannot be read or decoded leaves the provider not ready; Err reports why.
func (p *ImageProvider) SetSource(path string) {
	if p.disposed {
		return
	}
	p.invalidate()
	p.source = path
	gen := p.gen.Add(1)
	p.pending.Store(nil)

	// A running watch is restarted even for the same path so that its
	// reloads carry the new generation.
	if p.watcher != nil {
		p.stopWatch()
		if path != "" {
			if err := p.Watch(); err != nil {
				p.SetError(err)
			}
		}
	}

	if path == "" {
		p.mu.Lock()
		p.done = nil
		p.decodeGen = gen
		p.mu.Unlock()
		return
	}
	p.startDecode(gen, path)
}

// startDecode decodes path on a background goroutine and publishes the result
// for generation gen. Requests for a generation older than the latest one
// started are ignored, and a result is only published if no later decode has
// started in the meantime.
func (p *ImageProvider) startDecode(gen uint64, path string) {
	p.mu.Lock()
	if gen < p.decodeGen {
		p.mu.Unlock()
		return
	}
	done := make(chan struct{})
	p.done = done
	p.decodeGen = gen
	p.decodeSeq++
	seq := p.decodeSeq
	p.mu.Unlock()

	go func() {
		defer close(done)
		img, err := decodeFile(path)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.decodeGen != gen || p.decodeSeq != seq {
			return
		}
		p.pending.Store(&decodeResult{gen: gen, path: path, img: img, err: err})
	}()
}

// commit uploads a finished decode. Results from an older source are dropped.
func (p *ImageProvider) commit() {
	r := p.pending.Swap(nil)
	if r == nil || p.disposed || r.gen != p.gen.Load() || r.path != p.source {
		return
	}
	if r.err != nil {
		statDecodeFailures++
		p.SetError(r.err)
		return
	}
	tex := ebiten.NewImageFromImage(r.img)
	old := p.owned
	p.owned = tex
	statFramesCommitted++
	p.SetTexture(tex)
	if old != nil && old != tex {
		old.Deallocate()
	}
}

// Wait blocks until the pending decode has finished, commits it and returns
// the decode error, if any. It returns ctx.Err() if ctx is done first.
// Must be called from the render thread.
func (p *ImageProvider) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		if p.ready {
			return nil
		}
		return ErrNotReady
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.commit()
	if p.err != nil {
		return p.err
	}
	if !p.ready {
		return ErrNotReady
	}
	return nil
}

// IsReady commits a finished decode and reports whether a texture exists.
func (p *ImageProvider) IsReady() bool {
	p.commit()
	return p.ProviderBase.IsReady()
}

// Texture commits a finished decode and returns the current texture.
func (p *ImageProvider) Texture() *ebiten.Image {
	p.commit()
	return p.ProviderBase.Texture()
}

// Size returns the decoded image dimensions.
func (p *ImageProvider) Size() Vec2 {
	p.commit()
	return p.ProviderBase.Size()
}

// Update commits a finished background decode. A loaded image never changes
// unless the source is rebound or the watched file is rewritten.
func (p *ImageProvider) Update() {
	p.commit()
}

// Watch reloads the image whenever its source file is written or replaced.
// The containing directory is watched so editors that save via rename are
// picked up. The watch stops when the provider is disposed.
func (p *ImageProvider) Watch() error {
	if p.disposed {
		return ErrDisposed
	}
	if p.watcher != nil {
		return nil
	}
	if p.source == "" {
		return fmt.Errorf("watch: %w", ErrNotReady)
	}
	target, err := filepath.Abs(p.source)
	if err != nil {
		return fmt.Errorf("watch %s: %w", p.source, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", p.source, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", p.source, err)
	}
	p.watcher = w

	path := p.source
	gen := p.gen.Load()
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name, err := filepath.Abs(ev.Name)
				if err != nil || name != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					forgetDecode(path)
					p.startDecode(gen, path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				debugf("watch %s: %v", path, err)
			}
		}
	}()
	return nil
}

// Watching reports whether hot reload is active.
func (p *ImageProvider) Watching() bool {
	return p.watcher != nil
}

func (p *ImageProvider) stopWatch() {
	if p.watcher == nil {
		return
	}
	p.watcher.Close()
	p.watcher = nil
}

// free runs when the last reference is released.
func (p *ImageProvider) free() {
	p.stopWatch()
	p.gen.Add(1)
	p.pending.Store(nil)
	if p.owned != nil {
		p.owned.Deallocate()
		p.owned = nil
	}
}
