package exhibit

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/time/rate"
)

// Page event names understood by WebProvider.
const (
	webEventStart        = "start"
	webEventCueComplete  = "cue_complete"
	webEventLog          = "log"
	webEventStorageWrite = "storage_write"
)

// webEvent is the JSON envelope exchanged with the page renderer in text
// messages. Binary messages carry encoded frames.
type webEvent struct {
	Event   string `json:"event"`
	Loop    bool   `json:"loop,omitempty"`
	Message string `json:"message,omitempty"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`

	gen uint64
	err error
}

type webFrame struct {
	gen uint64
	img image.Image
}

// WebProvider shows web-rendered content. A page renderer (a headless
// browser or any process that can rasterize the page) connects over a
// websocket and pushes encoded frames as binary messages and page events as
// JSON text messages. Frames are scaled to the configured viewport and
// committed on the render thread at most WebMaxFPS times per second.
type WebProvider struct {
	ProviderBase

	viewport Vec2
	limiter  *rate.Limiter

	gen     atomic.Uint64
	pending atomic.Pointer[webFrame]
	events  chan webEvent

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	start  *webEvent // start request queued until the connection is up

	owned   *ebiten.Image
	storage map[string]string
}

// webEventBuffer bounds the number of page events queued between Updates.
const webEventBuffer = 64

// NewWebProvider connects to the page renderer at url (ws:// or wss://) in
// the background. viewport is the page size; frames of any other size are
// scaled to it. A zero viewport keeps the frame size.
func NewWebProvider(url string, viewport Vec2) *WebProvider {
	w := &WebProvider{
		viewport: viewport,
		limiter:  rate.NewLimiter(rate.Limit(webMaxFPS), 1),
		events:   make(chan webEvent, webEventBuffer),
		storage:  make(map[string]string),
	}
	w.Init(ProviderWeb, w.free)
	w.SetSource(url)
	return w
}

// SetSource closes the current connection and dials url. Sources that are not
// websocket URLs leave the provider not ready with ErrUnsupportedMedia.
func (w *WebProvider) SetSource(url string) {
	if w.disposed {
		return
	}
	w.disconnect()
	w.invalidate()
	w.source = url
	gen := w.gen.Add(1)
	w.pending.Store(nil)

	if url == "" {
		return
	}
	if !isWebSource(url) {
		w.SetError(fmt.Errorf("%s: %w", url, ErrUnsupportedMedia))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	go w.run(ctx, url, gen)
}

// run owns the connection for one source generation.
func (w *WebProvider) run(ctx context.Context, url string, gen uint64) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		w.post(ctx, gen, webEvent{err: fmt.Errorf("dial %s: %w", url, err)})
		return
	}

	w.mu.Lock()
	if ctx.Err() != nil {
		w.mu.Unlock()
		conn.Close()
		return
	}
	w.conn = conn
	start := w.start
	w.start = nil
	w.mu.Unlock()

	if start != nil {
		w.send(*start)
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				w.post(ctx, gen, webEvent{err: fmt.Errorf("read %s: %w", url, err)})
			}
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			img, err := decodeBytes(data)
			if err != nil {
				w.post(ctx, gen, webEvent{err: err})
				continue
			}
			img = fitImage(img, int(w.viewport.X), int(w.viewport.Y))
			w.pending.Store(&webFrame{gen: gen, img: img})
		case websocket.TextMessage:
			var ev webEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				w.post(ctx, gen, webEvent{err: fmt.Errorf("page event: %w", err)})
				continue
			}
			w.post(ctx, gen, ev)
		}
	}
}

// post queues ev for the render thread unless the connection is shutting down.
func (w *WebProvider) post(ctx context.Context, gen uint64, ev webEvent) {
	ev.gen = gen
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// send writes ev to the page. Errors are recorded on the next Update.
func (w *WebProvider) send(ev webEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return
	}
	if err := w.conn.WriteJSON(ev); err != nil {
		select {
		case w.events <- webEvent{gen: w.gen.Load(), err: fmt.Errorf("write page event: %w", err)}:
		default:
		}
	}
}

// StartMedia tells the page to start its media. If the connection is not up
// yet the request is sent as soon as it is.
func (w *WebProvider) StartMedia(loop bool) {
	w.ProviderBase.StartMedia(loop)
	ev := webEvent{Event: webEventStart, Loop: loop}
	w.mu.Lock()
	if w.conn == nil {
		w.start = &ev
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	w.send(ev)
}

// Size returns the configured viewport, or the frame size without one.
func (w *WebProvider) Size() Vec2 {
	if w.viewport.X > 0 && w.viewport.Y > 0 {
		return w.viewport
	}
	return w.ProviderBase.Size()
}

// Update commits the latest frame and dispatches queued page events. Media
// completion fires from here so it is ordered with the rest of the frame.
func (w *WebProvider) Update() {
	if w.disposed {
		return
	}
	w.commit()
	for {
		select {
		case ev := <-w.events:
			w.handle(ev)
		default:
			return
		}
	}
}

// commit uploads the newest decoded frame. The limiter decides when a commit
// may happen; a frame it holds back stays pending, so intermediate frames are
// skipped but the last one the page sent is always shown.
func (w *WebProvider) commit() {
	f := w.pending.Load()
	if f == nil {
		return
	}
	if f.gen != w.gen.Load() {
		w.pending.CompareAndSwap(f, nil)
		return
	}
	if !w.limiter.Allow() {
		return
	}
	f = w.pending.Swap(nil)
	if f == nil || f.gen != w.gen.Load() {
		return
	}
	tex := ebiten.NewImageFromImage(f.img)
	old := w.owned
	w.owned = tex
	statFramesCommitted++
	w.SetTexture(tex)
	if old != nil {
		old.Deallocate()
	}
}

func (w *WebProvider) handle(ev webEvent) {
	if ev.gen != w.gen.Load() {
		return
	}
	if ev.err != nil {
		w.SetError(ev.err)
		return
	}
	switch ev.Event {
	case webEventCueComplete:
		w.CompleteMedia()
	case webEventLog:
		debugf("web %s: %s", w.source, ev.Message)
	case webEventStorageWrite:
		w.storage[ev.Key] = ev.Value
	default:
		debugf("web %s: unknown page event %q", w.source, ev.Event)
	}
}

// Storage returns a value the page persisted with a storage_write event.
func (w *WebProvider) Storage(key string) (string, bool) {
	v, ok := w.storage[key]
	return v, ok
}

// Connected reports whether the websocket is open.
func (w *WebProvider) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

func (w *WebProvider) disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.start = nil
}

func (w *WebProvider) free() {
	w.disconnect()
	w.gen.Add(1)
	w.pending.Store(nil)
	if w.owned != nil {
		w.owned.Deallocate()
		w.owned = nil
	}
}
