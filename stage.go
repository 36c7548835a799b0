package exhibit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

// Stage is the top-level object of a show. It owns the timeline, the sprites
// in draw order and the providers the application hands over, and queues
// snapshots and cue scripts. Using a Stage is optional: sprites, providers
// and timelines work on their own.
type Stage struct {
	// ClearColor fills the screen before sprites are drawn. The zero value
	// leaves the screen untouched.
	ClearColor Color
	// SnapshotDir receives files queued with Snapshot.
	SnapshotDir string

	timeline  *Timeline
	sprites   []*Sprite
	providers []TextureProvider

	snapshotQueue []snapshotRequest
	script        *CueScript
	showFPS       bool
	fps           fpsOverlay
}

type snapshotRequest struct {
	sprite *Sprite
	label  string
}

// NewStage creates an empty stage.
func NewStage() *Stage {
	return &Stage{
		timeline:    NewTimeline(),
		SnapshotDir: "snapshots",
	}
}

// Timeline returns the stage's timeline. Stage.Update advances it.
func (st *Stage) Timeline() *Timeline {
	return st.timeline
}

// Add appends s to the draw order. Adding a sprite twice is a no-op.
func (st *Stage) Add(s *Sprite) {
	if s == nil {
		panic("exhibit: cannot add nil sprite to stage")
	}
	for _, have := range st.sprites {
		if have == s {
			return
		}
	}
	st.sprites = append(st.sprites, s)
}

// Remove takes s out of the draw order without disposing it.
func (st *Stage) Remove(s *Sprite) {
	for i, have := range st.sprites {
		if have == s {
			st.sprites = append(st.sprites[:i], st.sprites[i+1:]...)
			return
		}
	}
}

// Sprites returns the sprites in draw order. The returned slice MUST NOT be
// mutated.
func (st *Stage) Sprites() []*Sprite {
	return st.sprites
}

// Sprite returns the first sprite with the given name, or nil.
func (st *Stage) Sprite(name string) *Sprite {
	for _, s := range st.sprites {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Own hands the caller's reference to p over to the stage. The stage calls
// p.Update every frame and releases it on Dispose.
func (st *Stage) Own(p TextureProvider) {
	if p == nil {
		panic("exhibit: cannot own nil provider")
	}
	st.providers = append(st.providers, p)
}

// Snapshot queues the output of s to be written to SnapshotDir at the end of
// the next Draw.
func (st *Stage) Snapshot(s *Sprite, label string) {
	st.snapshotQueue = append(st.snapshotQueue, snapshotRequest{sprite: s, label: label})
}

// RunScript attaches a cue script. It is stepped once per Update.
func (st *Stage) RunScript(script *CueScript) {
	st.script = script
}

// SetShowFPS toggles the FPS/TPS overlay in the top-left corner.
func (st *Stage) SetShowFPS(show bool) {
	st.showFPS = show
}

// Update advances the stage by one tick: owned providers commit new
// textures and fire their signals, the cue script steps, the timeline
// advances and sprites refresh their output.
func (st *Stage) Update() {
	dt := tickSeconds()
	for _, p := range st.providers {
		p.Update()
	}
	if st.script != nil {
		st.script.step(st)
	}
	st.timeline.Update(float32(dt))

	live := st.sprites[:0]
	for _, s := range st.sprites {
		if s.IsDisposed() {
			continue
		}
		s.Update()
		live = append(live, s)
	}
	for i := len(live); i < len(st.sprites); i++ {
		st.sprites[i] = nil
	}
	st.sprites = live

	if st.showFPS {
		st.fps.update(dt)
	}
}

// Draw renders every sprite in order onto screen, then writes queued
// snapshots.
func (st *Stage) Draw(screen *ebiten.Image) {
	if st.ClearColor != (Color{}) {
		screen.Fill(st.ClearColor.toRGBA())
	}
	for _, s := range st.sprites {
		s.Draw(screen)
	}
	if st.showFPS {
		st.fps.draw(screen)
	}
	st.flushSnapshots()
	LogStats()
}

func (st *Stage) flushSnapshots() {
	if len(st.snapshotQueue) == 0 {
		return
	}
	for _, req := range st.snapshotQueue {
		path := SnapshotPath(st.SnapshotDir, req.label, "png")
		if err := req.sprite.Snapshot(path); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[exhibit] snapshot: %v\n", err)
		}
	}
	st.snapshotQueue = st.snapshotQueue[:0]
}

// Dispose clears the timeline, disposes every sprite and releases owned
// providers.
func (st *Stage) Dispose() {
	st.timeline.Clear()
	for _, s := range st.sprites {
		s.Dispose()
	}
	st.sprites = nil
	for _, p := range st.providers {
		p.Release()
	}
	st.providers = nil
	st.snapshotQueue = nil
	st.script = nil
}

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Fullscreen starts in fullscreen mode, as installations usually do.
	Fullscreen bool
	ShowFPS    bool
}

// ErrQuit can be returned through Stage-driven games to stop Run cleanly.
var ErrQuit = errors.New("exhibit: quit")

// Run opens a window and drives the stage until the window is closed or the
// script finishes with an exit cue.
func Run(st *Stage, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetFullscreen(cfg.Fullscreen)
	st.SetShowFPS(cfg.ShowFPS)
	if err := os.MkdirAll(filepath.Clean(st.SnapshotDir), 0o755); err != nil {
		debugf("snapshot dir: %v", err)
	}

	err := ebiten.RunGame(&stageGame{stage: st, w: cfg.Width, h: cfg.Height})
	st.Dispose()
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

type stageGame struct {
	stage *Stage
	w, h  int
}

func (g *stageGame) Update() error {
	g.stage.Update()
	if g.stage.script != nil && g.stage.script.exit {
		return ErrQuit
	}
	return nil
}

func (g *stageGame) Draw(screen *ebiten.Image) {
	g.stage.Draw(screen)
}

func (g *stageGame) Layout(_, _ int) (int, int) {
	return g.w, g.h
}
