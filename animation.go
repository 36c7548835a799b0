package exhibit

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenOpts controls how a property animation is scheduled.
type TweenOpts struct {
	// Duration in seconds. Zero with no Delay applies the target immediately.
	Duration float32
	// Delay in seconds before the animation starts.
	Delay float32
	// Ease is the easing function. Nil uses the configured default
	// (ease.InOutQuad unless changed with Configure).
	Ease ease.TweenFunc
	// Append queues the animation after the ones already scheduled on the
	// same property instead of replacing them.
	Append bool
}

// animTarget is anything whose lifetime bounds its tweens.
type animTarget interface {
	IsDisposed() bool
}

// Timeline drives scheduled tweens. Call Update once per frame with the
// frame's delta time. There is one timeline per show or scene; sprites do
// not own one.
type Timeline struct {
	tweens []*Tween
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Update advances every scheduled tween by dt seconds and drops finished
// ones. Tweens scheduled from completion callbacks start advancing on the
// next Update.
func (tl *Timeline) Update(dt float32) {
	n := len(tl.tweens)
	for i := 0; i < n; i++ {
		tl.tweens[i].step(dt)
	}
	live := tl.tweens[:0]
	for _, t := range tl.tweens {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(tl.tweens); i++ {
		tl.tweens[i] = nil
	}
	tl.tweens = live
}

// Len returns the number of tweens still running or waiting.
func (tl *Timeline) Len() int {
	return len(tl.tweens)
}

// Clear cancels every tween on the timeline.
func (tl *Timeline) Clear() {
	for _, t := range tl.tweens {
		t.Cancel()
	}
	tl.tweens = tl.tweens[:0]
}

// Call schedules fn to run after delay seconds and returns its handle.
func (tl *Timeline) Call(delay float32, fn func()) *Tween {
	t := &Tween{delay: delay}
	t.onStart = append(t.onStart, fn)
	tl.add(t)
	return t
}

func (tl *Timeline) add(t *Tween) {
	if tl == nil || (t.duration <= 0 && t.delay <= 0 && t.after == nil) {
		t.start()
		t.finish()
		return
	}
	tl.tweens = append(tl.tweens, t)
}

// Tween is the handle of one scheduled animation of up to four float64
// fields. It can be awaited (Done, OnComplete) or cancelled (Cancel).
// Values are written straight into the animated fields, so readers always see
// the current animated value.
type Tween struct {
	fields [4]*float64
	to     [4]float64
	count  int
	tweens [4]*gween.Tween

	duration float32
	delay    float32
	waited   float32
	elapsed  float32
	easing   ease.TweenFunc

	target animTarget
	after  *Tween
	// linked tweens are cancelled together with this one.
	linked []*Tween

	started  bool
	done     bool
	canceled bool

	onStart    []func()
	onComplete []func()
}

// Done reports whether the tween has completed or was cancelled.
func (t *Tween) Done() bool { return t.done }

// Canceled reports whether the tween was cancelled before completing.
func (t *Tween) Canceled() bool { return t.canceled }

// Started reports whether the delay has elapsed and values are being written.
func (t *Tween) Started() bool { return t.started }

// Duration returns the animation length in seconds.
func (t *Tween) Duration() float32 { return t.duration }

// Progress returns how far the animation is, from 0 before it starts to 1
// once it has completed.
func (t *Tween) Progress() float64 {
	switch {
	case t.done && !t.canceled:
		return 1
	case !t.started || t.duration <= 0:
		return 0
	}
	return clamp01(float64(t.elapsed / t.duration))
}

// OnComplete registers fn to run when the tween completes. Cancelled tweens
// never run their callbacks. If the tween already completed, fn runs now.
func (t *Tween) OnComplete(fn func()) *Tween {
	if t.done {
		if !t.canceled {
			fn()
		}
		return t
	}
	t.onComplete = append(t.onComplete, fn)
	return t
}

// Cancel stops the tween. The animated fields keep whatever value they had;
// no further writes happen and completion callbacks do not run.
func (t *Tween) Cancel() {
	if t.done {
		return
	}
	t.done = true
	t.canceled = true
	t.onStart = nil
	t.onComplete = nil
	for _, l := range t.linked {
		l.Cancel()
	}
	t.linked = nil
}

// Then calls fn when t completes and returns a handle that completes when the
// tween fn returns does. A nil return completes the handle immediately.
// Cancelling t, the returned handle or the tween fn produced cancels the rest
// of the chain.
func (t *Tween) Then(fn func() *Tween) *Tween {
	next := &Tween{target: t.target, started: true}
	if t.canceled {
		next.Cancel()
		return next
	}
	t.linked = append(t.linked, next)
	t.OnComplete(func() {
		if next.done {
			return
		}
		inner := fn()
		if inner == nil {
			next.finish()
			return
		}
		if inner.canceled {
			next.Cancel()
			return
		}
		inner.linked = append(inner.linked, next)
		next.linked = append(next.linked, inner)
		inner.OnComplete(next.finish)
	})
	return next
}

func (t *Tween) step(dt float32) {
	if t.done {
		return
	}
	if t.target != nil && t.target.IsDisposed() {
		t.Cancel()
		return
	}
	if t.after != nil {
		if !t.after.done {
			return
		}
		// The predecessor used this frame's time; start from here.
		t.after = nil
		dt = 0
	}
	if !t.started {
		if t.waited < t.delay {
			t.waited += dt
			if t.waited < t.delay {
				return
			}
			dt = t.waited - t.delay
		}
		t.start()
		if t.done {
			return
		}
	}
	if t.duration <= 0 {
		t.finish()
		return
	}

	t.elapsed += dt
	allDone := true
	for i := 0; i < t.count; i++ {
		val, finished := t.tweens[i].Update(dt)
		*t.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	if allDone {
		t.finish()
	}
}

// start captures the current field values as the animation's origin.
func (t *Tween) start() {
	t.started = true
	for _, fn := range t.onStart {
		fn()
	}
	t.onStart = nil
	if t.done {
		return
	}
	fn := t.easing
	if fn == nil {
		fn = defaultEase
	}
	for i := 0; i < t.count; i++ {
		t.tweens[i] = gween.New(float32(*t.fields[i]), float32(t.to[i]), t.duration, fn)
	}
}

// finish writes the exact targets, which float32 tweening cannot guarantee,
// and runs completion callbacks.
func (t *Tween) finish() {
	if t.done {
		return
	}
	for i := 0; i < t.count; i++ {
		*t.fields[i] = t.to[i]
	}
	t.done = true
	t.linked = nil
	callbacks := t.onComplete
	t.onComplete = nil
	for _, fn := range callbacks {
		fn()
	}
}

// track serializes the tweens that animate one property.
type track struct {
	tweens []*Tween
}

// last returns the most recently scheduled tween that has not finished.
func (tr *track) last() *Tween {
	tr.prune()
	if len(tr.tweens) == 0 {
		return nil
	}
	return tr.tweens[len(tr.tweens)-1]
}

// cancel stops every tween on the track.
func (tr *track) cancel() {
	for _, t := range tr.tweens {
		t.Cancel()
	}
	tr.tweens = tr.tweens[:0]
}

// running reports whether any tween on the track is unfinished.
func (tr *track) running() bool {
	return tr.last() != nil
}

func (tr *track) prune() {
	live := tr.tweens[:0]
	for _, t := range tr.tweens {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(tr.tweens); i++ {
		tr.tweens[i] = nil
	}
	tr.tweens = live
}

// animate schedules a tween of fields toward to on the given track. Without
// Append, tweens already on the track are cancelled first so the new one
// starts from the current values. onStart, if not nil, runs right before the
// start values are captured. A nil timeline applies the target immediately.
func animate(tl *Timeline, tr *track, target animTarget, fields []*float64, to []float64, opts TweenOpts, onStart func()) *Tween {
	t := &Tween{
		count:    len(fields),
		duration: opts.Duration,
		delay:    opts.Delay,
		easing:   opts.Ease,
		target:   target,
	}
	copy(t.fields[:], fields)
	copy(t.to[:], to)
	if onStart != nil {
		t.onStart = append(t.onStart, onStart)
	}

	if opts.Append && tl != nil {
		t.after = tr.last()
	} else {
		tr.cancel()
	}
	tr.tweens = append(tr.tweens, t)
	tl.add(t)
	return t
}
