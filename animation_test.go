package exhibit

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

// animBox is a minimal animation target.
type animBox struct {
	x, y     float64
	disposed bool
	tr       track
}

func (b *animBox) IsDisposed() bool { return b.disposed }

func (b *animBox) moveTo(tl *Timeline, x, y float64, opts TweenOpts) *Tween {
	return animate(tl, &b.tr, b, []*float64{&b.x, &b.y}, []float64{x, y}, opts, nil)
}

func TestTweenReachesTarget(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{x: 10, y: 20}
	tw := b.moveTo(tl, 100, 200, TweenOpts{Duration: 1, Ease: ease.Linear})

	// Exact halves avoid float32 accumulation drift.
	tl.Update(0.5)
	tl.Update(0.5)

	if !tw.Done() {
		t.Fatal("expected Done after full duration")
	}
	if b.x != 100 || b.y != 200 {
		t.Errorf("pos = (%f, %f), want exact (100, 200)", b.x, b.y)
	}
	if tl.Len() != 0 {
		t.Errorf("timeline Len = %d, want 0 after completion", tl.Len())
	}
}

func TestTweenInterpolates(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	b.moveTo(tl, 100, 0, TweenOpts{Duration: 1, Ease: ease.Linear})

	tl.Update(0.25)
	if math.Abs(b.x-25) > 0.5 {
		t.Errorf("x at 25%% = %f, want ~25", b.x)
	}
	tl.Update(0.25)
	if math.Abs(b.x-50) > 0.5 {
		t.Errorf("x at 50%% = %f, want ~50", b.x)
	}
}

func TestTweenZeroDurationAppliesImmediately(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{x: 1}
	completed := false
	tw := b.moveTo(tl, 9, 9, TweenOpts{}).OnComplete(func() { completed = true })

	if b.x != 9 || b.y != 9 {
		t.Errorf("pos = (%f, %f), want (9, 9) without any Update", b.x, b.y)
	}
	if !tw.Done() || !completed {
		t.Error("zero-duration tween should complete at schedule time")
	}
	if tl.Len() != 0 {
		t.Errorf("timeline Len = %d, want 0", tl.Len())
	}
}

func TestTweenNilTimelineAppliesImmediately(t *testing.T) {
	b := &animBox{}
	tw := b.moveTo(nil, 3, 4, TweenOpts{Duration: 5, Delay: 2})
	if b.x != 3 || b.y != 4 || !tw.Done() {
		t.Error("nil timeline should apply the target immediately")
	}
}

func TestTweenDelay(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{x: 0}
	tw := b.moveTo(tl, 10, 0, TweenOpts{Duration: 1, Delay: 0.5, Ease: ease.Linear})

	tl.Update(0.25)
	if tw.Started() || b.x != 0 {
		t.Fatal("tween should not start during its delay")
	}
	// Crosses the delay boundary; the remainder animates.
	tl.Update(0.5)
	if !tw.Started() {
		t.Fatal("tween should have started")
	}
	if math.Abs(b.x-2.5) > 0.1 {
		t.Errorf("x = %f, want ~2.5", b.x)
	}
}

func TestTweenReplaceCancelsPrevious(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	first := b.moveTo(tl, 100, 0, TweenOpts{Duration: 1, Ease: ease.Linear})
	firstDone := false
	first.OnComplete(func() { firstDone = true })

	tl.Update(0.5)
	mid := b.x
	second := b.moveTo(tl, 0, 0, TweenOpts{Duration: 1, Ease: ease.Linear})

	if !first.Canceled() {
		t.Error("replacing should cancel the running tween")
	}
	if b.x != mid {
		t.Error("cancel must not jump the value")
	}
	tl.Update(0.5)
	if math.Abs(b.x-mid/2) > 0.5 {
		t.Errorf("x = %f, want ~%f (second starts from current value)", b.x, mid/2)
	}
	tl.Update(0.5)
	if !second.Done() || b.x != 0 {
		t.Errorf("second tween should finish at 0, x = %f", b.x)
	}
	if firstDone {
		t.Error("cancelled tween must not run completion callbacks")
	}
}

func TestTweenAppendQueues(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	first := b.moveTo(tl, 10, 0, TweenOpts{Duration: 1, Ease: ease.Linear})
	second := b.moveTo(tl, 30, 0, TweenOpts{Duration: 1, Ease: ease.Linear, Append: true})

	tl.Update(0.5)
	if second.Started() {
		t.Fatal("appended tween should wait for its predecessor")
	}
	tl.Update(0.5)
	if !first.Done() || first.Canceled() {
		t.Fatal("first tween should complete normally")
	}
	if b.x != 10 {
		t.Errorf("x = %f, want 10 after first", b.x)
	}
	tl.Update(0.5)
	if math.Abs(b.x-20) > 0.5 {
		t.Errorf("x = %f, want ~20 halfway through second (starts from 10)", b.x)
	}
	tl.Update(0.5)
	if b.x != 30 || !second.Done() {
		t.Errorf("x = %f, want 30", b.x)
	}
}

func TestTweenCancelStopsWrites(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	tw := b.moveTo(tl, 100, 0, TweenOpts{Duration: 1, Ease: ease.Linear})
	tl.Update(0.25)
	tw.Cancel()
	x := b.x
	tl.Update(0.5)
	if b.x != x {
		t.Errorf("x changed after Cancel: %f -> %f", x, b.x)
	}
	if !tw.Done() || !tw.Canceled() {
		t.Error("Cancel should mark the tween done and canceled")
	}
}

func TestTweenDisposedTargetStops(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	tw := b.moveTo(tl, 100, 0, TweenOpts{Duration: 1, Ease: ease.Linear})
	tl.Update(0.25)
	b.disposed = true
	x := b.x
	tl.Update(0.25)
	if b.x != x {
		t.Error("tween wrote to a disposed target")
	}
	if !tw.Canceled() {
		t.Error("tween on disposed target should be cancelled")
	}
}

func TestTweenOnCompleteAfterDone(t *testing.T) {
	b := &animBox{}
	tw := b.moveTo(nil, 1, 1, TweenOpts{})
	ran := false
	tw.OnComplete(func() { ran = true })
	if !ran {
		t.Error("OnComplete on a finished tween should run immediately")
	}
}

func TestTweenThenChains(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	var order []string
	chain := b.moveTo(tl, 10, 0, TweenOpts{Duration: 0.5}).
		Then(func() *Tween {
			order = append(order, "second")
			return b.moveTo(tl, 20, 0, TweenOpts{Duration: 0.5})
		})
	chain.OnComplete(func() { order = append(order, "done") })

	tl.Update(0.5)
	if len(order) != 1 || order[0] != "second" {
		t.Fatalf("order = %v, want [second]", order)
	}
	if chain.Done() {
		t.Fatal("chain should wait for the second tween")
	}
	tl.Update(0.5)
	if !chain.Done() || b.x != 20 {
		t.Errorf("chain done = %v, x = %f", chain.Done(), b.x)
	}
	if len(order) != 2 || order[1] != "done" {
		t.Errorf("order = %v, want [second done]", order)
	}
}

func TestTweenThenNilCompletes(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	chain := b.moveTo(tl, 1, 0, TweenOpts{Duration: 0.5}).Then(func() *Tween { return nil })
	tl.Update(0.5)
	if !chain.Done() || chain.Canceled() {
		t.Error("Then returning nil should complete the chain")
	}
}

func TestTweenCancelChain(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	first := b.moveTo(tl, 10, 0, TweenOpts{Duration: 1})
	called := false
	chain := first.Then(func() *Tween {
		called = true
		return nil
	})
	first.Cancel()
	tl.Update(1)
	if called {
		t.Error("Then callback ran after cancellation")
	}
	if !chain.Canceled() {
		t.Error("cancelling the head should cancel the chain")
	}
}

func TestTweenProgress(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	tw := b.moveTo(tl, 10, 0, TweenOpts{Duration: 1})
	if tw.Progress() != 0 {
		t.Errorf("Progress before start = %f", tw.Progress())
	}
	tl.Update(0.25)
	if math.Abs(tw.Progress()-0.25) > 1e-6 {
		t.Errorf("Progress = %f, want 0.25", tw.Progress())
	}
	tl.Update(1)
	if tw.Progress() != 1 {
		t.Errorf("Progress after completion = %f, want 1", tw.Progress())
	}
}

func TestTimelineCall(t *testing.T) {
	tl := NewTimeline()
	calls := 0
	tl.Call(0.5, func() { calls++ })
	tl.Update(0.25)
	if calls != 0 {
		t.Fatal("Call ran before its delay")
	}
	tl.Update(0.25)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	tl.Update(1)
	if calls != 1 {
		t.Error("Call should run only once")
	}
}

func TestTimelineClear(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	tw := b.moveTo(tl, 10, 0, TweenOpts{Duration: 1})
	tl.Clear()
	if tl.Len() != 0 || !tw.Canceled() {
		t.Error("Clear should cancel and drop every tween")
	}
}

func TestTimelineScheduleFromCallback(t *testing.T) {
	tl := NewTimeline()
	b := &animBox{}
	var next *Tween
	b.moveTo(tl, 1, 0, TweenOpts{Duration: 0.5}).OnComplete(func() {
		next = tl.Call(0.5, func() {})
	})
	tl.Update(0.5)
	if next == nil || next.Done() {
		t.Fatal("tween scheduled from a callback should be pending")
	}
	if tl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tl.Len())
	}
	tl.Update(0.5)
	if !next.Done() {
		t.Error("callback-scheduled tween should run on later Updates")
	}
}

func BenchmarkTimelineUpdate(b *testing.B) {
	tl := NewTimeline()
	boxes := make([]animBox, 100)
	for i := range boxes {
		boxes[i].moveTo(tl, 1e9, 1e9, TweenOpts{Duration: 1e9, Ease: ease.Linear})
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tl.Update(1.0 / 60)
	}
}
