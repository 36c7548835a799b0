package exhibit

import (
	"errors"
	"testing"
)

func TestLoadCueScript(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"action": "reveal", "sprite": "intro", "mask": "from_center", "duration": 1.5, "ease": "outCubic"},
			{"action": "idle"},
			{"action": "zoom", "sprite": "intro", "value": 0.4, "duration": 3},
			{"action": "wait", "frames": 3},
			{"action": "hide", "sprite": "intro", "mask": "left_to_right", "append": true}
		]
	}`)

	script, err := LoadCueScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(script.steps))
	}
	s0 := script.steps[0]
	if s0.mask != MaskFromCenter || s0.tweenOpts().Duration != 1.5 || s0.ease == nil {
		t.Errorf("step 0 mismatch: %+v", s0)
	}
	if !script.steps[4].tweenOpts().Append || script.steps[4].mask != MaskLeftToRight {
		t.Error("step 4 mismatch")
	}
}

func TestLoadCueScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"json", `not json`},
		{"empty", `{"steps": []}`},
		{"action", `{"steps": [{"action": "dance", "sprite": "a"}]}`},
		{"mask", `{"steps": [{"action": "reveal", "sprite": "a", "mask": "spiral"}]}`},
		{"ease", `{"steps": [{"action": "alpha", "sprite": "a", "ease": "wobble"}]}`},
		{"sprite", `{"steps": [{"action": "zoom", "value": 1}]}`},
		{"negative", `{"steps": [{"action": "alpha", "sprite": "a", "duration": -1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCueScript([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
	_, err := LoadCueScript([]byte(`{"steps": [{"action": "dance"}]}`))
	if !errors.Is(err, ErrBadCue) {
		t.Errorf("err = %v, want ErrBadCue", err)
	}
}

func TestCueScriptRunsUntilWait(t *testing.T) {
	st := NewStage()
	defer st.Dispose()
	s := NewSprite()
	s.Name = "a"
	st.Add(s)

	script, err := LoadCueScript([]byte(`{"steps": [
		{"action": "alpha", "sprite": "a", "value": 0.5},
		{"action": "scale", "sprite": "a", "value": 2},
		{"action": "wait", "frames": 2},
		{"action": "move", "sprite": "a", "x": 10, "y": 20}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	// Frame 1: both immediate cues run, then the wait starts.
	script.step(st)
	if s.Alpha() != 0.5 || s.Scale() != (Vec2{2, 2}) {
		t.Errorf("alpha = %f scale = %v after first frame", s.Alpha(), s.Scale())
	}
	if script.Done() {
		t.Fatal("script should be waiting")
	}
	// Frame 2: wait countdown.
	script.step(st)
	if s.Position() != (Vec2{}) {
		t.Fatal("move ran during the wait")
	}
	// Frame 3: move runs, script finishes.
	script.step(st)
	if s.Position() != (Vec2{10, 20}) {
		t.Errorf("Position = %v, want (10, 20)", s.Position())
	}
	if !script.Done() {
		t.Error("script should be done")
	}
}

func TestCueScriptIdleWaitsForTimeline(t *testing.T) {
	st := NewStage()
	defer st.Dispose()
	s := NewSprite()
	s.Name = "a"
	st.Add(s)

	script, err := LoadCueScript([]byte(`{"steps": [
		{"action": "alpha", "sprite": "a", "value": 0, "duration": 0.5},
		{"action": "idle"},
		{"action": "snapshot", "sprite": "a", "label": "faded"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	script.step(st)
	if len(st.snapshotQueue) != 0 {
		t.Fatal("snapshot should wait for the fade")
	}
	st.timeline.Update(0.5)
	script.step(st)
	if len(st.snapshotQueue) != 1 || st.snapshotQueue[0].label != "faded" {
		t.Errorf("snapshot queue = %v", st.snapshotQueue)
	}
	st.snapshotQueue = nil
	if !script.Done() {
		t.Error("script should be done")
	}
}

func TestCueScriptUnknownSpriteSkipped(t *testing.T) {
	st := NewStage()
	defer st.Dispose()
	script, err := LoadCueScript([]byte(`{"steps": [{"action": "zoom", "sprite": "ghost", "value": 1}]}`))
	if err != nil {
		t.Fatal(err)
	}
	script.step(st)
	if !script.Done() {
		t.Error("missing sprite should be skipped, not block the script")
	}
}

func TestCueScriptExit(t *testing.T) {
	st := NewStage()
	defer st.Dispose()
	script, err := LoadCueScript([]byte(`{"steps": [{"action": "exit"}, {"action": "wait", "frames": 10}]}`))
	if err != nil {
		t.Fatal(err)
	}
	st.RunScript(script)
	g := &stageGame{stage: st}
	if err := g.Update(); !errors.Is(err, ErrQuit) {
		t.Errorf("Update err = %v, want ErrQuit", err)
	}
}

func TestCueScriptUsesConfiguredDefaults(t *testing.T) {
	restoreConfig(t)
	cfg := DefaultConfig()
	cfg.DefaultDuration = 2
	cfg.DefaultDelay = 0.25
	if err := Configure(cfg); err != nil {
		t.Fatal(err)
	}

	script, err := LoadCueScript([]byte(`{"steps": [
		{"action": "alpha", "sprite": "a", "value": 0},
		{"action": "zoom", "sprite": "a", "value": 1, "duration": 0, "delay": 0}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	opts := script.steps[0].tweenOpts()
	if opts.Duration != 2 || opts.Delay != 0.25 {
		t.Errorf("unset fields: Duration = %v Delay = %v, want 2 and 0.25", opts.Duration, opts.Delay)
	}
	opts = script.steps[1].tweenOpts()
	if opts.Duration != 0 || opts.Delay != 0 {
		t.Errorf("explicit zeros: Duration = %v Delay = %v, want 0 and 0", opts.Duration, opts.Delay)
	}

	st := NewStage()
	defer st.Dispose()
	s := NewSprite()
	s.Name = "a"
	st.Add(s)
	script.step(st)
	if s.Alpha() != 1 {
		t.Errorf("Alpha = %v, want 1 while the default delay runs", s.Alpha())
	}
	if s.Zoom() != 1 {
		t.Errorf("Zoom = %v, want 1 applied immediately", s.Zoom())
	}
}
