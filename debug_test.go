package exhibit

import "testing"

func TestDebugModeToggle(t *testing.T) {
	defer SetDebugMode(false)
	SetDebugMode(true)
	if !DebugMode() {
		t.Error("DebugMode should be true")
	}
	SetDebugMode(false)
	if DebugMode() {
		t.Error("DebugMode should be false")
	}
}

func TestStatsReset(t *testing.T) {
	ResetStats()
	statZoomPasses = 3
	statDecodeFailures = 1
	s := ReadStats()
	if s.ZoomPasses != 3 || s.DecodeFailures != 1 {
		t.Errorf("ReadStats = %+v", s)
	}
	ResetStats()
	if ReadStats() != (Stats{}) {
		t.Error("ResetStats should zero every counter")
	}
}

func TestDebugDisposedSpritePanics(t *testing.T) {
	defer SetDebugMode(false)
	SetDebugMode(true)
	s := NewSprite()
	s.Name = "gone"
	s.Dispose()

	defer func() {
		if recover() == nil {
			t.Error("expected panic animating a disposed sprite in debug mode")
		}
	}()
	s.AlphaTo(NewTimeline(), 0, TweenOpts{Duration: 1})
}
