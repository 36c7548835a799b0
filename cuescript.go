package exhibit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tanema/gween/ease"
)

// ErrBadCue is returned by LoadCueScript for malformed scripts.
var ErrBadCue = errors.New("exhibit: bad cue")

// cueStep is a single action in a cue script.
type cueStep struct {
	Action   string   `json:"action"`
	Sprite   string   `json:"sprite,omitempty"`
	Label    string   `json:"label,omitempty"`
	Mask     string   `json:"mask,omitempty"`
	Source   string   `json:"source,omitempty"`
	Value    float64  `json:"value,omitempty"`
	X        float64  `json:"x,omitempty"`
	Y        float64  `json:"y,omitempty"`
	Duration *float32 `json:"duration,omitempty"`
	Delay    *float32 `json:"delay,omitempty"`
	Ease     string   `json:"ease,omitempty"`
	Append   bool     `json:"append,omitempty"`
	Loop     bool     `json:"loop,omitempty"`
	Cue      bool     `json:"cue,omitempty"`
	Frames   int      `json:"frames,omitempty"`

	mask MaskType
	ease ease.TweenFunc
}

// cueScript is the top-level JSON structure for a cue script.
type cueScript struct {
	Steps []cueStep `json:"steps"`
}

// CueScript sequences sprite animations, media starts and snapshots across
// frames. Attach it to a Stage with RunScript. Consecutive cues run in the
// same frame; "wait" pauses for a number of frames and "idle" pauses until
// the stage timeline has no running tweens.
type CueScript struct {
	steps     []cueStep
	cursor    int
	waitCount int
	idle      bool
	done      bool
	exit      bool
}

var cueActions = map[string]bool{
	"reveal": true, "hide": true, "alpha": true, "move": true, "scale": true,
	"zoom": true, "focus": true, "start": true, "source": true,
	"snapshot": true, "wait": true, "idle": true, "exit": true,
}

// LoadCueScript parses a JSON cue script. Action, mask and ease names are
// checked up front so a typo fails at load time rather than mid-show.
func LoadCueScript(jsonData []byte) (*CueScript, error) {
	var script cueScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse cue script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse cue script: no steps: %w", ErrBadCue)
	}
	for i := range script.Steps {
		if err := script.Steps[i].prepare(); err != nil {
			return nil, fmt.Errorf("parse cue script: step %d: %w", i, err)
		}
	}
	return &CueScript{steps: script.Steps}, nil
}

func (c *cueStep) prepare() error {
	if !cueActions[c.Action] {
		return fmt.Errorf("action %q: %w", c.Action, ErrBadCue)
	}
	switch c.Action {
	case "reveal", "hide":
		m, err := ParseMaskType(c.Mask)
		if err != nil {
			return err
		}
		c.mask = m
	}
	switch c.Action {
	case "reveal", "hide", "alpha", "move", "scale", "zoom", "start", "source", "focus", "snapshot":
		if c.Sprite == "" {
			return fmt.Errorf("action %q needs a sprite: %w", c.Action, ErrBadCue)
		}
	}
	if c.Ease != "" {
		fn, err := EaseByName(c.Ease)
		if err != nil {
			return err
		}
		c.ease = fn
	}
	if (c.Duration != nil && *c.Duration < 0) || (c.Delay != nil && *c.Delay < 0) {
		return fmt.Errorf("action %q: negative duration or delay: %w", c.Action, ErrBadCue)
	}
	return nil
}

// tweenOpts starts from the configured defaults and overrides what the cue
// sets. It runs when the cue fires, so Configure calls made after loading
// still apply.
func (c *cueStep) tweenOpts() TweenOpts {
	opts := DefaultTweenOpts()
	if c.Duration != nil {
		opts.Duration = *c.Duration
	}
	if c.Delay != nil {
		opts.Delay = *c.Delay
	}
	if c.ease != nil {
		opts.Ease = c.ease
	}
	opts.Append = c.Append
	return opts
}

// Done reports whether every cue has been executed.
func (r *CueScript) Done() bool {
	return r.done
}

// step advances the script by one frame. Called from Stage.Update.
func (r *CueScript) step(st *Stage) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.idle {
		if st.timeline.Len() > 0 {
			return
		}
		r.idle = false
	}

	for r.cursor < len(r.steps) {
		c := &r.steps[r.cursor]
		r.cursor++
		if r.run(st, c) {
			return
		}
	}
	r.done = true
}

// run executes c and reports whether the script has to pause.
func (r *CueScript) run(st *Stage, c *cueStep) bool {
	switch c.Action {
	case "wait":
		if c.Frames > 0 {
			r.waitCount = c.Frames - 1 // this frame counts as one
			return true
		}
		return false
	case "idle":
		r.idle = true
		return true
	case "exit":
		r.exit = true
		r.cursor = len(r.steps)
		return false
	}

	s := st.Sprite(c.Sprite)
	if s == nil {
		debugf("cue %q: no sprite named %q", c.Action, c.Sprite)
		return false
	}
	tl := st.timeline
	opts := c.tweenOpts()
	switch c.Action {
	case "reveal":
		s.MaskReveal(tl, c.mask, opts)
	case "hide":
		s.MaskHide(tl, c.mask, opts)
	case "alpha":
		s.AlphaTo(tl, c.Value, opts)
	case "move":
		s.MoveTo(tl, Vec2{c.X, c.Y}, opts)
	case "scale":
		s.ScaleTo(tl, c.Value, opts)
	case "zoom":
		s.ZoomTo(tl, c.Value, opts)
	case "focus":
		s.SetZoomCenter(Vec2{c.X, c.Y})
	case "start":
		s.StartMedia(tl, c.Loop, c.Cue, opts.Delay)
	case "source":
		s.Provider().SetSource(c.Source)
	case "snapshot":
		st.Snapshot(s, c.Label)
	}
	return false
}
