package exhibit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tanema/gween/ease"
)

// ErrUnknownEase is returned for ease names EaseByName does not know.
var ErrUnknownEase = errors.New("exhibit: unknown ease")

// Config holds the package-wide defaults. The zero value of every field
// except Debug and WatchImages means "use the built-in default".
type Config struct {
	// Debug enables diagnostic logging and disposed-object checks.
	Debug bool `toml:"debug"`
	// MinZoomFraction is the zoom area size at zoom 1, as a fraction of the
	// full texture. Must be in (0, 1].
	MinZoomFraction float64 `toml:"min_zoom_fraction"`
	// DefaultEase names the easing used when TweenOpts.Ease is nil.
	DefaultEase string `toml:"default_ease"`
	// DefaultDuration and DefaultDelay seed DefaultTweenOpts.
	DefaultDuration float32 `toml:"default_duration"`
	DefaultDelay    float32 `toml:"default_delay"`
	// WebMaxFPS caps how often a WebProvider commits a new frame.
	WebMaxFPS float64 `toml:"web_max_fps"`
	// WatchImages makes file-backed ImageProviders reload on change.
	WatchImages bool `toml:"watch_images"`
}

const (
	defaultMinZoomFraction = 0.1
	defaultWebMaxFPS       = 30
	defaultEaseName        = "inOutQuad"
)

// Package-level settings applied by Configure. Like the rest of the package
// they are only touched from the render thread.
var (
	minZoomFraction                = defaultMinZoomFraction
	defaultEase     ease.TweenFunc = ease.InOutQuad
	defaultDuration float32
	defaultDelay    float32
	webMaxFPS       float64 = defaultWebMaxFPS
	watchImages     bool
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		MinZoomFraction: defaultMinZoomFraction,
		DefaultEase:     defaultEaseName,
		WebMaxFPS:       defaultWebMaxFPS,
	}
}

// LoadConfig parses TOML configuration on top of DefaultConfig and validates
// the result.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MinZoomFraction == 0 {
		c.MinZoomFraction = defaultMinZoomFraction
	}
	if c.MinZoomFraction < 0 || c.MinZoomFraction > 1 {
		return fmt.Errorf("config: min_zoom_fraction %v out of range (0, 1]", c.MinZoomFraction)
	}
	if c.DefaultEase == "" {
		c.DefaultEase = defaultEaseName
	}
	if _, err := EaseByName(c.DefaultEase); err != nil {
		return fmt.Errorf("config: default_ease: %w", err)
	}
	if c.WebMaxFPS == 0 {
		c.WebMaxFPS = defaultWebMaxFPS
	}
	if c.WebMaxFPS < 0 {
		return fmt.Errorf("config: web_max_fps %v must be positive", c.WebMaxFPS)
	}
	if c.DefaultDuration < 0 || c.DefaultDelay < 0 {
		return fmt.Errorf("config: default_duration and default_delay must not be negative")
	}
	return nil
}

// Configure validates cfg and applies it to the package defaults. Providers
// and tweens created afterwards use the new values.
func Configure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	fn, _ := EaseByName(cfg.DefaultEase)
	SetDebugMode(cfg.Debug)
	minZoomFraction = cfg.MinZoomFraction
	defaultEase = fn
	defaultDuration = cfg.DefaultDuration
	defaultDelay = cfg.DefaultDelay
	webMaxFPS = cfg.WebMaxFPS
	watchImages = cfg.WatchImages
	return nil
}

// DefaultTweenOpts returns TweenOpts seeded from the configured defaults.
func DefaultTweenOpts() TweenOpts {
	return TweenOpts{
		Duration: defaultDuration,
		Delay:    defaultDelay,
		Ease:     defaultEase,
	}
}

var easesByName = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inquad":       ease.InQuad,
	"outquad":      ease.OutQuad,
	"inoutquad":    ease.InOutQuad,
	"outinquad":    ease.OutInQuad,
	"incubic":      ease.InCubic,
	"outcubic":     ease.OutCubic,
	"inoutcubic":   ease.InOutCubic,
	"outincubic":   ease.OutInCubic,
	"inquart":      ease.InQuart,
	"outquart":     ease.OutQuart,
	"inoutquart":   ease.InOutQuart,
	"inquint":      ease.InQuint,
	"outquint":     ease.OutQuint,
	"inoutquint":   ease.InOutQuint,
	"insine":       ease.InSine,
	"outsine":      ease.OutSine,
	"inoutsine":    ease.InOutSine,
	"inexpo":       ease.InExpo,
	"outexpo":      ease.OutExpo,
	"inoutexpo":    ease.InOutExpo,
	"incirc":       ease.InCirc,
	"outcirc":      ease.OutCirc,
	"inoutcirc":    ease.InOutCirc,
	"inelastic":    ease.InElastic,
	"outelastic":   ease.OutElastic,
	"inoutelastic": ease.InOutElastic,
	"inback":       ease.InBack,
	"outback":      ease.OutBack,
	"inoutback":    ease.InOutBack,
	"inbounce":     ease.InBounce,
	"outbounce":    ease.OutBounce,
	"inoutbounce":  ease.InOutBounce,
}

// EaseByName looks up an easing function. Matching ignores case, '_', '-'
// and an "ease" prefix, so "inOutQuad", "in_out_quad" and "easeInOutQuad"
// are the same.
func EaseByName(name string) (ease.TweenFunc, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	key = strings.TrimPrefix(key, "ease")
	if fn, ok := easesByName[key]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownEase)
}
