package exhibit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

// restoreConfig puts the package defaults back after a test.
func restoreConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		require.NoError(t, Configure(DefaultConfig()))
	})
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
debug = true
min_zoom_fraction = 0.25
default_ease = "out_cubic"
default_duration = 0.75
web_max_fps = 12
watch_images = true
`))
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 0.25, cfg.MinZoomFraction)
	assert.Equal(t, "out_cubic", cfg.DefaultEase)
	assert.Equal(t, float32(0.75), cfg.DefaultDuration)
	assert.Equal(t, 12.0, cfg.WebMaxFPS)
	assert.True(t, cfg.WatchImages)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `debug = `},
		{"zoom range", `min_zoom_fraction = 1.5`},
		{"negative zoom", `min_zoom_fraction = -0.1`},
		{"ease", `default_ease = "wobbly"`},
		{"fps", `web_max_fps = -1`},
		{"duration", `default_duration = -2.0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestConfigureApplies(t *testing.T) {
	restoreConfig(t)
	cfg := DefaultConfig()
	cfg.MinZoomFraction = 0.5
	cfg.DefaultDuration = 2
	cfg.DefaultEase = "linear"
	require.NoError(t, Configure(cfg))

	opts := DefaultTweenOpts()
	assert.Equal(t, float32(2), opts.Duration)
	assert.NotNil(t, opts.Ease)

	p, _ := newReadyProvider(100, 100)
	s := NewSpriteWithProvider(p)
	defer s.Dispose()
	p.Release()
	s.SetZoom(1)
	area := s.ZoomArea()
	assert.Equal(t, 50, area.Dx(), "min_zoom_fraction drives the zoom area")
}

func TestConfigureRejectsInvalid(t *testing.T) {
	restoreConfig(t)
	cfg := DefaultConfig()
	cfg.DefaultEase = "nope"
	err := Configure(cfg)
	assert.True(t, errors.Is(err, ErrUnknownEase))
}

func TestEaseByName(t *testing.T) {
	for _, name := range []string{"inOutQuad", "in_out_quad", "easeInOutQuad", "IN-OUT-QUAD"} {
		fn, err := EaseByName(name)
		require.NoError(t, err, name)
		assert.InDelta(t, ease.InOutQuad(0.3, 0, 1, 1), fn(0.3, 0, 1, 1), 1e-6, name)
	}
	_, err := EaseByName("sideways")
	assert.ErrorIs(t, err, ErrUnknownEase)
}
