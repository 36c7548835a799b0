package exhibit

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

var colorRed = color.RGBA{200, 40, 40, 255}

// solidImage returns a w×h image filled with c.
func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writeTestPNG writes a solid w×h PNG into the test's temp dir.
func writeTestPNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	writePNGFile(t, path, w, h)
	return path
}

func writePNGFile(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, solidImage(w, h, colorRed)); err != nil {
		t.Fatal(err)
	}
}

// writeTestGIF writes an animated GIF with the given number of w×h frames,
// each shown for delay centiseconds.
func writeTestGIF(t *testing.T, frames, w, h, delay int) string {
	t.Helper()
	palette := color.Palette{color.Transparent, color.White, color.Black}
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
		for x := 0; x < w; x++ {
			img.SetColorIndex(x, i%h, uint8(1+i%2))
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	path := filepath.Join(t.TempDir(), "clip.gif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatal(err)
	}
	return path
}

// testProvider is a minimal provider driven directly by tests.
type testProvider struct {
	ProviderBase
	freed   int
	updates int
}

func newTestProvider() *testProvider {
	p := &testProvider{}
	p.Init(ProviderImage, func() { p.freed++ })
	return p
}

func (p *testProvider) SetSource(source string) {
	p.invalidate()
	p.source = source
}

func (p *testProvider) Update() { p.updates++ }

// newReadyProvider returns a provider already holding a w×h texture.
func newReadyProvider(w, h int) (*testProvider, *ebiten.Image) {
	p := newTestProvider()
	img := ebiten.NewImage(w, h)
	p.SetTexture(img)
	return p, img
}
