package exhibit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFileTGA(t *testing.T) {
	// 1×1 uncompressed true-colour image, top-left origin, one BGR pixel.
	data := []byte{
		0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 1, 0, 24, 0x20,
		0x00, 0x00, 0xff,
	}
	path := filepath.Join(t.TempDir(), "pixel.TGA")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	img, err := decodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestDecodeFilePNG(t *testing.T) {
	path := writeTestPNG(t, "plain.png", 4, 3)
	img, err := decodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestDecodeBytesRejectsGarbage(t *testing.T) {
	_, err := decodeBytes([]byte("definitely not an image"))
	assert.Error(t, err)
}
