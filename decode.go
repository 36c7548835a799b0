package exhibit

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/singleflight"
)

// decodeGroup collapses concurrent decodes of the same path into one, so a
// source shared by several providers is read from disk once.
var decodeGroup singleflight.Group

// decodeFile reads and decodes the image at path. TGA files are matched by
// extension because the format has no magic number.
func decodeFile(path string) (image.Image, error) {
	v, err, _ := decodeGroup.Do(path, func() (any, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		var img image.Image
		if strings.EqualFold(filepath.Ext(path), ".tga") {
			img, err = tga.Decode(bufio.NewReader(f))
		} else {
			img, _, err = image.Decode(bufio.NewReader(f))
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// forgetDecode drops any in-flight shared decode for path so the next
// decodeFile call reads the file again.
func forgetDecode(path string) {
	decodeGroup.Forget(path)
}

// decodeBytes decodes an encoded frame received over the wire.
func decodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// fitImage scales src to exactly w×h pixels. It returns src unchanged when the
// size already matches or the target size is not positive.
func fitImage(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() == w && b.Dy() == h) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
