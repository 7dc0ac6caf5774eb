package escpos

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
)

// Defaults applied to unset graphic fields.
const (
	DefaultGraphicSize = GraphicNormal
	// DefaultMaxWidth is the printable width of an 80mm head at 203 dpi.
	DefaultMaxWidth = 576
)

// maxRasterDim is the largest width or height GS v 0 can describe.
const maxRasterDim = 0xFFFF

// Graphic is a raster image loaded from Path.
type Graphic struct {
	Path     string
	Size     opt.Option[GraphicSize]
	MaxWidth opt.Option[uint32]
}

// Encode decodes the image at Path (PNG, JPEG, GIF or BMP) and renders it
// with GS v 0.
func (g Graphic) Encode() ([]byte, error) {
	if g.Path == "" {
		return nil, fault.Contentf("graphic", errors.New("path is required"))
	}
	size := g.Size.Or(DefaultGraphicSize)
	if !size.Valid() {
		return nil, fault.Invalid("graphic", size, "unknown size")
	}
	maxWidth := g.MaxWidth.Or(DefaultMaxWidth)
	if maxWidth == 0 || maxWidth > maxRasterDim {
		return nil, fault.Invalid("graphic", maxWidth, "max width must be 1..%d", maxRasterDim)
	}

	f, err := os.Open(g.Path)
	if err != nil {
		return nil, fault.Contentf("graphic", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fault.Contentf("graphic", fmt.Errorf("decode %s: %w", g.Path, err))
	}
	return Raster(img, size, int(maxWidth))
}

// Raster renders img as a GS v 0 bit image, scaling it down to maxWidth dots
// when wider and thresholding to black and white.
func Raster(img image.Image, size GraphicSize, maxWidth int) ([]byte, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fault.Contentf("graphic", errors.New("empty image"))
	}

	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		h = h * maxWidth / w
		if h == 0 {
			h = 1
		}
		w = maxWidth
	}
	if h > maxRasterDim {
		return nil, fault.Contentf("graphic", fmt.Errorf("image height %d exceeds %d dots", h, maxRasterDim))
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	// Transparent pixels print as paper.
	draw.Draw(gray, gray.Bounds(), image.White, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, bounds, draw.Over, nil)

	rowBytes := (w + 7) / 8
	b := make([]byte, 0, 8+rowBytes*h)
	b = append(b, GS, 'v', '0', byte(size),
		byte(rowBytes), byte(rowBytes>>8), byte(h), byte(h>>8))

	for y := 0; y < h; y++ {
		row := make([]byte, rowBytes)
		for x := 0; x < w; x++ {
			if isDark(gray.GrayAt(x, y)) {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
		b = append(b, row...)
	}
	return b, nil
}

func isDark(c color.Gray) bool {
	return c.Y < 128
}
