// Package tileset compiles pixel images into the console's tile memory
// format: 8x8 tiles, two 4-bit palette indices packed per byte, grounded on
// original_source/aya-cli/src/rom/sprites.rs and the PALETTE table in
// original_source/aya-console/src/lib.rs.
package tileset

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"aya/internal/memory"
)

// Palette is the console's fixed 16-color palette, transcribed verbatim from
// aya-console/src/lib.rs's PALETTE. Index 0 is transparent/black and is also
// the packed nibble value for any pixel matching it.
var Palette = [16]color.NRGBA{
	{R: 0x00, G: 0x00, B: 0x00, A: 0x00},
	{R: 0x9d, G: 0xc1, B: 0xc0, A: 0xff},
	{R: 0x52, G: 0x5b, B: 0x80, A: 0xff},
	{R: 0x31, G: 0x21, B: 0x39, A: 0xff},
	{R: 0x12, G: 0x0e, B: 0x1f, A: 0xff},
	{R: 0x28, G: 0x46, B: 0x46, A: 0xff},
	{R: 0x62, G: 0xab, B: 0x46, A: 0xff},
	{R: 0x95, G: 0x53, B: 0x3d, A: 0xff},
	{R: 0x6a, G: 0x24, B: 0x35, A: 0xff},
	{R: 0x65, G: 0x41, B: 0x47, A: 0xff},
	{R: 0xff, G: 0xf1, B: 0x69, A: 0xff},
	{R: 0xd7, G: 0x79, B: 0x3f, A: 0xff},
	{R: 0xab, G: 0x32, B: 0x29, A: 0xff},
	{R: 0x9e, G: 0x8f, B: 0x84, A: 0xff},
	{R: 0xe0, G: 0xb5, B: 0x6d, A: 0xff},
	{R: 0xf6, G: 0x8b, B: 0x69, A: 0xff},
}

// ErrSpriteTooBig is returned by Compile when the combined output would not
// fit in tile memory.
var ErrSpriteTooBig = errors.New("tileset: compiled sprites exceed tile memory capacity")

// UnknownColorError reports a pixel whose color has no match in Palette,
// named by its source file and pixel coordinates so a user can find it.
type UnknownColorError struct {
	File string
	X, Y int
	C    color.Color
}

func (e *UnknownColorError) Error() string {
	r, g, b, a := e.C.RGBA()
	return fmt.Sprintf("tileset: color (%d,%d,%d,%d) at %s (%d,%d) is not in the palette",
		r>>8, g>>8, b>>8, a>>8, e.File, e.X, e.Y)
}

// TileSource pairs an image with the name used in UnknownColorError messages,
// since image.Image alone carries no notion of where it came from.
type TileSource struct {
	Image    image.Image
	FileName string
}

// Compile packs every source's 8x8 tiles into the console's nibble-packed
// tile format, in row-major tile order within each image, then images in the
// order given. Each source's width and height must be multiples of 8.
func Compile(sources []TileSource) ([]byte, error) {
	var out []byte

	for _, src := range sources {
		bounds := src.Image.Bounds()
		width, height := bounds.Dx(), bounds.Dy()
		if width%8 != 0 || height%8 != 0 {
			return nil, fmt.Errorf("tileset: %s is %dx%d, both dimensions must be multiples of 8", src.FileName, width, height)
		}

		tilesX, tilesY := width/8, height/8
		for ty := 0; ty < tilesY; ty++ {
			for tx := 0; tx < tilesX; tx++ {
				for row := 0; row < 8; row++ {
					for col := 0; col < 8; col += 2 {
						gx := bounds.Min.X + tx*8 + col
						gy := bounds.Min.Y + ty*8 + row

						left, err := paletteIndex(src, gx, gy)
						if err != nil {
							return nil, err
						}
						right, err := paletteIndex(src, gx+1, gy)
						if err != nil {
							return nil, err
						}
						out = append(out, left<<4|right)
					}
				}
			}
		}
	}

	if len(out) > memory.TileMemorySize {
		return nil, fmt.Errorf("%w: sprites take %d bytes, tile memory holds %d",
			ErrSpriteTooBig, len(out), memory.TileMemorySize)
	}
	return out, nil
}

func paletteIndex(src TileSource, x, y int) (byte, error) {
	c := src.Image.At(x, y)
	nr, ng, nb, na := color.NRGBAModel.Convert(c).RGBA()
	for i, p := range Palette {
		pr, pg, pb, pa := p.RGBA()
		if nr == pr && ng == pg && nb == pb && na == pa {
			return byte(i), nil
		}
	}
	return 0, &UnknownColorError{File: src.FileName, X: x, Y: y, C: c}
}
