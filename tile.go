package noise

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// PixelSize is the natural size of a decoded image in pixels.
type PixelSize struct {
	Width, Height int
}

// Valid reports whether both dimensions are positive.
func (p PixelSize) Valid() bool {
	return p.Width > 0 && p.Height > 0
}

// Tile is one positioned fragment of the repeated source image. Bounds is in
// canvas-local coordinates. Width and Height equal the image size except in
// the last column and row, which are clipped to the canvas.
type Tile struct {
	Row, Col int
	Bounds   Rect
	Image    *ebiten.Image
}

// SourceRect returns the part of the image the tile shows, anchored at the
// image's top-left corner. Fractional clip sizes round up to whole pixels;
// Scale shrinks the drawn rectangle back to Bounds.
func (t Tile) SourceRect() image.Rectangle {
	return image.Rect(0, 0, int(math.Ceil(t.Bounds.Width)), int(math.Ceil(t.Bounds.Height)))
}

// Scale returns the factors that map SourceRect onto Bounds. They are 1 unless
// the tile was clipped at a fractional canvas edge.
func (t Tile) Scale() (sx, sy float64) {
	r := t.SourceRect()
	sx, sy = 1, 1
	if r.Dx() > 0 {
		sx = t.Bounds.Width / float64(r.Dx())
	}
	if r.Dy() > 0 {
		sy = t.Bounds.Height / float64(r.Dy())
	}
	return sx, sy
}

// tileCount returns ceil(extent/step), or 0 for a non-positive or NaN extent.
func tileCount(extent float64, step int) int {
	if !(extent > 0) || step <= 0 {
		return 0
	}
	return int(math.Ceil(extent / float64(step)))
}

// TileCount returns the number of tiles LayoutTiles produces for a canvas of
// w x h filled with an image of size img.
func TileCount(w, h float64, img PixelSize) int {
	if !img.Valid() {
		return 0
	}
	return tileCount(w, img.Width) * tileCount(h, img.Height)
}

// LayoutTiles covers the rectangle (0, 0, w, h) with copies of an image of
// size img, in row-major order (top row first, left to right). Tiles never
// overlap and together cover the rectangle exactly. Returns nil when img is
// not valid or either extent is not positive.
//
// The returned slice is freshly allocated and the Image fields are nil.
func LayoutTiles(w, h float64, img PixelSize) []Tile {
	if !img.Valid() {
		return nil
	}
	countX := tileCount(w, img.Width)
	countY := tileCount(h, img.Height)
	if countX == 0 || countY == 0 {
		return nil
	}

	iw, ih := float64(img.Width), float64(img.Height)
	tiles := make([]Tile, 0, countX*countY)
	for i := 0; i < countY; i++ {
		y := float64(i) * ih
		th := math.Min(ih, h-y)
		for j := 0; j < countX; j++ {
			x := float64(j) * iw
			tiles = append(tiles, Tile{
				Row:    i,
				Col:    j,
				Bounds: Rect{X: x, Y: y, Width: math.Min(iw, w-x), Height: th},
			})
		}
	}
	return tiles
}
