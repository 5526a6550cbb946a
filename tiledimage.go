package noise

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// errNoImage is recorded when a loader reports success without an image.
var errNoImage = errors.New("noise: loader returned no image")

// TiledImage fills a Canvas with copies of a source image laid edge to edge,
// left to right and top to bottom. The last column and row are clipped to
// the canvas. The tile size is the image's natural pixel size, which is only
// known once the image has been decoded.
//
// A TiledImage starts unbound. Attach binds it to a canvas; from then on it
// rebuilds its tiles whenever the source is decoded or the canvas is resized.
// The canvas's children are owned by the control while it is attached.
//
// All methods must be called on the goroutine that drives Scene.Update.
type TiledImage struct {
	name   string
	loader Loader

	canvas       *Canvas
	cancelResize func()

	source Source
	image  *ebiten.Image
	size   PixelSize
	err    error

	// generation is bumped whenever a pending probe is superseded. A decode
	// completion carrying an older generation is ignored.
	generation uint64
	probe      *Node

	tiles     []Tile
	tileNodes []*Node

	disposed bool
}

// NewTiledImage creates an unbound control. loader decodes sources once their
// probe is part of a live scene tree; NewLoader(scene) is the usual choice.
func NewTiledImage(name string, loader Loader) *TiledImage {
	return &TiledImage{name: name, loader: loader}
}

// Name returns the name given to NewTiledImage.
func (t *TiledImage) Name() string {
	return t.name
}

// Canvas returns the bound canvas, or nil while unbound.
func (t *TiledImage) Canvas() *Canvas {
	return t.canvas
}

// Source returns the current source, or nil.
func (t *TiledImage) Source() Source {
	return t.source
}

// PixelSize returns the natural size of the current source and whether it is
// known yet.
func (t *TiledImage) PixelSize() (PixelSize, bool) {
	return t.size, t.size.Valid()
}

// Measuring reports whether a probe is waiting for the source to decode.
func (t *TiledImage) Measuring() bool {
	return t.probe != nil
}

// Err returns the error from the most recent failed decode of the current
// source, or nil.
func (t *TiledImage) Err() error {
	return t.err
}

// Tiles returns a copy of the current tile grid in row-major order.
func (t *TiledImage) Tiles() []Tile {
	if len(t.tiles) == 0 {
		return nil
	}
	return append([]Tile(nil), t.tiles...)
}

// Attach binds the control to c, measures the current source and subscribes
// to c's size changes. Attaching the canvas that is already bound is a no-op.
// Attaching a different canvas detaches from the previous one first, and
// Attach(nil) only detaches.
func (t *TiledImage) Attach(c *Canvas) {
	if t.disposed || c == t.canvas {
		return
	}
	t.Detach()
	if c == nil {
		return
	}
	t.canvas = c
	if !c.Node().InTree() {
		debugf("%s: canvas %q is not in a scene; decoding waits until it is added", t.name, c.Node().Name)
	}
	t.measure(t.source)
	t.cancelResize = c.OnSizeChanged(t.onSizeChanged)
}

// Detach unsubscribes from the bound canvas, removes every tile and any
// pending probe from it and returns the control to the unbound state. The
// source is kept and is measured again on the next Attach.
func (t *TiledImage) Detach() {
	if t.canvas == nil {
		return
	}
	if t.cancelResize != nil {
		t.cancelResize()
		t.cancelResize = nil
	}
	t.generation++
	t.clear()
	t.canvas = nil
}

// SetSource assigns the image to tile. While bound, the previous tiles are
// removed and the new source is measured; a nil source leaves the canvas
// empty. Assigning a source always measures again, even if it has the same
// key as the current one.
func (t *TiledImage) SetSource(src Source) {
	if t.disposed {
		return
	}
	t.source = src
	if t.canvas != nil {
		t.measure(src)
	}
}

// Rebuild discards the tile grid and lays it out again from the canvas size
// and the measured image size. It does nothing while unbound, without a
// source, or before the source has been measured.
func (t *TiledImage) Rebuild() {
	if t.canvas == nil || t.source == nil || !t.size.Valid() {
		return
	}
	w, h := t.canvas.Size()
	tiles := LayoutTiles(w, h, t.size)

	t.clear()

	nodes := make([]*Node, len(tiles))
	parent := t.canvas.Node()
	for i := range tiles {
		tiles[i].Image = t.image
		n := NewSprite("tile", t.image)
		n.X, n.Y = tiles[i].Bounds.X, tiles[i].Bounds.Y
		n.SourceRect = tiles[i].SourceRect()
		n.ScaleX, n.ScaleY = tiles[i].Scale()
		parent.AddChild(n)
		nodes[i] = n
	}
	t.tiles = tiles
	t.tileNodes = nodes
}

// Dispose detaches the control and releases its tiles. A disposed control
// ignores further calls.
func (t *TiledImage) Dispose() {
	if t.disposed {
		return
	}
	t.Detach()
	t.disposed = true
	t.source = nil
	t.image = nil
	t.loader = nil
}

// measure starts discovering the natural size of src. The previous grid is
// cleared immediately. Decoding begins once the probe node is updated as
// part of a scene tree.
func (t *TiledImage) measure(src Source) {
	t.generation++
	t.clear()
	t.size = PixelSize{}
	t.image = nil
	t.err = nil
	if src == nil {
		return
	}

	gen := t.generation
	probe := NewSprite("probe", nil)
	probe.Renderable = false
	probe.OnUpdate = func(float64) {
		probe.OnUpdate = nil
		t.loader.Load(src, func(img *ebiten.Image, err error) {
			t.onDecoded(gen, probe, img, err)
		})
	}
	t.probe = probe
	t.canvas.Node().AddChild(probe)
}

// onDecoded receives the result of a probe's load.
func (t *TiledImage) onDecoded(gen uint64, probe *Node, img *ebiten.Image, err error) {
	if gen != t.generation || t.canvas == nil {
		debugf("%s: ignoring superseded decode (generation %d, current %d)", t.name, gen, t.generation)
		return
	}
	probe.Dispose()
	t.probe = nil

	if err == nil && img == nil {
		err = errNoImage
	}
	if err != nil {
		t.err = err
		debugf("%s: %v", t.name, err)
		return
	}

	b := img.Bounds()
	t.image = img
	t.size = PixelSize{Width: b.Dx(), Height: b.Dy()}
	t.Rebuild()
}

func (t *TiledImage) onSizeChanged(_, _ float64) {
	if t.size.Valid() {
		t.Rebuild()
	}
}

// clear empties the canvas and releases the tile and probe nodes.
func (t *TiledImage) clear() {
	if t.canvas != nil {
		t.canvas.Node().RemoveChildren()
	}
	for _, n := range t.tileNodes {
		n.Dispose()
	}
	if t.probe != nil {
		t.probe.Dispose()
		t.probe = nil
	}
	t.tiles = nil
	t.tileNodes = nil
}
