package noise

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"
)

// fakeLoader records load requests so tests decide when and how each one
// completes.
type fakeLoader struct {
	requests []fakeRequest
}

type fakeRequest struct {
	src  Source
	done func(*ebiten.Image, error)
}

func (l *fakeLoader) Load(src Source, done func(*ebiten.Image, error)) {
	l.requests = append(l.requests, fakeRequest{src: src, done: done})
}

func (l *fakeLoader) finish(t *testing.T, i int, img *ebiten.Image, err error) {
	t.Helper()
	if i >= len(l.requests) {
		t.Fatalf("load request %d not issued (have %d)", i, len(l.requests))
	}
	l.requests[i].done(img, err)
}

// namedSource is a Source that is never decoded; fakeLoader supplies images.
type namedSource string

func (s namedSource) Key() string                  { return string(s) }
func (s namedSource) Decode() (image.Image, error) { return nil, errors.New("not decodable") }

type fixture struct {
	scene  *Scene
	canvas *Canvas
	loader *fakeLoader
	ctl    *TiledImage
}

func newFixture(w, h float64) *fixture {
	f := &fixture{
		scene:  NewScene(),
		canvas: NewCanvas("canvas", w, h),
		loader: &fakeLoader{},
	}
	f.scene.Root().AddChild(f.canvas.Node())
	f.ctl = NewTiledImage("bg", f.loader)
	return f
}

// measured attaches the control with src and completes its decode with an
// image of the given size.
func (f *fixture) measured(t *testing.T, src Source, iw, ih int) {
	t.Helper()
	f.ctl.SetSource(src)
	f.ctl.Attach(f.canvas)
	f.scene.Update()
	f.loader.finish(t, len(f.loader.requests)-1, ebiten.NewImage(iw, ih), nil)
}

var imageComparer = cmp.Comparer(func(a, b *ebiten.Image) bool { return a == b })

func TestTiledImageAttachInsertsProbe(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	if f.canvas.Node().NumChildren() != 0 {
		t.Fatal("unbound control should not touch the canvas")
	}

	f.ctl.Attach(f.canvas)
	if f.canvas.Node().NumChildren() != 1 {
		t.Fatalf("NumChildren = %d, want 1 (probe)", f.canvas.Node().NumChildren())
	}
	probe := f.canvas.Node().ChildAt(0)
	if probe.Renderable {
		t.Error("probe should not be renderable")
	}
	if !f.ctl.Measuring() {
		t.Error("Measuring should be true before decode")
	}
	if len(f.loader.requests) != 0 {
		t.Error("decode should not start before the probe is updated")
	}

	f.scene.Update()
	if len(f.loader.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(f.loader.requests))
	}
	if f.loader.requests[0].src != namedSource("a") {
		t.Errorf("requested source = %v, want a", f.loader.requests[0].src)
	}

	f.scene.Update()
	if len(f.loader.requests) != 1 {
		t.Errorf("probe should load once, got %d requests", len(f.loader.requests))
	}
}

func TestTiledImageProbeNeedsLiveTree(t *testing.T) {
	f := newFixture(100, 100)
	f.canvas.Node().RemoveFromParent()
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)

	f.scene.Update()
	if len(f.loader.requests) != 0 {
		t.Fatal("probe outside the scene tree should not start a decode")
	}

	f.scene.Root().AddChild(f.canvas.Node())
	f.scene.Update()
	if len(f.loader.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(f.loader.requests))
	}
}

func TestTiledImageFractionalEdgeStaysInBounds(t *testing.T) {
	f := newFixture(100.5, 40)
	f.measured(t, namedSource("a"), 30, 40)

	children := f.canvas.Node().Children()
	if len(children) != 4 {
		t.Fatalf("canvas children = %d, want 4", len(children))
	}
	last := children[3]
	right := last.X + last.ScaleX*float64(last.SourceRect.Dx())
	if !approxEqual(right, 100.5) {
		t.Errorf("last column ends at %v, want 100.5", right)
	}
	if last.ScaleY != 1 {
		t.Errorf("ScaleY = %v, want 1", last.ScaleY)
	}
}

func TestTiledImageBuildsGrid(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	if f.ctl.Measuring() {
		t.Error("Measuring should be false after decode")
	}
	size, ok := f.ctl.PixelSize()
	if !ok || size != (PixelSize{30, 40}) {
		t.Errorf("PixelSize = %v, %v; want {30 40}, true", size, ok)
	}

	tiles := f.ctl.Tiles()
	if len(tiles) != 12 {
		t.Fatalf("len(Tiles) = %d, want 12", len(tiles))
	}
	children := f.canvas.Node().Children()
	if len(children) != 12 {
		t.Fatalf("canvas children = %d, want 12", len(children))
	}
	for i, n := range children {
		b := tiles[i].Bounds
		if n.X != b.X || n.Y != b.Y {
			t.Errorf("child %d at (%v,%v), want (%v,%v)", i, n.X, n.Y, b.X, b.Y)
		}
		if n.SourceRect != tiles[i].SourceRect() {
			t.Errorf("child %d SourceRect = %v, want %v", i, n.SourceRect, tiles[i].SourceRect())
		}
		if n.CustomImage() == nil || n.CustomImage() != tiles[i].Image {
			t.Errorf("child %d image does not match tile image", i)
		}
	}

	last := tiles[3]
	if last.Bounds.Width != 10 || last.Bounds.Height != 40 {
		t.Errorf("tile (0,3) = %vx%v, want 10x40", last.Bounds.Width, last.Bounds.Height)
	}
	checkCover(t, tiles, 100, 100, PixelSize{30, 40})
}

func TestTiledImageResizeRebuilds(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)
	before := f.canvas.Node().Children()[0]

	f.canvas.SetSize(200, 100)
	if n := len(f.ctl.Tiles()); n != 21 {
		t.Fatalf("len(Tiles) = %d, want 21", n)
	}
	if f.canvas.Node().NumChildren() != 21 {
		t.Errorf("canvas children = %d, want 21", f.canvas.Node().NumChildren())
	}
	if !before.IsDisposed() {
		t.Error("tiles from the previous grid should be disposed")
	}
	checkCover(t, f.ctl.Tiles(), 200, 100, PixelSize{30, 40})

	f.canvas.SetSize(0, 100)
	if f.canvas.Node().NumChildren() != 0 || f.ctl.Tiles() != nil {
		t.Error("zero-width canvas should have no tiles")
	}
}

func TestTiledImageResizeBeforeDecodeIsNoop(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)
	f.scene.Update()

	f.canvas.SetSize(300, 300)
	if f.canvas.Node().NumChildren() != 1 || !f.ctl.Measuring() {
		t.Fatal("resize before decode should leave the probe alone")
	}

	f.loader.finish(t, 0, ebiten.NewImage(100, 100), nil)
	if n := len(f.ctl.Tiles()); n != 9 {
		t.Errorf("len(Tiles) = %d, want 9 (uses size at decode time)", n)
	}
}

func TestTiledImageRebuildIdempotent(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	first := f.ctl.Tiles()
	f.ctl.Rebuild()
	second := f.ctl.Tiles()
	if diff := cmp.Diff(first, second, imageComparer); diff != "" {
		t.Errorf("rebuild changed the grid (-first +second):\n%s", diff)
	}
	if f.canvas.Node().NumChildren() != len(second) {
		t.Errorf("canvas children = %d, want %d", f.canvas.Node().NumChildren(), len(second))
	}
}

func TestTiledImageNilSourceClears(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	f.ctl.SetSource(nil)
	if f.canvas.Node().NumChildren() != 0 {
		t.Errorf("canvas children = %d, want 0", f.canvas.Node().NumChildren())
	}
	if f.ctl.Tiles() != nil {
		t.Error("Tiles should be nil")
	}
	if f.ctl.Measuring() {
		t.Error("nil source should not measure")
	}

	f.canvas.SetSize(300, 300)
	f.ctl.Rebuild()
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("rebuild without a source should be a no-op")
	}
}

func TestTiledImageSupersededDecodeIgnored(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)
	f.scene.Update()

	f.ctl.SetSource(namedSource("b"))
	f.scene.Update()
	if len(f.loader.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(f.loader.requests))
	}

	f.loader.finish(t, 0, ebiten.NewImage(30, 40), nil)
	if _, ok := f.ctl.PixelSize(); ok {
		t.Error("stale decode should not set the pixel size")
	}
	if !f.ctl.Measuring() || f.canvas.Node().NumChildren() != 1 {
		t.Error("stale decode should leave the current probe in place")
	}

	f.loader.finish(t, 1, ebiten.NewImage(60, 60), nil)
	if size, _ := f.ctl.PixelSize(); size != (PixelSize{60, 60}) {
		t.Errorf("PixelSize = %v, want {60 60}", size)
	}
	if n := len(f.ctl.Tiles()); n != 4 {
		t.Errorf("len(Tiles) = %d, want 4", n)
	}
}

func TestTiledImageSameSourceRemeasures(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	f.ctl.SetSource(namedSource("a"))
	if !f.ctl.Measuring() {
		t.Fatal("re-assigning the source should measure again")
	}
	f.scene.Update()
	if len(f.loader.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(f.loader.requests))
	}
}

func TestTiledImageDecodeError(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)
	f.scene.Update()

	errBroken := errors.New("broken")
	f.loader.finish(t, 0, nil, errBroken)
	if !errors.Is(f.ctl.Err(), errBroken) {
		t.Errorf("Err = %v, want %v", f.ctl.Err(), errBroken)
	}
	if f.ctl.Measuring() || f.canvas.Node().NumChildren() != 0 {
		t.Error("failed decode should remove the probe")
	}
	if _, ok := f.ctl.PixelSize(); ok {
		t.Error("failed decode should leave the size unknown")
	}

	f.canvas.SetSize(200, 200)
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("resize after a failed decode should be a no-op")
	}

	f.ctl.SetSource(namedSource("b"))
	if f.ctl.Err() != nil {
		t.Error("a new source should clear the previous error")
	}
}

func TestTiledImageNilImageIsError(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)
	f.scene.Update()
	f.loader.finish(t, 0, nil, nil)
	if !errors.Is(f.ctl.Err(), errNoImage) {
		t.Errorf("Err = %v, want errNoImage", f.ctl.Err())
	}
}

func TestTiledImageDetach(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	f.ctl.Detach()
	if f.ctl.Canvas() != nil {
		t.Error("Canvas should be nil after Detach")
	}
	if f.canvas.Node().NumChildren() != 0 {
		t.Errorf("canvas children = %d, want 0", f.canvas.Node().NumChildren())
	}
	f.canvas.SetSize(300, 300)
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("detached control should ignore resizes")
	}

	f.ctl.Attach(f.canvas)
	if !f.ctl.Measuring() {
		t.Error("re-attaching should measure the kept source")
	}
}

func TestTiledImageDetachDropsPendingDecode(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)
	f.scene.Update()

	f.ctl.Detach()
	f.loader.finish(t, 0, ebiten.NewImage(30, 40), nil)
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("decode finishing after Detach should not add tiles")
	}
}

func TestTiledImageAttachSameCanvasIsNoop(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	f.ctl.Attach(f.canvas)
	if f.ctl.Measuring() || f.canvas.Node().NumChildren() != 12 {
		t.Error("attaching the bound canvas again should change nothing")
	}

	// One subscription only: a resize rebuilds once and ends with 21 tiles.
	f.canvas.SetSize(200, 100)
	if f.canvas.Node().NumChildren() != 21 {
		t.Errorf("canvas children = %d, want 21", f.canvas.Node().NumChildren())
	}
}

func TestTiledImageAttachOtherCanvas(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)

	other := NewCanvas("other", 60, 80)
	f.scene.Root().AddChild(other.Node())
	f.ctl.Attach(other)
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("previous canvas should be emptied")
	}
	f.scene.Update()
	f.loader.finish(t, 1, ebiten.NewImage(30, 40), nil)
	if n := other.Node().NumChildren(); n != 4 {
		t.Errorf("other canvas children = %d, want 4", n)
	}

	f.canvas.SetSize(300, 300)
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("old canvas resize should not reach the control")
	}
}

func TestTiledImageDispose(t *testing.T) {
	f := newFixture(100, 100)
	f.measured(t, namedSource("a"), 30, 40)
	tileNode := f.canvas.Node().ChildAt(0)

	f.ctl.Dispose()
	if f.canvas.Node().NumChildren() != 0 {
		t.Error("Dispose should remove all tiles")
	}
	if !tileNode.IsDisposed() {
		t.Error("tile nodes should be disposed")
	}

	f.ctl.SetSource(namedSource("b"))
	f.ctl.Attach(f.canvas)
	if f.canvas.Node().NumChildren() != 0 || f.ctl.Source() != nil {
		t.Error("disposed control should ignore further calls")
	}
	f.ctl.Dispose()
}

func TestTiledImageRebuildUnbound(t *testing.T) {
	ctl := NewTiledImage("bg", &fakeLoader{})
	ctl.SetSource(namedSource("a"))
	ctl.Rebuild()
	if ctl.Tiles() != nil {
		t.Error("unbound rebuild should be a no-op")
	}
}

func TestTiledImageDrawsOnlyTiles(t *testing.T) {
	f := newFixture(100, 100)
	f.ctl.SetSource(namedSource("a"))
	f.ctl.Attach(f.canvas)
	f.scene.Update()

	f.scene.commands = f.scene.commands[:0]
	f.scene.traverse(f.scene.root, identityTransform, 1, false)
	if len(f.scene.commands) != 0 {
		t.Errorf("probe emitted %d commands, want 0", len(f.scene.commands))
	}

	f.loader.finish(t, 0, ebiten.NewImage(30, 40), nil)
	f.scene.Draw(ebiten.NewImage(100, 100))
	if len(f.scene.commands) != 12 {
		t.Errorf("commands = %d, want 12", len(f.scene.commands))
	}
}
