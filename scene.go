package noise

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const defaultCommandCap = 256

// Scene is the top-level object that owns the node tree, the update-loop
// dispatch queue and render buffers.
//
// A Scene and every node in it belong to the goroutine that calls Update and
// Draw. Post is the only method that may be called from other goroutines.
type Scene struct {
	root  *Node
	debug bool

	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir   string
	screenshotQueue []string
	screenshotSeq   int

	testRunner *TestRunner

	commands []RenderCommand

	updateFunc func() error
	resizeFunc func(w, h int)
	width      int
	height     int

	postMu sync.Mutex
	posted []func()
	// running is swapped with posted on each drain so neither slice is
	// reallocated in steady state.
	running []func()
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	root := NewContainer("root")
	root.sceneRoot = true
	return &Scene{
		root:          root,
		ScreenshotDir: "screenshots",
		commands:      make([]RenderCommand, 0, defaultCommandCap),
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// Post schedules fn to run at the start of the next Update, on the update
// goroutine. Safe to call from any goroutine.
func (s *Scene) Post(fn func()) {
	if fn == nil {
		return
	}
	s.postMu.Lock()
	s.posted = append(s.posted, fn)
	s.postMu.Unlock()
}

// drainPosted runs every callback posted before the call, in post order.
// Callbacks posted while draining run on the next Update.
func (s *Scene) drainPosted() {
	s.postMu.Lock()
	s.running, s.posted = s.posted, s.running[:0]
	s.postMu.Unlock()

	for i, fn := range s.running {
		fn()
		s.running[i] = nil
	}
	s.running = s.running[:0]
}

// Update runs posted callbacks, steps the test runner, calls OnUpdate on every
// node in the tree and refreshes world transforms.
func (s *Scene) Update() {
	dt := 1.0 / float64(ebiten.TPS())

	s.drainPosted()
	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	updateNodes(s.root, dt)
	updateWorldTransform(s.root, identityTransform, 1.0, false)
}

// updateNodes calls OnUpdate depth-first, parents before children. Hidden
// subtrees are still updated.
func updateNodes(n *Node, dt float64) {
	if n.OnUpdate != nil {
		n.OnUpdate(dt)
	}
	for _, child := range n.children {
		updateNodes(child, dt)
	}
}

// Draw traverses the scene tree, emits render commands and submits them to
// the given screen image in tree order.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}

	s.commands = s.commands[:0]

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.traverse(s.root, identityTransform, 1.0, false)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		t0 = time.Now()
	}

	s.submit(screen)

	if s.debug {
		stats.submitTime = time.Since(t0)
		s.debugLog(stats)
	}

	s.flushScreenshots(screen)
}

// SetUpdateFunc sets a callback run by Run once per tick, before Scene.Update.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// SetResizeFunc sets a callback run whenever the outside size reported by
// the game loop changes, and once on the first layout.
func (s *Scene) SetResizeFunc(fn func(w, h int)) {
	s.resizeFunc = fn
}

// Size returns the most recent outside size reported by the game loop.
func (s *Scene) Size() (w, h int) {
	return s.width, s.height
}

// layout records the outside size and fires the resize callback on change.
func (s *Scene) layout(w, h int) {
	if w == s.width && h == s.height {
		return
	}
	s.width, s.height = w, h
	if s.resizeFunc != nil {
		s.resizeFunc(w, h)
	}
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, child count warnings are printed, decode failures and stale
// completions are reported, and per-frame timing stats are logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug.Store(enabled)
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// and control operations (which lack a Scene pointer) can check it cheaply.
// Loader and watcher goroutines read it too, hence the atomic.
var globalDebug atomic.Bool
