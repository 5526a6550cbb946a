package noise

// Canvas is a sized drawing surface in the scene graph. It wraps a container
// node whose children are positioned in canvas-local coordinates, and notifies
// subscribers when its layout size changes.
type Canvas struct {
	node          *Node
	width, height float64

	handlers []*sizeHandler
}

type sizeHandler struct {
	fn func(w, h float64)
}

// NewCanvas creates a canvas of the given size backed by a new container node.
// Negative sizes are treated as zero.
func NewCanvas(name string, w, h float64) *Canvas {
	return &Canvas{
		node:   NewContainer(name),
		width:  max(w, 0),
		height: max(h, 0),
	}
}

// Node returns the underlying scene graph node for this canvas.
func (c *Canvas) Node() *Node {
	return c.node
}

// Size returns the current layout size.
func (c *Canvas) Size() (w, h float64) {
	return c.width, c.height
}

// Bounds returns the canvas rectangle in canvas-local coordinates.
func (c *Canvas) Bounds() Rect {
	return Rect{Width: c.width, Height: c.height}
}

// SetSize updates the layout size. Size-changed handlers run synchronously,
// in subscription order, only when the size actually changes.
func (c *Canvas) SetSize(w, h float64) {
	w, h = max(w, 0), max(h, 0)
	if w == c.width && h == c.height {
		return
	}
	c.width, c.height = w, h

	// A handler may cancel itself or others; iterate over a snapshot.
	handlers := append([]*sizeHandler(nil), c.handlers...)
	for _, sh := range handlers {
		if sh.fn != nil {
			sh.fn(w, h)
		}
	}
}

// OnSizeChanged subscribes fn to size changes. The returned cancel func
// unsubscribes it and may be called more than once.
func (c *Canvas) OnSizeChanged(fn func(w, h float64)) (cancel func()) {
	sh := &sizeHandler{fn: fn}
	c.handlers = append(c.handlers, sh)
	return func() {
		sh.fn = nil
		for i, h := range c.handlers {
			if h == sh {
				c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
				return
			}
		}
	}
}
