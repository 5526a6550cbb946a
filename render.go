package noise

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// RenderCommand is a single draw instruction emitted during scene traversal.
type RenderCommand struct {
	Transform  [6]float64
	Color      Color // alpha already multiplied by the node's world alpha
	BlendMode  BlendMode
	Image      *ebiten.Image
	SourceRect image.Rectangle
}

// traverse walks the node tree depth-first, updating transforms and emitting
// render commands for visible, renderable sprites. Child order is draw order.
func (s *Scene) traverse(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	if !n.Visible {
		return
	}

	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = multiplyAffine(parentTransform, computeLocalTransform(n))
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}

	if n.Renderable && n.Type == NodeTypeSprite && n.customImage != nil {
		c := n.Color
		c.A *= n.worldAlpha
		s.commands = append(s.commands, RenderCommand{
			Transform:  n.worldTransform,
			Color:      c,
			BlendMode:  n.BlendMode,
			Image:      n.customImage,
			SourceRect: n.SourceRect,
		})
	}

	for _, child := range n.children {
		s.traverse(child, n.worldTransform, n.worldAlpha, recompute)
	}
}

// submit draws every queued command onto target.
func (s *Scene) submit(target *ebiten.Image) {
	var op ebiten.DrawImageOptions
	for i := range s.commands {
		cmd := &s.commands[i]

		img := cmd.Image
		if !cmd.SourceRect.Empty() {
			img = img.SubImage(cmd.SourceRect).(*ebiten.Image)
		}

		op.GeoM.Reset()
		op.GeoM.Concat(commandGeoM(cmd))

		a := float32(cmd.Color.A)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(cmd.Color.R)*a, float32(cmd.Color.G)*a, float32(cmd.Color.B)*a, a)
		op.Blend = cmd.BlendMode.EbitenBlend()

		target.DrawImage(img, &op)
	}
}

func commandGeoM(cmd *RenderCommand) ebiten.GeoM {
	var m ebiten.GeoM
	m.SetElement(0, 0, cmd.Transform[0])
	m.SetElement(1, 0, cmd.Transform[1])
	m.SetElement(0, 1, cmd.Transform[2])
	m.SetElement(1, 1, cmd.Transform[3])
	m.SetElement(0, 2, cmd.Transform[4])
	m.SetElement(1, 2, cmd.Transform[5])
	return m
}
