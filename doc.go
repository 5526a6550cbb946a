// Package noise fills a region of an [Ebitengine] window with a repeated
// texture, the classic "noise" background.
//
// The package is a small retained-mode scene graph plus one control,
// [TiledImage], that lays a source image edge to edge across a [Canvas].
// Tiles use the image's natural pixel size; the last column and row are
// clipped so the canvas is covered exactly, with no gaps and no overlap.
//
// # Quick start
//
//	scene := noise.NewScene()
//	canvas := noise.NewCanvas("background", 640, 480)
//	scene.Root().AddChild(canvas.Node())
//
//	bg := noise.NewTiledImage("background", noise.NewLoader(scene))
//	bg.SetSource(noise.FileSource("assets/noise.png"))
//	bg.Attach(canvas)
//
//	scene.SetResizeFunc(func(w, h int) { canvas.SetSize(float64(w), float64(h)) })
//	noise.Run(scene, noise.RunConfig{Title: "Noise", Width: 640, Height: 480, Resizable: true})
//
// # Lifecycle
//
// A control starts unbound. [TiledImage.Attach] binds it to a canvas, measures
// the current source and subscribes to the canvas's size changes. Measuring
// inserts a hidden probe node; the image is decoded once the probe takes part
// in a [Scene.Update], and the grid is built when the decode completes. Canvas
// resizes rebuild the grid from scratch. Assigning a new source while a decode
// is pending supersedes it; the late result is ignored.
//
// # Threading
//
// Scenes, nodes and controls are single-threaded. Decoding runs on background
// goroutines and hands results back through [Scene.Post], which is the only
// goroutine-safe entry point.
//
// [Ebitengine]: https://ebitengine.org
package noise
