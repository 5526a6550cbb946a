package noise

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/singleflight"
)

// Loader decodes a Source and reports the result. done must be invoked
// exactly once, on the goroutine that drives Scene.Update, and never from
// inside Load itself.
type Loader interface {
	Load(src Source, done func(img *ebiten.Image, err error))
}

// AsyncLoader decodes sources on background goroutines and delivers results
// through Scene.Post. Concurrent loads of sources with the same key share one
// decode.
type AsyncLoader struct {
	scene *Scene
	group singleflight.Group
}

// NewLoader returns an AsyncLoader that completes loads on scene's update loop.
func NewLoader(scene *Scene) *AsyncLoader {
	return &AsyncLoader{scene: scene}
}

// Load starts decoding src. The ebiten image is created on the update
// goroutine when the completion runs.
func (l *AsyncLoader) Load(src Source, done func(img *ebiten.Image, err error)) {
	key := src.Key()
	go func() {
		v, err, shared := l.group.Do(key, func() (any, error) {
			return src.Decode()
		})
		if shared {
			debugf("decode of %s shared with a concurrent load", key)
		}
		l.scene.Post(func() {
			if err != nil {
				done(nil, err)
				return
			}
			img, _ := v.(image.Image)
			if img == nil {
				done(nil, errNoImage)
				return
			}
			done(ebiten.NewImageFromImage(img), nil)
		})
	}()
}

// Forget drops any in-flight decode for key so the next Load reads the
// source again instead of joining it.
func (l *AsyncLoader) Forget(key string) {
	l.group.Forget(key)
}
