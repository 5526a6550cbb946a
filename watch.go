package noise

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-assigns a file source to a TiledImage whenever the file changes
// on disk.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// WatchSource watches the image file at path and, on every write or create,
// posts ctl.SetSource(FileSource(path)) onto scene. The containing directory
// is watched so that editors which replace the file are noticed. loader may
// be nil; otherwise its in-flight decode of the file is forgotten first so
// the new contents are read.
func WatchSource(scene *Scene, ctl *TiledImage, loader *AsyncLoader, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("noise: watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("noise: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("noise: watch %s: %w", path, err)
	}

	w := &Watcher{fw: fw, done: make(chan struct{})}
	go w.loop(scene, ctl, loader, abs, path)
	return w, nil
}

func (w *Watcher) loop(scene *Scene, ctl *TiledImage, loader *AsyncLoader, abs, path string) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			src := FileSource(path)
			if loader != nil {
				loader.Forget(src.Key())
			}
			debugf("%s changed, re-measuring", path)
			scene.Post(func() { ctl.SetSource(src) })
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			debugf("watch %s: %v", path, err)
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
