package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/tessera/engine/core"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
	AssetTypeImage
	AssetTypeFont
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeImage:
		return "image"
	case AssetTypeFont:
		return "font"
	}
	return "none"
}

type AssetInfo struct {
	Path        string
	Type        AssetType
	LastChanged time.Time
}

// Change is a file under a watched directory that was created, written or
// removed.
type Change struct {
	Path    string
	Type    AssetType
	Removed bool
}

var ErrWatcherClosed = errors.New("asset watcher already closed")

// Watcher keeps an index of the asset files under a set of directories and
// reports changes to them.
type Watcher struct {
	assets map[string]AssetInfo

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
	changes  chan Change
}

func NewWatcher() (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		assets:   make(map[string]AssetInfo),
		fsnotify: fsWatch,
		changes:  make(chan Change, 16),
		done:     make(chan struct{}),
	}, nil
}

// Watch indexes dir and every directory below it and starts reporting
// changes. It can be called for several directories.
func (w *Watcher) Watch(dir string) error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	start := !w.started
	w.started = true
	w.mutex.Unlock()

	if err := w.watchRecursive(dir); err != nil {
		return err
	}
	if start {
		go w.start()
	}
	return nil
}

// Changes delivers file changes. It is closed by Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Lookup returns the index entry of a known asset file.
func (w *Watcher) Lookup(path string) (AssetInfo, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	a, ok := w.assets[filepath.Clean(path)]
	return a, ok
}

func (w *Watcher) Len() int {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return len(w.assets)
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	started := w.started
	w.mutex.Unlock()

	close(w.done)
	if !started {
		close(w.changes)
		return w.fsnotify.Close()
	}
	return nil
}

func (w *Watcher) start() {
	defer close(w.changes)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	path := filepath.Clean(e.Name)
	if s, err := os.Stat(path); err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := w.watchRecursive(path); err != nil {
				core.LogWarn("asset watcher: failed to watch %s: %s", path, err)
			}
		}
		return
	}

	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		if t := w.index(path); t != AssetTypeNone {
			w.emit(Change{Path: path, Type: t})
		}
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		// a removed directory cannot be told apart from a file any more
		_ = w.fsnotify.Remove(path)
		if t, ok := w.remove(path); ok {
			w.emit(Change{Path: path, Type: t, Removed: true})
		}
	}
}

// emit drops the change when nobody drains the channel.
func (w *Watcher) emit(c Change) {
	select {
	case w.changes <- c:
	case <-w.done:
	default:
		core.LogWarn("asset watcher: dropped change for %s", c.Path)
	}
}

func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		w.index(filepath.Clean(walkPath))
		return nil
	})
}

func (w *Watcher) index(path string) AssetType {
	t := DetermineAssetType(path)
	if t == AssetTypeNone {
		return t
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.assets[path] = AssetInfo{Path: path, Type: t, LastChanged: time.Now()}
	return t
}

func (w *Watcher) remove(path string) (AssetType, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	a, ok := w.assets[path]
	delete(w.assets, path)
	return a.Type, ok
}

func DetermineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv", ".vert", ".frag", ".glsl":
		return AssetTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp":
		return AssetTypeImage
	case ".fnt", ".ttf", ".otf":
		return AssetTypeFont
	default:
		return AssetTypeNone
	}
}
