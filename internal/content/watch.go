package content

import (
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"frogtank.app/internal/sim/tank"
	"frogtank.app/internal/sim/tuning"
)

// Watcher follows the scanned directory and turns file-system changes
// into batched world edits: root-level entries appear and disappear in
// the tank, nested ones only refresh the index behind FilesUnder.
type Watcher struct {
	root   string
	ix     *Index
	tk     tuning.Tank
	lay    tuning.Layout
	fsw    *fsnotify.Watcher
	out    chan []tank.ObjectEdit
	done   chan struct{}
	logger *log.Logger
}

func NewWatcher(root string, ix *Index, tk tuning.Tank, lay tuning.Layout, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:   root,
		ix:     ix,
		tk:     tk,
		lay:    lay,
		fsw:    fsw,
		out:    make(chan []tank.ObjectEdit, 16),
		done:   make(chan struct{}),
		logger: logger,
	}
	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	// Folder interiors change too; watch the first level of dirs.
	if des, err := os.ReadDir(root); err == nil {
		for _, de := range des {
			if de.IsDir() && !strings.HasPrefix(de.Name(), ".") {
				_ = fsw.Add(filepath.Join(root, de.Name()))
			}
		}
	}
	go w.loop()
	return w, nil
}

// Edits delivers edit batches for the world's edit channel.
func (w *Watcher) Edits() <-chan []tank.ObjectEdit { return w.out }

func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			edits := w.handleEvent(ev)
			if len(edits) == 0 {
				continue
			}
			select {
			case w.out <- edits:
			case <-w.done:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) []tank.ObjectEdit {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") {
		return nil
	}
	depth := strings.Count(rel, "/")
	if depth > w.lay.MaxDepth {
		return nil
	}

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := w.ix.Remove(rel); err != nil {
			w.logger.Printf("index remove %s: %v", rel, err)
		}
		if depth > 0 {
			_ = w.ix.bumpCount(path.Dir(rel), -1)
			return nil
		}
		return []tank.ObjectEdit{{Remove: true, ID: rel}}

	case ev.Op&fsnotify.Create != 0:
		info, err := os.Stat(ev.Name)
		if err != nil {
			return nil
		}
		e := Entry{Path: rel, Name: base, Type: classify(base, info.IsDir())}
		if info.IsDir() {
			if depth == 0 {
				_ = w.fsw.Add(ev.Name)
			}
		} else {
			e.SizeBytes = info.Size()
		}
		if err := w.ix.Upsert(e); err != nil {
			w.logger.Printf("index upsert %s: %v", rel, err)
		}
		if depth > 0 {
			_ = w.ix.bumpCount(path.Dir(rel), 1)
			return nil
		}
		return []tank.ObjectEdit{{Object: PlaceEntry(e, w.tk, w.lay)}}

	case ev.Op&fsnotify.Write != 0:
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		e := Entry{Path: rel, Name: base, Type: classify(base, false), SizeBytes: info.Size()}
		if err := w.ix.Upsert(e); err != nil {
			w.logger.Printf("index upsert %s: %v", rel, err)
		}
	}
	return nil
}
