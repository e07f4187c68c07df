package cache

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// dirWatcher reacts to artifact files being deleted or renamed behind the
// cache's back and schedules a stale-reference sweep so the index does not
// keep serving paths that no longer exist.
type dirWatcher struct {
	fsw  *fsnotify.Watcher
	m    *Manager
	done chan struct{}
	once sync.Once
}

func (m *Manager) startWatcher() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(m.cfg.Dir); err != nil {
		fsw.Close()
		return err
	}

	w := &dirWatcher{
		fsw:  fsw,
		m:    m,
		done: make(chan struct{}),
	}
	m.watcher = w
	go w.run()
	return nil
}

func (w *dirWatcher) run() {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if name == indexFile || filepath.Ext(name) == ".tmp" {
				continue
			}
			w.m.log.Debug("external cache change", "file", name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				pending = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.m.log.Warn("cache watcher error", "err", err)

		case <-pending:
			timer = nil
			pending = nil
			if err := w.m.sweepStale(); err != nil {
				w.m.log.Warn("stale sweep failed", "err", err)
			}

		case <-w.done:
			return
		}
	}
}

func (w *dirWatcher) close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// sweepStale drops index entries whose files are gone. It is the watcher's
// narrow version of Maintain's phase three.
func (m *Manager) sweepStale() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, art := range m.idx.Entries {
		if !fileExists(art.Path) {
			delete(m.idx.Entries, key)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	m.log.Debug("stale sweep", "removed", removed)
	m.idx.TotalSize = m.idx.computeTotal()
	return m.persistLocked()
}
