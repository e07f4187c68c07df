package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Manager owns a cache directory: artifact files plus the index snapshot.
// One mutex serializes every index mutation; two in-flight writes can never
// interleave their eviction decisions.
type Manager struct {
	cfg   Config
	store IndexStore
	log   *log.Logger
	now   func() time.Time

	mu  sync.Mutex
	idx *Index

	hits     atomic.Uint64
	requests atomic.Uint64

	watcher *dirWatcher
}

// Option adjusts a Manager at construction time.
type Option func(*Manager)

// WithLogger routes cache diagnostics to l instead of discarding them.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithStore replaces the default JSON file store backing the index.
func WithStore(s IndexStore) Option {
	return func(m *Manager) { m.store = s }
}

// New creates the cache directory if needed and loads the index snapshot
// once. Every later mutation persists the whole index back through the store.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	m := &Manager{
		cfg: cfg,
		log: log.New(io.Discard),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewFileStore(filepath.Join(cfg.Dir, indexFile), cfg.CompressIndex)
	}

	idx, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load cache index: %w", err)
	}
	if idx == nil {
		idx = NewIndex()
	}
	idx.TotalSize = idx.computeTotal()
	m.idx = idx

	if cfg.Watch {
		if err := m.startWatcher(); err != nil {
			return nil, fmt.Errorf("watch cache dir: %w", err)
		}
	}
	return m, nil
}

// Close stops the directory watcher, if one is running.
func (m *Manager) Close() error {
	if m.watcher != nil {
		return m.watcher.close()
	}
	return nil
}

// Put stores an audio payload under key, evicting other entries first if the
// projected total would cross the ceiling. The index entry for key is
// overwritten if it already exists. Returns the artifact's path on disk.
func (m *Manager) Put(data []byte, key string, meta Meta) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.enforceCapacityLocked(int64(len(data)), key)

	format := meta.Format
	if format == "" {
		format = DefaultFormat
	}
	path := filepath.Join(m.cfg.Dir, key+"."+format)
	if err := writeFileAtomic(path, data); err != nil {
		// Evictions already deleted files; keep the index honest anyway.
		if perr := m.persistLocked(); perr != nil {
			m.log.Warn("persist after failed write", "err", perr)
		}
		return "", fmt.Errorf("write artifact %s: %w", key, err)
	}

	m.idx.Entries[key] = Artifact{
		Key:        key,
		Path:       path,
		Size:       int64(len(data)),
		Duration:   meta.Duration,
		CreatedAt:  m.now(),
		Voice:      meta.Voice,
		RequestID:  meta.RequestID,
		Format:     format,
		Quality:    meta.Quality,
		Transcript: meta.Transcript,
	}
	m.idx.TotalSize = m.idx.computeTotal()
	if err := m.persistLocked(); err != nil {
		return "", err
	}

	m.log.Debug("cached artifact", "key", key, "size", len(data), "total", m.idx.TotalSize)
	return path, nil
}

// Get looks up key. Misses come in three flavors, each handled on the spot:
// the key is unknown, the entry's file vanished (stale reference, dropped),
// or the entry outlived the TTL (dropped along with its file). Every call
// counts toward the request total; only true hits count as hits.
func (m *Manager) Get(key string) (Artifact, bool) {
	m.requests.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	art, ok := m.idx.Entries[key]
	if !ok {
		return Artifact{}, false
	}

	if !fileExists(art.Path) {
		m.log.Debug("dropping stale cache entry", "key", key, "path", art.Path)
		delete(m.idx.Entries, key)
		m.idx.TotalSize = m.idx.computeTotal()
		if err := m.persistLocked(); err != nil {
			m.log.Warn("persist after stale drop", "err", err)
		}
		return Artifact{}, false
	}

	if art.Expired(m.cfg.TTL, m.now()) {
		m.log.Debug("dropping expired cache entry", "key", key, "age", m.now().Sub(art.CreatedAt))
		m.dropLocked(key)
		m.idx.TotalSize = m.idx.computeTotal()
		if err := m.persistLocked(); err != nil {
			m.log.Warn("persist after expiry drop", "err", err)
		}
		return Artifact{}, false
	}

	m.hits.Add(1)
	return art, true
}

// Remove deletes key's entry. The file delete is best-effort: a failure is
// logged and the index entry is dropped regardless, leaving the file for the
// next maintenance pass. Removing an unknown key is a no-op.
func (m *Manager) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.idx.Entries[key]; !ok {
		return nil
	}
	m.dropLocked(key)
	m.idx.TotalSize = m.idx.computeTotal()
	return m.persistLocked()
}

// Clear deletes every file under the cache root, resets the index, and
// zeroes the hit/request counters.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == indexFile {
			continue
		}
		if err := os.Remove(filepath.Join(m.cfg.Dir, e.Name())); err != nil {
			m.log.Warn("clear: delete failed", "file", e.Name(), "err", err)
		}
	}

	m.idx = NewIndex()
	m.hits.Store(0)
	m.requests.Store(0)
	return m.persistLocked()
}

// Maintain runs the three-phase cleanup: expiry and size eviction against
// the index, then an orphan sweep of the directory, then a stale-reference
// sweep of the index. The index persists once, at the end.
func (m *Manager) Maintain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	// Phase 1: age, then size pressure.
	for key, art := range m.idx.Entries {
		if art.Expired(m.cfg.TTL, now) {
			m.dropLocked(key)
		}
	}
	m.idx.TotalSize = m.idx.computeTotal()
	if m.idx.TotalSize > m.cfg.MaxSize {
		target := m.targetSize()
		for m.idx.TotalSize > target && len(m.idx.Entries) > 0 {
			m.dropLocked(m.oldestLocked())
			m.idx.TotalSize = m.idx.computeTotal()
		}
	}

	// Phase 2: files nothing references anymore.
	referenced := make(map[string]bool, len(m.idx.Entries))
	for _, art := range m.idx.Entries {
		referenced[filepath.Base(art.Path)] = true
	}
	dirEntries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || name == indexFile || strings.HasSuffix(name, ".tmp") {
			continue
		}
		if !referenced[name] {
			if err := os.Remove(filepath.Join(m.cfg.Dir, name)); err != nil {
				m.log.Warn("orphan sweep: delete failed", "file", name, "err", err)
			} else {
				m.log.Debug("removed orphan file", "file", name)
			}
		}
	}

	// Phase 3: entries whose file vanished.
	for key, art := range m.idx.Entries {
		if !fileExists(art.Path) {
			delete(m.idx.Entries, key)
			m.log.Debug("dropped stale index entry", "key", key)
		}
	}
	m.idx.TotalSize = m.idx.computeTotal()
	m.idx.LastMaintenance = now

	return m.persistLocked()
}

// Statistics derives a fresh snapshot from the live index and counters.
func (m *Manager) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stats := Statistics{
		Items:           len(m.idx.Entries),
		TotalSize:       m.idx.TotalSize,
		MaxSize:         m.cfg.MaxSize,
		FreeDisk:        FreeDiskSpace(m.cfg.Dir),
		Hits:            m.hits.Load(),
		Requests:        m.requests.Load(),
		LastMaintenance: m.idx.LastMaintenance,
	}
	for _, art := range m.idx.Entries {
		if stats.Oldest.IsZero() || art.CreatedAt.Before(stats.Oldest) {
			stats.Oldest = art.CreatedAt
		}
		if art.CreatedAt.After(stats.Newest) {
			stats.Newest = art.CreatedAt
		}
		if art.Expired(m.cfg.TTL, now) {
			stats.Expired++
		}
	}
	if stats.Items > 0 {
		stats.AverageSize = stats.TotalSize / int64(stats.Items)
	}
	if stats.Requests > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Requests)
	}
	return stats
}

// Entries returns a copy of every indexed artifact, newest first.
func (m *Manager) Entries() []Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()

	arts := make([]Artifact, 0, len(m.idx.Entries))
	for _, art := range m.idx.Entries {
		arts = append(arts, art)
	}
	sort.Slice(arts, func(i, j int) bool {
		return arts[i].CreatedAt.After(arts[j].CreatedAt)
	})
	return arts
}

// Dir returns the cache root.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

func (m *Manager) targetSize() int64 {
	return int64(float64(m.cfg.MaxSize) * m.cfg.EvictTarget)
}

// enforceCapacityLocked evicts until the projected post-insert total fits.
// Two tiers: the hard ceiling decides whether eviction runs at all, the soft
// target decides how far it shrinks. Expired entries always go first.
func (m *Manager) enforceCapacityLocked(incoming int64, replacing string) {
	projected := func() int64 {
		p := m.idx.TotalSize + incoming
		if old, ok := m.idx.Entries[replacing]; ok {
			p -= old.Size
		}
		return p
	}

	if projected() <= m.cfg.MaxSize {
		return
	}

	now := m.now()
	for key, art := range m.idx.Entries {
		if art.Expired(m.cfg.TTL, now) {
			m.dropLocked(key)
		}
	}
	m.idx.TotalSize = m.idx.computeTotal()

	target := m.targetSize()
	for projected() > target && len(m.idx.Entries) > 0 {
		m.dropLocked(m.oldestLocked())
		m.idx.TotalSize = m.idx.computeTotal()
	}
}

// dropLocked removes one entry and best-effort deletes its file. Callers
// recompute the total and persist.
func (m *Manager) dropLocked(key string) {
	art, ok := m.idx.Entries[key]
	if !ok {
		return
	}
	if err := os.Remove(art.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.log.Warn("delete artifact file failed", "key", key, "path", art.Path, "err", err)
	}
	delete(m.idx.Entries, key)
}

func (m *Manager) oldestLocked() string {
	var oldestKey string
	var oldestAt time.Time
	for key, art := range m.idx.Entries {
		if oldestKey == "" || art.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = art.CreatedAt
		}
	}
	return oldestKey
}

func (m *Manager) persistLocked() error {
	if err := m.store.Save(m.idx); err != nil {
		return fmt.Errorf("persist cache index: %w", err)
	}
	return nil
}

// fileExists treats stat errors other than ErrNotExist as "exists" so a
// transient failure never drops a live entry.
func fileExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return !errors.Is(err, fs.ErrNotExist)
	}
	return true
}
