package pipeline

import (
	"sync"
	"time"
)

// Status is the externally visible state of the generation flow.
type Status int

const (
	StatusIdle Status = iota
	StatusGeneratingScript
	StatusSynthesizing
	StatusCaching
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusGeneratingScript:
		return "generating-script"
	case StatusSynthesizing:
		return "synthesizing"
	case StatusCaching:
		return "caching"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Update is one status transition. Job ties the updates of a single
// generation run together; RequestID is the caller's identifier.
type Update struct {
	Job       string
	RequestID string
	Status    Status
	Err       error
	At        time.Time
}

// statusTracker keeps the latest update and fans transitions out to
// subscribers. Sends never block: a subscriber that stops draining its
// channel misses updates instead of stalling generation.
type statusTracker struct {
	mu      sync.Mutex
	current Update
	subs    map[int]chan Update
	nextID  int
}

func newStatusTracker() *statusTracker {
	return &statusTracker{
		current: Update{Status: StatusIdle, At: time.Now()},
		subs:    make(map[int]chan Update),
	}
}

func (t *statusTracker) set(u Update) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = u
	for _, ch := range t.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func (t *statusTracker) get() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *statusTracker) subscribe() (<-chan Update, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	ch := make(chan Update, 16)
	t.subs[id] = ch
	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
