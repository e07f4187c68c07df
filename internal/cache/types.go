package cache

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput marks caller bugs: empty payloads or empty keys.
	ErrInvalidInput = errors.New("invalid cache input")
)

const (
	// DefaultTTL is how long an artifact stays servable after creation.
	DefaultTTL = 72 * time.Hour

	// DefaultMaxSize is the default cache ceiling in bytes.
	DefaultMaxSize = 500 * 1000 * 1000

	// DefaultEvictTarget is the soft target eviction shrinks to, as a
	// fraction of the ceiling. Evicting below the ceiling on every insert
	// would thrash; overshooting to 80% leaves headroom.
	DefaultEvictTarget = 0.80

	// DefaultFormat is the artifact encoding used when none is given.
	DefaultFormat = "wav"

	indexFile = "index.json"
)

// Artifact describes one cached audio file and its provenance.
type Artifact struct {
	Key        string        `json:"key"`
	Path       string        `json:"path"`
	Size       int64         `json:"size"`
	Duration   time.Duration `json:"duration,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	Voice      string        `json:"voice,omitempty"`
	RequestID  string        `json:"request_id,omitempty"`
	Format     string        `json:"format"`
	Quality    string        `json:"quality,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
}

// Expired reports whether the artifact's age exceeds ttl at the given time.
func (a Artifact) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(a.CreatedAt) > ttl
}

// Meta carries caller-supplied artifact attributes into Put.
type Meta struct {
	Voice      string
	RequestID  string
	Format     string
	Quality    string
	Duration   time.Duration
	Transcript string
}

// Index is the durable cache state. TotalSize is recomputed from the entries
// after every mutation rather than adjusted incrementally, so it can never
// drift from the sum of member sizes.
type Index struct {
	Entries         map[string]Artifact `json:"entries"`
	TotalSize       int64               `json:"total_size"`
	LastMaintenance time.Time           `json:"last_maintenance"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{Entries: make(map[string]Artifact)}
}

func (ix *Index) computeTotal() int64 {
	var total int64
	for _, a := range ix.Entries {
		total += a.Size
	}
	return total
}

// Statistics is a point-in-time, read-only view of the cache. It is derived
// on demand and never stored.
type Statistics struct {
	Items           int
	TotalSize       int64
	MaxSize         int64
	AverageSize     int64
	Oldest          time.Time
	Newest          time.Time
	Expired         int
	FreeDisk        uint64
	Hits            uint64
	Requests        uint64
	HitRate         float64
	LastMaintenance time.Time
}

// Config holds cache tuning. Zero values are filled from DefaultConfig by
// Validate's callers; Validate itself rejects unusable combinations.
type Config struct {
	Dir           string        `yaml:"dir" env:"DIR"`
	MaxSize       int64         `yaml:"max_size" env:"MAX_SIZE"`
	TTL           time.Duration `yaml:"ttl" env:"TTL"`
	EvictTarget   float64       `yaml:"evict_target" env:"EVICT_TARGET"`
	CompressIndex bool          `yaml:"compress_index" env:"COMPRESS_INDEX"`
	Watch         bool          `yaml:"watch" env:"WATCH"`
}

// DefaultConfig returns the stock cache configuration. Dir is left empty on
// purpose: the caller decides where artifacts live.
func DefaultConfig() Config {
	return Config{
		MaxSize:     DefaultMaxSize,
		TTL:         DefaultTTL,
		EvictTarget: DefaultEvictTarget,
	}
}

// Validate checks the configuration for values the cache cannot operate with.
func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.New("cache dir must be set")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive, got %d", c.MaxSize)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %v", c.TTL)
	}
	if c.EvictTarget <= 0 || c.EvictTarget > 1 {
		return fmt.Errorf("evict target must be in (0, 1], got %v", c.EvictTarget)
	}
	return nil
}
