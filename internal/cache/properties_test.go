package cache

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Random operation sequences must preserve the structural invariants: the
// recorded total equals the sum of entry sizes, every indexed file exists,
// and the total never ends a Put or Maintain above the ceiling.
func TestCacheInvariantsProperty(t *testing.T) {
	const ceiling = 5000

	rapid.Check(t, func(rt *rapid.T) {
		m, err := New(Config{
			Dir:         t.TempDir(),
			MaxSize:     ceiling,
			TTL:         time.Hour,
			EvictTarget: 0.8,
		})
		if err != nil {
			rt.Fatalf("New failed: %v", err)
		}
		defer m.Close()

		keys := make([]string, 8)
		for i := range keys {
			keys[i] = fmt.Sprintf("k%d", i)
		}
		keyGen := rapid.SampledFrom(keys)

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			key := keyGen.Draw(rt, "key")
			switch op := rapid.IntRange(0, 3).Draw(rt, "op"); op {
			case 0:
				size := rapid.IntRange(1, 2000).Draw(rt, "size")
				if _, err := m.Put(payload(size), key, Meta{}); err != nil {
					rt.Fatalf("Put(%s, %d) failed: %v", key, size, err)
				}
			case 1:
				m.Get(key)
			case 2:
				if err := m.Remove(key); err != nil {
					rt.Fatalf("Remove(%s) failed: %v", key, err)
				}
			case 3:
				if err := m.Maintain(); err != nil {
					rt.Fatalf("Maintain failed: %v", err)
				}
			}

			m.mu.Lock()
			recomputed := m.idx.computeTotal()
			recorded := m.idx.TotalSize
			var missing []string
			for k, art := range m.idx.Entries {
				if !fileExists(art.Path) {
					missing = append(missing, k)
				}
			}
			m.mu.Unlock()

			if recorded != recomputed {
				rt.Fatalf("step %d: recorded total %d != recomputed %d", i, recorded, recomputed)
			}
			if len(missing) > 0 {
				rt.Fatalf("step %d: indexed entries without files: %v", i, missing)
			}
			if recorded > ceiling {
				rt.Fatalf("step %d: total %d exceeds ceiling %d", i, recorded, ceiling)
			}
		}
	})
}
