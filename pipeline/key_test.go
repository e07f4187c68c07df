package pipeline

import (
	"strings"
	"testing"
)

func TestCacheKeyShape(t *testing.T) {
	key := CacheKey(Request{ID: "alarm-1", Goal: "wake up"}, "ava")

	if !strings.HasPrefix(key, "v1_") {
		t.Fatalf("key = %q, want v1_ prefix", key)
	}
	hexPart := strings.TrimPrefix(key, "v1_")
	if len(hexPart) != 40 {
		t.Fatalf("digest length = %d, want 40", len(hexPart))
	}
	if strings.Trim(hexPart, "0123456789abcdef") != "" {
		t.Fatalf("digest %q contains non-hex characters", hexPart)
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	req := Request{
		ID:   "alarm-1",
		Goal: "run five kilometers",
		Tone: "energetic",
		Context: map[string]string{
			"weather": "raining",
			"streak":  "12 days",
			"city":    "Lisbon",
		},
	}
	// map iteration order must not leak into the key
	for i := 0; i < 50; i++ {
		if a, b := CacheKey(req, "nova"), CacheKey(req, "nova"); a != b {
			t.Fatalf("key not deterministic: %q vs %q", a, b)
		}
	}
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	base := Request{ID: "alarm-1", Goal: "wake up", Tone: "calm", Context: map[string]string{"k": "v"}}
	baseKey := CacheKey(base, "ava")

	mutations := map[string]Request{
		"different id":      {ID: "alarm-2", Goal: "wake up", Tone: "calm", Context: map[string]string{"k": "v"}},
		"different goal":    {ID: "alarm-1", Goal: "sleep in", Tone: "calm", Context: map[string]string{"k": "v"}},
		"different tone":    {ID: "alarm-1", Goal: "wake up", Tone: "stern", Context: map[string]string{"k": "v"}},
		"different context": {ID: "alarm-1", Goal: "wake up", Tone: "calm", Context: map[string]string{"k": "w"}},
		"extra context key": {ID: "alarm-1", Goal: "wake up", Tone: "calm", Context: map[string]string{"k": "v", "x": "y"}},
	}
	for name, req := range mutations {
		if CacheKey(req, "ava") == baseKey {
			t.Errorf("%s produced the same key", name)
		}
	}

	if CacheKey(base, "nova") == baseKey {
		t.Error("different voice produced the same key")
	}
}

func TestCacheKeyNormalizesText(t *testing.T) {
	a := CacheKey(Request{ID: "Alarm-1", Goal: "Wake  Up"}, "Ava")
	b := CacheKey(Request{ID: "alarm-1", Goal: "wake up"}, "ava")
	if a != b {
		t.Fatalf("case/whitespace variants produced different keys:\n%q\n%q", a, b)
	}
}

func BenchmarkCacheKey(b *testing.B) {
	req := Request{
		ID:      "alarm-1",
		Goal:    "run five kilometers before the standup meeting",
		Tone:    "energetic",
		Context: map[string]string{"weather": "raining", "streak": "12 days"},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		CacheKey(req, "nova")
	}
}
