package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sampleIndex() *Index {
	ix := NewIndex()
	ix.Entries["k1"] = Artifact{
		Key:        "k1",
		Path:       "/tmp/cache/k1.wav",
		Size:       4096,
		Duration:   2500 * time.Millisecond,
		CreatedAt:  time.Date(2026, 3, 14, 7, 30, 0, 123456789, time.UTC),
		Voice:      "ember",
		RequestID:  "alarm-42",
		Format:     "wav",
		Quality:    "high",
		Transcript: "up and at them",
	}
	ix.Entries["k2"] = Artifact{
		Key:       "k2",
		Path:      "/tmp/cache/k2.wav",
		Size:      1024,
		CreatedAt: time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC),
		Format:    "wav",
	}
	ix.TotalSize = ix.computeTotal()
	ix.LastMaintenance = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	return ix
}

func assertIndexEqual(t *testing.T, got, want *Index) {
	t.Helper()
	if len(got.Entries) != len(want.Entries) {
		t.Fatalf("entry count = %d, want %d", len(got.Entries), len(want.Entries))
	}
	for key, w := range want.Entries {
		g, ok := got.Entries[key]
		if !ok {
			t.Fatalf("entry %q missing after round trip", key)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("entry %q CreatedAt = %v, want %v", key, g.CreatedAt, w.CreatedAt)
		}
		g.CreatedAt = w.CreatedAt // compare the rest field-wise
		if g != w {
			t.Errorf("entry %q = %+v, want %+v", key, g, w)
		}
	}
	if got.TotalSize != want.TotalSize {
		t.Errorf("total size = %d, want %d", got.TotalSize, want.TotalSize)
	}
	if !got.LastMaintenance.Equal(want.LastMaintenance) {
		t.Errorf("last maintenance = %v, want %v", got.LastMaintenance, want.LastMaintenance)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), indexFile)
			s := NewFileStore(path, compress)

			want := sampleIndex()
			if err := s.Save(want); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading snapshot: %v", err)
			}
			if compress != bytes.HasPrefix(raw, zstdMagic) {
				t.Errorf("compress=%v but zstd magic present=%v", compress, !compress)
			}

			got, err := s.Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			assertIndexEqual(t, got, want)
		})
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), indexFile), false)
	ix, err := s.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if ix != nil {
		t.Errorf("Load on missing file = %+v, want nil", ix)
	}
}

func TestFileStoreSniffsFormat(t *testing.T) {
	// A store configured without compression must still read a compressed
	// snapshot, and the other way around, so flipping the setting never
	// strands an existing cache.
	path := filepath.Join(t.TempDir(), indexFile)
	want := sampleIndex()

	if err := NewFileStore(path, true).Save(want); err != nil {
		t.Fatalf("compressed Save failed: %v", err)
	}
	got, err := NewFileStore(path, false).Load()
	if err != nil {
		t.Fatalf("plain store reading compressed snapshot: %v", err)
	}
	assertIndexEqual(t, got, want)

	if err := NewFileStore(path, false).Save(want); err != nil {
		t.Fatalf("plain Save failed: %v", err)
	}
	got, err = NewFileStore(path, true).Load()
	if err != nil {
		t.Fatalf("compressed store reading plain snapshot: %v", err)
	}
	assertIndexEqual(t, got, want)
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), indexFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path, false).Load(); err == nil {
		t.Error("Load on corrupt snapshot succeeded, want error")
	}
}
