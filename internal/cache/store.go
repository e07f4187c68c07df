package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

// IndexStore persists the cache index. Load returns (nil, nil) when no
// snapshot exists yet. Implementations must round-trip every index field,
// timestamps included.
type IndexStore interface {
	Save(ix *Index) error
	Load() (*Index, error)
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FileStore writes the index as a JSON snapshot, optionally zstd-compressed.
// Loads sniff the magic bytes, so a store can switch compression on or off
// without migrating existing snapshots.
type FileStore struct {
	path     string
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

var _ IndexStore = (*FileStore)(nil)

func NewFileStore(path string, compress bool) *FileStore {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	dec, _ := zstd.NewReader(nil)
	return &FileStore{path: path, compress: compress, enc: enc, dec: dec}
}

func (s *FileStore) Save(ix *Index) error {
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if s.compress {
		data = s.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		data, err = s.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress index: %w", err)
		}
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if ix.Entries == nil {
		ix.Entries = make(map[string]Artifact)
	}
	return &ix, nil
}

// writeFileAtomic stages data in a temp file and renames it into place so
// readers never observe a partial write.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
