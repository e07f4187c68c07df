package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Format describes uncompressed little-endian PCM audio.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is the format synthesized clips are stored in.
func DefaultFormat() Format {
	return Format{
		SampleRate: 22050,
		Channels:   1,
		BitDepth:   16,
	}
}

// BytesPerSample returns the size of one frame across all channels.
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8 * f.Channels
}

// BytesPerSecond returns the PCM data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerSample()
}

// Duration computes the playback time of dataLen bytes of raw PCM.
func (f Format) Duration(dataLen int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	samples := dataLen / f.BytesPerSample()
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// Silence returns raw PCM silence of the given duration. Integer math so
// round durations produce exact sample counts.
func Silence(d time.Duration, f Format) []byte {
	samples := int(d * time.Duration(f.SampleRate) / time.Second)
	return make([]byte, samples*f.BytesPerSample())
}

var (
	ErrNotWAV     = errors.New("not a RIFF/WAVE stream")
	ErrBadHeader  = errors.New("malformed WAV header")
	ErrNotPCM     = errors.New("unsupported WAV encoding (PCM only)")
	ErrShortChunk = errors.New("truncated WAV chunk")
)

const wavHeaderSize = 44

// EncodeWAV wraps raw PCM data in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, f Format) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(f.BytesPerSecond()))
	binary.Write(buf, binary.LittleEndian, uint16(f.BytesPerSample()))
	binary.Write(buf, binary.LittleEndian, uint16(f.BitDepth))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// DecodeWAV parses a RIFF/WAVE stream and returns its format and raw PCM
// payload. Chunks other than "fmt " and "data" are skipped.
func DecodeWAV(data []byte) (Format, []byte, error) {
	var f Format
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return f, nil, ErrNotWAV
	}

	var pcm []byte
	sawFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return f, nil, fmt.Errorf("%w: %q chunk of %d bytes", ErrShortChunk, id, size)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return f, nil, ErrBadHeader
			}
			encoding := binary.LittleEndian.Uint16(data[body : body+2])
			if encoding != 1 {
				return f, nil, fmt.Errorf("%w: encoding %d", ErrNotPCM, encoding)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			sawFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	if !sawFmt || pcm == nil {
		return f, nil, ErrBadHeader
	}
	if f.SampleRate == 0 || f.Channels == 0 || f.BitDepth == 0 {
		return f, nil, ErrBadHeader
	}
	return f, pcm, nil
}

// IsWAV reports whether data starts with a RIFF/WAVE signature.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// DurationOf estimates the playback time of an audio payload. WAV input is
// decoded; anything else is treated as raw PCM in the default format, which
// keeps the estimate usable for synthesizers that return bare sample data.
func DurationOf(data []byte) time.Duration {
	if f, pcm, err := DecodeWAV(data); err == nil {
		return f.Duration(len(pcm))
	}
	df := DefaultFormat()
	return df.Duration(len(data))
}
