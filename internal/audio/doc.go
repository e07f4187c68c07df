// Package audio provides WAV encode/decode helpers, PCM duration math, and
// playback of finished clips through the oto/v3 library.
package audio
