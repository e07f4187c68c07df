package eleven

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dgnsrekt/chime/internal/audio"
	"github.com/dgnsrekt/chime/pipeline"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-key"
	cfg.RequestsPerMinute = 6000
	return cfg
}

func testPCM(n int) []byte {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}
	return pcm
}

func TestSynthesizeWAV(t *testing.T) {
	pcm := testPCM(4410)
	var gotBody synthesisRequest
	var gotQuery, gotPath, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get(headerAPIKey)
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write(pcm)
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	clip, err := s.Synthesize(context.Background(), "rise and shine", "ava",
		pipeline.SynthesisOptions{Format: "wav"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if gotPath != "/v1/text-to-speech/ava" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "output_format=pcm_22050" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotBody.Text != "rise and shine" {
		t.Errorf("text = %q", gotBody.Text)
	}
	if gotBody.ModelID != "eleven_turbo_v2" {
		t.Errorf("model = %q", gotBody.ModelID)
	}

	if !audio.IsWAV(clip) {
		t.Fatal("output is not WAV")
	}
	f, decoded, err := audio.DecodeWAV(clip)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if f.SampleRate != 22050 || f.Channels != 1 || f.BitDepth != 16 {
		t.Fatalf("wav format = %+v", f)
	}
	if !bytes.Equal(decoded, pcm) {
		t.Fatal("wav payload differs from service pcm")
	}
}

func TestSynthesizePCMPassthrough(t *testing.T) {
	pcm := testPCM(1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pcm)
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	clip, err := s.Synthesize(context.Background(), "hello", "ava",
		pipeline.SynthesisOptions{Format: "pcm"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(clip, pcm) {
		t.Fatal("pcm output was altered")
	}
}

func TestSynthesizeQualityPicksSampleRate(t *testing.T) {
	var lastQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery.Store(r.URL.RawQuery)
		w.Write(testPCM(64))
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for quality, want := range map[string]string{
		"low":      "output_format=pcm_16000",
		"":         "output_format=pcm_22050",
		"standard": "output_format=pcm_22050",
		"high":     "output_format=pcm_44100",
	} {
		if _, err := s.Synthesize(context.Background(), "hi", "ava",
			pipeline.SynthesisOptions{Format: "pcm", Quality: quality}); err != nil {
			t.Fatalf("quality %q: %v", quality, err)
		}
		if got := lastQuery.Load().(string); got != want {
			t.Errorf("quality %q: query = %q, want %q", quality, got, want)
		}
	}
}

func TestSynthesizeSpeedSetting(t *testing.T) {
	var settings atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		settings.Store(string(body["voice_settings"]))
		w.Write(testPCM(64))
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Synthesize(context.Background(), "hi", "ava",
		pipeline.SynthesisOptions{Format: "pcm", Speed: 1.4}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got := settings.Load().(string); !strings.Contains(got, `"speed":1.4`) {
		t.Errorf("voice settings %q missing speed", got)
	}

	// normal speed is the API default and stays out of the payload
	if _, err := s.Synthesize(context.Background(), "hi", "ava",
		pipeline.SynthesisOptions{Format: "pcm", Speed: 1.0}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got := settings.Load().(string); strings.Contains(got, "speed") {
		t.Errorf("voice settings %q carries default speed", got)
	}
}

func TestSynthesizeAPIErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
		want   string
	}{
		"structured detail": {
			http.StatusUnauthorized,
			`{"detail": {"status": "invalid_api_key", "message": "Invalid API key"}}`,
			"Invalid API key",
		},
		"raw body": {
			http.StatusInternalServerError,
			"upstream exploded",
			"upstream exploded",
		},
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			s, err := New(testConfig(srv.URL))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = s.Synthesize(context.Background(), "hi", "ava", pipeline.SynthesisOptions{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with no body
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "hi", "ava", pipeline.SynthesisOptions{}); err == nil {
		t.Fatal("empty audio accepted")
	}
}

func TestSynthesizeInputValidation(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Synthesize(context.Background(), "  ", "ava", pipeline.SynthesisOptions{}); err == nil {
		t.Fatal("empty script accepted")
	}
	if _, err := s.Synthesize(context.Background(), "hi", "", pipeline.SynthesisOptions{}); err == nil {
		t.Fatal("empty voice accepted")
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("invalid input reached the API %d times", n)
	}
}

func TestVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/voices" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get(headerAPIKey); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"voices": [
			{"voice_id": "v1", "name": "Ava", "description": "warm"},
			{"voice_id": "v2", "name": "Atlas"}
		]}`)
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	voices, err := s.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	want := []pipeline.Voice{
		{ID: "v1", Name: "Ava", Description: "warm"},
		{ID: "v2", Name: "Atlas"},
	}
	if len(voices) != len(want) {
		t.Fatalf("got %d voices, want %d", len(voices), len(want))
	}
	for i := range want {
		if voices[i] != want[i] {
			t.Errorf("voice %d = %+v, want %+v", i, voices[i], want[i])
		}
	}
}

func TestVoicesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail": {"status": "forbidden", "message": "missing permission"}}`)
	}))
	defer srv.Close()

	s, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Voices(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"missing api key":  func(c *Config) { c.APIKey = "" },
		"missing base url": func(c *Config) { c.BaseURL = "" },
		"missing model":    func(c *Config) { c.Model = "" },
		"zero timeout":     func(c *Config) { c.Timeout = 0 },
		"zero rpm":         func(c *Config) { c.RequestsPerMinute = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.APIKey = "k"
			mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}
