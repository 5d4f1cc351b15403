// Package audio reads and writes the WAV files that engines ship as voice
// references. A Codec is picked once at startup with Select.
package audio

import (
	"fmt"
	"sort"
	"time"
)

// Clip holds interleaved float samples in [-1, 1].
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of samples per channel.
func (c Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Codec decodes and encodes audio files.
type Codec interface {
	Name() string
	Decode(path string) (Clip, error)
	Encode(path string, c Clip) error
}

// Codec names accepted by Select.
const (
	FloatWAV = "wav-float32"
	PCM16WAV = "wav-pcm16"
)

var codecs = map[string]Codec{
	FloatWAV: wavCodec{name: FloatWAV, format: formatFloat, bits: 32},
	PCM16WAV: wavCodec{name: PCM16WAV, format: formatPCM, bits: 16},
}

// Select returns the codec registered under name. An empty name selects
// FloatWAV.
func Select(name string) (Codec, error) {
	if name == "" {
		name = FloatWAV
	}
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (valid: %v)", name, Names())
	}
	return c, nil
}

// Names lists the registered codec names, sorted.
func Names() []string {
	out := make([]string, 0, len(codecs))
	for n := range codecs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
