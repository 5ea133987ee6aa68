package audio

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Track is a decoded mono audio track. Samples are normalized to
// [-1, 1] regardless of the source bit depth.
type Track struct {
	SampleRate int
	Samples    []float64
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t.SampleRate == 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Slice returns the [startSec, endSec) portion of the track. Bounds are
// clamped to the track; the returned Track shares the backing array.
func (t *Track) Slice(startSec, endSec float64) *Track {
	start := int(startSec * float64(t.SampleRate))
	end := int(endSec * float64(t.SampleRate))
	if start < 0 {
		start = 0
	}
	if end > len(t.Samples) {
		end = len(t.Samples)
	}
	if start > end {
		start = end
	}
	return &Track{SampleRate: t.SampleRate, Samples: t.Samples[start:end]}
}

// LoudnessDB returns the RMS loudness in dBFS. Digital silence (or an
// empty slice) yields -Inf.
func (t *Track) LoudnessDB() float64 {
	if len(t.Samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range t.Samples {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(t.Samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// DecodeWAV loads a PCM WAV file into a Track. Multi-channel input is
// downmixed by averaging.
func DecodeWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, fmt.Errorf("decode wav: missing format chunk")
	}

	channels := buf.Format.NumChannels
	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth != 0 {
		bitDepth = buf.SourceBitDepth
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var acc float64
		for ch := 0; ch < channels; ch++ {
			acc += float64(buf.Data[i*channels+ch])
		}
		samples[i] = acc / float64(channels) / scale
	}

	return &Track{SampleRate: buf.Format.SampleRate, Samples: samples}, nil
}

// EncodeWAV serializes the track as 16-bit PCM WAV bytes, the payload
// format sent to the inference service.
func (t *Track) EncodeWAV() ([]byte, error) {
	tmp, err := os.CreateTemp("", "caption-clip-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	enc := wav.NewEncoder(tmp, t.SampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: t.SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(t.Samples)),
	}
	for i, s := range t.Samples {
		v := int(math.Round(s * 32767))
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		buf.Data[i] = v
	}
	if err := enc.Write(buf); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	return os.ReadFile(tmp.Name())
}
