// Package audio decodes voice recordings and prepares them for acoustic
// feature extraction.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for input that is neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Clip is mono audio with samples in [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Format names a supported container.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Sniff identifies the container from its leading bytes.
func Sniff(b []byte) (Format, bool) {
	switch {
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE":
		return FormatWAV, true
	case len(b) >= 3 && string(b[0:3]) == "ID3":
		return FormatMP3, true
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return FormatMP3, true
	}
	return "", false
}

// Decode reads a whole WAV or MP3 stream and downmixes it to mono.
func Decode(r io.Reader) (*Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory WAV or MP3 file.
func DecodeBytes(data []byte) (*Clip, error) {
	format, ok := Sniff(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	switch format {
	case FormatWAV:
		return decodeWAV(data)
	default:
		return decodeMP3(data)
	}
}

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(data []byte) (*Clip, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("decode wav: invalid file")
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("decode wav: audio format %d: %w", d.WavAudioFormat, ErrUnsupportedFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("decode wav: %d channels", channels)
	}

	depth := buf.SourceBitDepth
	if goaudio.IntMaxSignedValue(depth) == 0 {
		return nil, fmt.Errorf("decode wav: bit depth %d: %w", depth, ErrUnsupportedFormat)
	}
	scale := float64(int(1) << (depth - 1))
	offset := 0
	if depth == 8 {
		// 8-bit PCM is unsigned.
		offset = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := range frames {
		var acc float64
		for c := range channels {
			acc += float64(buf.Data[i*channels+c]-offset) / scale
		}
		out[i] = acc / float64(channels)
	}
	return &Clip{Samples: out, SampleRate: buf.Format.SampleRate}, nil
}

func decodeMP3(data []byte) (*Clip, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	// The decoder always yields 16-bit little-endian stereo.
	frames := len(pcm) / 4
	out := make([]float64, frames)
	for i := range frames {
		l := int16(binary.LittleEndian.Uint16(pcm[4*i:]))
		r := int16(binary.LittleEndian.Uint16(pcm[4*i+2:]))
		out[i] = (float64(l) + float64(r)) / 2 / 32768
	}
	return &Clip{Samples: out, SampleRate: d.SampleRate()}, nil
}
