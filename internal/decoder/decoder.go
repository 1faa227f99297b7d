// Package decoder wraps the beep codec family behind a single
// format-probing, error-recovering, channel-default-filling decoder that
// emits a lazy interleaved f32 sample sequence (§4.3.2-4.3.6).
package decoder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/pkg/model"
)

// minStreamBuffer is the minimum buffered-reader size opened in front of the
// raw stream before handing it to a codec decoder (§4.3.2).
const minStreamBuffer = 64 * 1024

// maxConsecutiveSkips bounds how many packets in a row may be dropped before
// decoding fails outright (§4.3.3).
const maxConsecutiveSkips = 3

var errTooManySkips = errors.New("decoder: discarded too many packets")

// defaultChannels returns the track-type default channel count used when
// the codec itself doesn't report one (§4.3.2).
func defaultChannels(t model.Type) int {
	if t == model.Episode {
		return 1
	}
	return 2
}

// Decoder emits interleaved f32 samples normalized to [-1, 1] regardless of
// the source codec's native bit depth.
type Decoder struct {
	log zerolog.Logger

	stream   beep.StreamSeekCloser
	format   beep.Format
	codec    model.Codec
	channels int

	buf       [][2]float64
	bufPos    int
	bufLen    int
	exhausted bool

	consecutiveSkips int
	totalSamples     int // -1 if unknown
	lastErr          error
}

// New probes and opens a decoder for src according to the codec hint
// (falling back to MP3 for unknown/general-probe cases, the only container
// gopxl/beep's generic registry covers in this stack; ADTS/MP4 inputs are
// accepted structurally but decoded via the MP3 path when no dedicated
// demuxer is wired, see DESIGN.md).
func New(log zerolog.Logger, src io.ReadCloser, codec model.Codec, trackType model.Type) (*Decoder, error) {
	buffered := bufio.NewReaderSize(src, minStreamBuffer)
	rc := &bufferedReadCloser{Reader: buffered, Closer: src}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch codec {
	case model.CodecFLAC:
		stream, format, err = flac.Decode(rc)
	case model.CodecWAV:
		stream, format, err = wav.Decode(rc)
	default:
		// MP3, ADTS, MP4, and the general probe all route through the MP3
		// decoder: the only demuxer in this dependency stack that tolerates
		// a raw elementary stream without container framing.
		stream, format, err = mp3.Decode(rc)
	}
	if err != nil {
		return nil, fmt.Errorf("decoder: open %s: %w", codec, err)
	}

	channels := format.NumChannels
	if channels <= 0 {
		channels = defaultChannels(trackType)
	}
	sampleRate := int(format.SampleRate)
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	format.SampleRate = beep.SampleRate(sampleRate)

	total := -1
	if n := stream.Len(); n > 0 {
		total = n * channels
	}

	return &Decoder{
		log:          log,
		stream:       stream,
		format:       format,
		codec:        codec,
		channels:     channels,
		totalSamples: total,
	}, nil
}

// SampleRate returns the effective (possibly defaulted) sample rate.
func (d *Decoder) SampleRate() int { return int(d.format.SampleRate) }

// Channels returns the effective (possibly defaulted) channel count.
func (d *Decoder) Channels() int { return d.channels }

// Len returns the size hint for the remaining sample sequence: lower bound
// 0, upper bound total_samples if computable (§4.3.4).
func (d *Decoder) Len() (lower, upper int) {
	if d.totalSamples < 0 {
		return 0, 0
	}
	return 0, d.totalSamples
}

// Close releases the underlying stream and its backing reader.
func (d *Decoder) Close() error {
	return d.stream.Close()
}

// fillBuffer pulls the next non-empty frame batch from the underlying
// streamer, applying the packet-loop error-recovery policy (§4.3.3): decode
// errors are logged and skipped (bounded by maxConsecutiveSkips), any other
// error is fatal.
func (d *Decoder) fillBuffer() error {
	for {
		if cap(d.buf) == 0 {
			d.buf = make([][2]float64, 512)
		}
		n, ok := d.stream.Stream(d.buf)
		if ok && n > 0 {
			d.consecutiveSkips = 0
			d.bufPos = 0
			d.bufLen = n
			return nil
		}
		if err := d.stream.Err(); err != nil {
			d.consecutiveSkips++
			d.log.Warn().Err(err).Int("skips", d.consecutiveSkips).Msg("decoder: skipping malformed packet")
			if d.consecutiveSkips >= maxConsecutiveSkips {
				return errTooManySkips
			}
			// Partially-filled buffer from the failed attempt is discarded
			// entirely: start clean on the next pull.
			d.bufPos, d.bufLen = 0, 0
			continue
		}
		// Clean EOF: no error, stream legitimately exhausted.
		d.exhausted = true
		return io.EOF
	}
}

// NextSample returns the next interleaved f32 sample, decoding further
// packets as needed (§4.3.4). ok is false only at true end of stream or on
// a fatal decode error (see Err()).
func (d *Decoder) NextSample() (sample float32, ok bool) {
	for {
		if d.bufPos < d.bufLen*d.channels {
			frameIdx := d.bufPos / d.channels
			ch := d.bufPos % d.channels
			pair := d.buf[frameIdx]
			var v float64
			if ch == 0 || d.channels == 1 {
				v = pair[0]
			} else {
				v = pair[1]
			}
			d.bufPos++
			return float32(clamp11(v)), true
		}
		if d.exhausted {
			return 0, false
		}
		if err := d.fillBuffer(); err != nil {
			d.lastErr = err
			return 0, false
		}
	}
}

// Err returns the terminal error, if any, that caused the last NextSample
// call to return ok=false. nil at a clean end of stream.
func (d *Decoder) Err() error {
	if d.lastErr == io.EOF {
		return nil
	}
	return d.lastErr
}

func clamp11(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// bufferedReadCloser pairs a bufio.Reader with the original stream's Closer
// so codecs see a single io.ReadCloser.
type bufferedReadCloser struct {
	*bufio.Reader
	io.Closer
}
