// Package dither implements the final output stage: TPDF dither, Shibata
// noise shaping, logarithmic-volume application and quantization (§4.8).
package dither

import (
	"math"
	"math/rand"

	"github.com/dialtone/connectcore/internal/ringbuf"
	"github.com/dialtone/connectcore/internal/volume"
)

// SampleFormat identifies the destination DAC's sample representation,
// which picks a default dac-bits value (§4.8).
type SampleFormat int

const (
	FormatI8 SampleFormat = iota
	FormatU8
	FormatI16
	FormatU16
	FormatI32
	FormatU32
	FormatI64
	FormatU64
	FormatFloat
)

// defaultDACBits returns the format's default bit resolution, or (0, false)
// for float (which disables dithering unless overridden).
func defaultDACBits(f SampleFormat) (float64, bool) {
	switch f {
	case FormatI8, FormatU8:
		return 7, true
	case FormatI16, FormatU16:
		return 15.5, true
	case FormatI32, FormatU32:
		return 19.5, true
	case FormatI64, FormatU64:
		return 24, true
	default:
		return 0, false
	}
}

// formatBitWidth is the actual bit width of the format, used to clamp a
// user-supplied dac-bits override.
func formatBitWidth(f SampleFormat) float64 {
	switch f {
	case FormatI8, FormatU8:
		return 8
	case FormatI16, FormatU16:
		return 16
	case FormatI32, FormatU32:
		return 32
	case FormatI64, FormatU64:
		return 64
	default:
		return 64
	}
}

// Quantize truncates x to a multiple of q, compensating truncation bias for
// negative values (§4.8, §8 property 8).
func Quantize(x, q float64) float64 {
	if q <= 0 {
		return x
	}
	t := math.Trunc(x/q+0.5) * q
	if x < 0 {
		return t - q
	}
	return t
}

// Config configures a Sink's dithering/noise-shaping behavior.
type Config struct {
	Format          SampleFormat
	DACBitsOverride *float64 // user-supplied override, clamped to format width
	NoiseShaping    Profile  // 0..7
}

// Sink is the per-channel-count-agnostic final stage: it applies dither,
// optional noise shaping, quantization, and volume to one channel's worth
// of samples at a time. A Sink owns one error-history ring buffer per
// channel.
type Sink struct {
	cfg         Config
	trackBits   int
	sampleRate  int
	dacBits     float64
	hasDAC      bool
	coefficients []float64
	history     []*ringbuf.Buffer // one per channel
	vol         *volume.Atom
	rng         *rand.Rand
}

// NewSink builds a Sink for a stream with the given track bit depth,
// sample rate and channel count.
func NewSink(cfg Config, trackBits, sampleRate, channels int, vol *volume.Atom) *Sink {
	dacBits, hasDAC := defaultDACBits(cfg.Format)
	if cfg.DACBitsOverride != nil {
		width := formatBitWidth(cfg.Format)
		v := *cfg.DACBitsOverride
		if v > width {
			v = width
		}
		if v < 0 {
			v = 0
		}
		dacBits = v
		hasDAC = cfg.Format != FormatFloat || cfg.DACBitsOverride != nil
	}

	s := &Sink{
		cfg:        cfg,
		trackBits:  trackBits,
		sampleRate: sampleRate,
		dacBits:    dacBits,
		hasDAC:     hasDAC,
		vol:        vol,
		rng:        rand.New(rand.NewSource(1)),
	}

	_, coef := Select(cfg.NoiseShaping, sampleRate)
	s.coefficients = coef
	s.history = make([]*ringbuf.Buffer, channels)
	for i := range s.history {
		s.history[i] = ringbuf.New(len(coef))
	}

	s.publishQuantStep()
	return s
}

// effectiveBits computes clamp(min(trackBits, dacBits + log2(volume)), 6, trackBits).
func (s *Sink) effectiveBits(volumePercent float64) float64 {
	if !s.hasDAC {
		return float64(s.trackBits)
	}
	volTerm := s.dacBits
	if volumePercent > 0 {
		volTerm = s.dacBits + math.Log2(volumePercent)
	} else {
		volTerm = s.dacBits - 64 // effectively -inf, clamped below anyway
	}
	bits := math.Min(float64(s.trackBits), volTerm)
	if bits < 6 {
		bits = 6
	}
	if bits > float64(s.trackBits) {
		bits = float64(s.trackBits)
	}
	return bits
}

// QuantStep computes the current quantization step for the given
// user-facing volume percentage (§4.8).
func (s *Sink) QuantStep(volumePercent float64) (float64, bool) {
	if !s.hasDAC {
		return 0, false
	}
	bits := s.effectiveBits(volumePercent)
	return 1 / math.Pow(2, bits-1), true
}

// publishQuantStep stores the quantization step for full (100%) volume in
// the Atom; NewSink calls it once to seed the initial value, and later
// steps are published by the volume package's Ramp, which handles the
// ordering guarantee.
func (s *Sink) publishQuantStep() {
	step, ok := s.QuantStep(1.0)
	s.vol.StoreQuantStep(step, ok)
}

// Process applies dither + optional noise shaping + quantization + volume
// to one sample on the given channel index, returning the output sample.
func (s *Sink) Process(channel int, sample float32) float32 {
	v := s.vol.Amplitude()
	q, ok := s.vol.QuantStep()
	out := float64(sample)

	if ok && q > 0 {
		// Triangular-PDF dither: sum of two independent uniforms in [0,1)
		// yields a triangular distribution in (-q, q).
		dither := (s.rng.Float64() + s.rng.Float64() - 1) * q

		if len(s.coefficients) > 0 && channel < len(s.history) {
			hist := s.history[channel]
			var filtered float64
			for i, c := range s.coefficients {
				if i >= hist.Len() {
					break
				}
				filtered += c * float64(hist.Get(i))
			}
			shaped := out + filtered + 0.5*dither
			quantized := Quantize(shaped, q)
			hist.Push(float32(quantized - shaped))
			out = quantized
		} else {
			out = Quantize(out+dither, q)
		}
		out += 0.5 * q
	}

	out *= v
	return float32(out)
}

// ResetHistory clears all per-channel error history (called on seek, §4.8).
func (s *Sink) ResetHistory() {
	for i, h := range s.history {
		s.history[i] = ringbuf.New(h.Len())
	}
}
