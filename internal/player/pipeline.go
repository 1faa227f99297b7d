package player

import (
	"sync/atomic"
	"time"

	"github.com/dialtone/connectcore/internal/decoder"
	"github.com/dialtone/connectcore/internal/dither"
	"github.com/dialtone/connectcore/internal/loudness"
	"github.com/dialtone/connectcore/internal/normalize"
	"github.com/dialtone/connectcore/internal/volume"
)

// Pipeline is one loaded track's signal chain (§4.2.2): decoder output,
// optionally a gain-difference limiter, optionally an equal-loudness
// filter, and finally dither + volume + noise-shaping before the samples
// reach the output device.
type Pipeline struct {
	dec *decoder.Decoder

	limiter    *normalize.Limiter
	loud       *loudness.Filter
	ditherer   *dither.Sink
	targetLUFS float64

	channels int
	frame    []float32 // one sample per channel, filled before limiting
	frameLen int        // valid samples currently in frame
	frameAt  int        // next unread index in frame

	framesPlayed atomic.Int64 // advanced once per frame, read cross-goroutine for progress reporting
}

// PipelineConfig controls which optional stages are built, mirroring the
// player/session configuration that gates each stage (§4.2.2).
type PipelineConfig struct {
	NormalizeEnabled bool
	LoudnessEnabled  bool
	TargetLUFS       float64
	NativeGainDB     *float64
	ReplayGainDB     *float64

	DitherCfg  dither.Config
	TrackBits  int
	VolumeAtom *volume.Atom

	// VolumePercent is the user-facing volume in effect when this pipeline
	// is built, used to seed the loudness filter's coefficients and the
	// dither quantization step before the first explicit SetVolume call
	// (§4.7, §4.8).
	VolumePercent float64
}

// NewPipeline builds the per-track chain atop an already-open decoder.
func NewPipeline(dec *decoder.Decoder, cfg PipelineConfig) *Pipeline {
	p := &Pipeline{dec: dec, channels: dec.Channels(), frame: make([]float32, dec.Channels())}

	if cfg.NormalizeEnabled {
		if diff, ok := normalize.TargetGainDifference(cfg.TargetLUFS, cfg.NativeGainDB, cfg.ReplayGainDB); ok {
			if normalize.ShouldLimit(diff) {
				params := normalize.DefaultParams(normalize.RatioFromDB(diff))
				p.limiter = normalize.New(params, dec.SampleRate(), dec.Channels())
			}
			// A difference under 1dB builds no stage: no limiter is created
			// and the difference is not applied, so the track plays at the
			// user volume the atom carries.
		}
	}

	p.targetLUFS = cfg.TargetLUFS
	if cfg.LoudnessEnabled {
		p.loud = loudness.New(float64(dec.SampleRate()), dec.Channels())
		p.loud.SetVolume(cfg.VolumePercent, cfg.TargetLUFS)
	}

	p.ditherer = dither.NewSink(cfg.DitherCfg, cfg.TrackBits, dec.SampleRate(), dec.Channels(), cfg.VolumeAtom)
	if step, ok := p.ditherer.QuantStep(cfg.VolumePercent); cfg.VolumeAtom != nil {
		cfg.VolumeAtom.StoreQuantStep(step, ok)
	}

	return p
}

// SetVolume recomputes the pipeline's volume-dependent stages — the
// equal-loudness filter's coefficients and the dither quantization step —
// for a new user-facing percentage (§4.7, §4.8). The caller is responsible
// for publishing the returned step to the shared volume atom, quantStep
// first, so a reader never observes a stale step paired with a new
// amplitude (§5).
func (p *Pipeline) SetVolume(percent float64) (quantStep float64, quantStepOK bool) {
	if p.loud != nil {
		p.loud.SetVolume(percent, p.targetLUFS)
	}
	return p.ditherer.QuantStep(percent)
}

// NextSample pulls, processes, and returns the next interleaved sample.
// ok is false once the decoder is exhausted or has failed.
func (p *Pipeline) NextSample() (sample float32, ok bool) {
	if p.frameAt >= p.frameLen {
		if !p.fillFrame() {
			return 0, false
		}
	}

	ch := p.frameAt
	s := p.frame[ch]
	p.frameAt++

	if p.loud != nil {
		s = p.loud.Process(ch, s)
	}
	s = p.ditherer.Process(ch, s)

	return s, true
}

// fillFrame pulls one sample per channel from the decoder into p.frame and
// runs the coupled limiter over the full frame (§4.6 "coupled across
// channels"). Returns false once the decoder can't produce a full frame.
func (p *Pipeline) fillFrame() bool {
	for ch := 0; ch < p.channels; ch++ {
		s, ok := p.dec.NextSample()
		if !ok {
			return false
		}
		p.frame[ch] = s
	}
	if p.limiter != nil {
		p.limiter.ProcessFrame(p.frame)
	}
	p.frameLen = p.channels
	p.frameAt = 0
	p.framesPlayed.Add(1)
	return true
}

// Elapsed returns how much of the track has been played, derived from
// frames actually pulled through the pipeline rather than from download
// progress (§4.1.8).
func (p *Pipeline) Elapsed() time.Duration {
	sr := p.dec.SampleRate()
	if sr <= 0 {
		return 0
	}
	return time.Duration(p.framesPlayed.Load()) * time.Second / time.Duration(sr)
}

// Err surfaces the underlying decoder's terminal error, if any.
func (p *Pipeline) Err() error { return p.dec.Err() }

// Close releases the decoder and its underlying stream.
func (p *Pipeline) Close() error { return p.dec.Close() }

// SampleRate and Channels mirror the decoder's negotiated format.
func (p *Pipeline) SampleRate() int { return p.dec.SampleRate() }
func (p *Pipeline) Channels() int   { return p.channels }

// Seek delegates to the decoder, resetting the dither/loudness/limiter
// channel history so quantization noise doesn't carry a discontinuity
// across the seek point.
func (p *Pipeline) Seek(target time.Duration) error {
	if err := p.dec.Seek(target); err != nil {
		return err
	}
	p.frameLen = 0
	p.frameAt = 0
	p.framesPlayed.Store(int64(target * time.Duration(p.dec.SampleRate()) / time.Second))
	if p.limiter != nil {
		p.limiter.Reset()
	}
	if p.loud != nil {
		p.loud.Reset()
	}
	p.ditherer.ResetHistory()
	return nil
}
