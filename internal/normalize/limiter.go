// Package normalize implements the feed-forward limiter used to apply
// ReplayGain/target-gain normalization without clipping (§4.6).
package normalize

import "math"

const minPositive = 1e-12

// Params configures a Limiter (§4.6).
type Params struct {
	InitialRatio float64 // pre-gain applied before limiting
	ThresholdDB  float64 // default -1
	KneeWidthDB  float64 // default 4
	AttackMs     float64 // default 5
	ReleaseMs    float64 // default 100
}

// DefaultParams returns the spec's default limiter parameters with the
// given initial (pre-)gain ratio.
func DefaultParams(initialRatio float64) Params {
	return Params{
		InitialRatio: initialRatio,
		ThresholdDB:  -1,
		KneeWidthDB:  4,
		AttackMs:     5,
		ReleaseMs:    100,
	}
}

type channelState struct {
	integrator float64
	peak       float64
}

// Limiter applies per-sample gain reduction decoupled per channel for
// envelope detection, coupled across channels for the actual gain applied
// (§4.6).
type Limiter struct {
	params       Params
	sampleRate   int
	attackCoef   float64
	releaseCoef  float64
	channels     []channelState
}

// New builds a Limiter for the given sample rate and channel count.
func New(params Params, sampleRate, channels int) *Limiter {
	l := &Limiter{
		params:     params,
		sampleRate: sampleRate,
		channels:   make([]channelState, channels),
	}
	l.attackCoef = math.Exp(-1 / (params.AttackMs / 1000 * float64(sampleRate)))
	l.releaseCoef = math.Exp(-1 / (params.ReleaseMs / 1000 * float64(sampleRate)))
	return l
}

// reductionDB computes the soft-knee gain reduction in dB for one sample's
// bias relative to the threshold (§4.6 step 3).
func (l *Limiter) reductionDB(biasDB float64) float64 {
	knee := l.params.KneeWidthDB
	twice := 2 * biasDB
	switch {
	case twice < -knee:
		return 0
	case math.Abs(twice) <= knee:
		return (twice + knee) * (twice + knee) / (8 * knee)
	default:
		return biasDB
	}
}

// ProcessFrame processes one frame (one sample per channel) in place,
// applying initial ratio, per-channel envelope detection, and the coupled
// gain reduction (§4.6 steps 1-5).
func (l *Limiter) ProcessFrame(frame []float32) {
	n := len(frame)
	if n > len(l.channels) {
		n = len(l.channels)
	}

	maxPeak := 0.0
	for ch := 0; ch < n; ch++ {
		s := float64(frame[ch]) * l.params.InitialRatio
		frame[ch] = float32(s)

		biasDB := 20*math.Log10(math.Abs(s)+minPositive) - l.params.ThresholdDB
		red := l.reductionDB(biasDB)

		cs := &l.channels[ch]
		cs.integrator = math.Max(red, l.releaseCoef*cs.integrator+(1-l.releaseCoef)*red)
		cs.peak = l.attackCoef*cs.peak + (1-l.attackCoef)*cs.integrator
		if cs.peak > maxPeak {
			maxPeak = cs.peak
		}
	}

	gain := math.Pow(10, -maxPeak/20)
	for ch := 0; ch < n; ch++ {
		frame[ch] = float32(float64(frame[ch]) * gain)
	}
}

// Reset zeroes every channel's integrator and peak (called on seek, §4.6).
func (l *Limiter) Reset() {
	for i := range l.channels {
		l.channels[i] = channelState{}
	}
}

// TargetGainDifference computes the dB difference a track's normalization
// pipeline should apply, from either a native per-track gain or a decoder
// ReplayGain tag (§4.2.2).
//
// If hasNativeGain, difference = targetDB - nativeGainDB.
// Otherwise, with a ReplayGain tag: trackLUFS = -18 - replayGainDB;
// difference = targetDB - trackLUFS.
func TargetGainDifference(targetDB float64, nativeGainDB *float64, replayGainDB *float64) (diff float64, ok bool) {
	if nativeGainDB != nil {
		return targetDB - *nativeGainDB, true
	}
	if replayGainDB != nil {
		trackLUFS := -18 - *replayGainDB
		return targetDB - trackLUFS, true
	}
	return 0, false
}

// ShouldLimit reports whether the gain difference is large enough to run
// the limiter pipeline rather than a plain attenuation (§4.2.2: "attenuate
// if difference < 1dB, else apply limiter").
func ShouldLimit(diffDB float64) bool {
	return math.Abs(diffDB) >= 1
}

// RatioFromDB converts a dB difference into a linear amplitude ratio.
func RatioFromDB(diffDB float64) float64 {
	return math.Pow(10, diffDB/20)
}
