// Package volume implements the logarithmic volume curve and the
// ramped volume changes the player applies on every volume/skip command
// (§4.2.6), plus the atomic amplitude/quantization-step pair the dither
// sink reads on the audio thread (§4.8, §5).
package volume

import (
	"math"
	"sync/atomic"
	"time"
)

const rampDuration = 50 * time.Millisecond
const rampSteps = 50

// Log converts a 0..1 user-facing percentage into the 0..1 audible
// amplitude using a ~60 dB logarithmic curve with a linear fade to zero
// below 10% (§4.2.6, §8 property 7).
func Log(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	a := math.Exp(math.Log(1000)*v) / 1000
	if v < 0.1 {
		a *= 10 * v
	}
	return a
}

// Atom is the shared amplitude/quantization-step pair the dither sink reads
// on the audio thread while the event loop writes it. Both fields are
// packed as atomic uint32s holding float32 bit patterns so reads/writes
// never tear; quantStep is always stored *before* amplitude so a reader
// can never observe a freshly-raised amplitude paired with a stale
// (too-small) quantStep (§5, §9).
type Atom struct {
	amplitude uint32
	quantStep uint32
}

// NewAtom returns an Atom at full amplitude with no quantization step set.
func NewAtom() *Atom {
	a := &Atom{}
	a.StoreAmplitude(1)
	return a
}

func (a *Atom) Amplitude() float64 {
	return float64(math.Float32frombits(atomic.LoadUint32(&a.amplitude)))
}

func (a *Atom) StoreAmplitude(v float64) {
	atomic.StoreUint32(&a.amplitude, math.Float32bits(float32(v)))
}

func (a *Atom) QuantStep() (step float64, ok bool) {
	bits := atomic.LoadUint32(&a.quantStep)
	if bits == 0 {
		return 0, false
	}
	return float64(math.Float32frombits(bits)), true
}

func (a *Atom) StoreQuantStep(step float64, ok bool) {
	if !ok {
		atomic.StoreUint32(&a.quantStep, 0)
		return
	}
	atomic.StoreUint32(&a.quantStep, math.Float32bits(float32(step)))
}

// SetWithQuantStep publishes a new quantization step and amplitude
// together, in the order required by the concurrency design: quantStep
// first, amplitude second.
func (a *Atom) SetWithQuantStep(amplitude, step float64, stepOK bool) {
	a.StoreQuantStep(step, stepOK)
	a.StoreAmplitude(amplitude)
}

// Ramp applies a logarithmic volume change to dst over 50ms in 50 steps,
// sleeping synchronously between steps (§4.2.6, §5 "accepted because 50ms
// is short and precise timing beats async overhead"). percentFrom/percentTo
// are user-facing 0..1 percentages; quantStep/quantStepOK describe the
// *target* dither step, published together with the final amplitude.
func Ramp(dst *Atom, percentFrom, percentTo float64, quantStep float64, quantStepOK bool) {
	sleep := rampDuration / rampSteps
	for i := 1; i < rampSteps; i++ {
		frac := float64(i) / float64(rampSteps)
		faded := percentFrom*(1-frac) + percentTo*frac
		dst.StoreAmplitude(Log(faded))
		time.Sleep(sleep)
	}
	dst.SetWithQuantStep(Log(percentTo), quantStep, quantStepOK)
}
