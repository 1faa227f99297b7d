package loudness

import "math"

// BandKind distinguishes the filter topology used per band (§4.7).
type BandKind int

const (
	LowShelf BandKind = iota
	Peaking
	HighShelf
)

// bandSpec is one of the six fixed bands of the equal-loudness filter bank.
type bandSpec struct {
	freq float64
	q    float64
	kind BandKind
}

// Bands are the six center frequencies/Q factors/topologies fixed by the
// design (§4.7): band 0 is a low shelf, band 5 a high shelf, bands 1-4
// peaking EQ.
var Bands = []bandSpec{
	{30, 0.707, LowShelf},
	{100, 1.0, Peaking},
	{500, 1.414, Peaking},
	{2000, 1.2, Peaking},
	{6000, 1.5, Peaking},
	{12000, 0.707, HighShelf},
}

// biquadCoeffs holds one RBJ-style biquad's normalized (a0=1) coefficients.
type biquadCoeffs struct {
	b0, b1, b2, a1, a2 float64
}

// biquadState holds one channel's direct-form-II-transposed state.
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(c biquadCoeffs, x float64) float64 {
	y := c.b0*x + s.z1
	s.z1 = c.b1*x + s.z2 - c.a1*y
	s.z2 = c.b2*x - c.a2*y
	return y
}

// computeCoeffs builds the RBJ biquad for a band at the given sample rate
// and gain in dB.
func computeCoeffs(b bandSpec, sampleRate, gainDB float64) biquadCoeffs {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * b.freq / sampleRate
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * b.q)

	var b0, b1, b2, a0, a1, a2 float64

	switch b.kind {
	case Peaking:
		b0 = 1 + alpha*a
		b1 = -2 * cosw0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosw0
		a2 = 1 - alpha/a
	case LowShelf:
		sq := math.Sqrt(a)
		b0 = a * ((a + 1) - (a-1)*cosw0 + 2*sq*alpha)
		b1 = 2 * a * ((a - 1) - (a+1)*cosw0)
		b2 = a * ((a + 1) - (a-1)*cosw0 - 2*sq*alpha)
		a0 = (a + 1) + (a-1)*cosw0 + 2*sq*alpha
		a1 = -2 * ((a - 1) + (a+1)*cosw0)
		a2 = (a + 1) + (a-1)*cosw0 - 2*sq*alpha
	case HighShelf:
		sq := math.Sqrt(a)
		b0 = a * ((a + 1) + (a-1)*cosw0 + 2*sq*alpha)
		b1 = -2 * a * ((a - 1) + (a+1)*cosw0)
		b2 = a * ((a + 1) + (a-1)*cosw0 - 2*sq*alpha)
		a0 = (a + 1) - (a-1)*cosw0 + 2*sq*alpha
		a1 = 2 * ((a - 1) - (a+1)*cosw0)
		a2 = (a + 1) - (a-1)*cosw0 - 2*sq*alpha
	}

	return biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// Filter is the six-band equal-loudness compensation filter bank for one
// channel count.
type Filter struct {
	sampleRate float64
	volume     float64
	lufsTarget float64
	coeffs     [6]biquadCoeffs
	states     [][6]biquadState // one set of 6 states per channel
	hasCoeffs  bool
}

// New builds a Filter for the given sample rate and channel count. It has
// no coefficients until the first SetVolume call.
func New(sampleRate float64, channels int) *Filter {
	return &Filter{
		sampleRate: sampleRate,
		states:     make([][6]biquadState, channels),
	}
}

// SetVolume recomputes coefficients for a new volume/target combination,
// unless the change is within epsilon of the current settings (§4.7:
// "recomputed on every non-trivial volume change").
func (f *Filter) SetVolume(volume, lufsTarget float64) {
	const eps = 1e-6
	if f.hasCoeffs && math.Abs(volume-f.volume) < eps && math.Abs(lufsTarget-f.lufsTarget) < eps {
		return
	}
	f.volume = volume
	f.lufsTarget = lufsTarget
	for i, b := range Bands {
		gain := BandGainDB(b.freq, volume, lufsTarget)
		f.coeffs[i] = computeCoeffs(b, f.sampleRate, gain)
	}
	f.hasCoeffs = true
}

// Process filters one sample on the given channel through all six bands in
// series.
func (f *Filter) Process(channel int, sample float32) float32 {
	if !f.hasCoeffs || channel >= len(f.states) {
		return sample
	}
	x := float64(sample)
	st := &f.states[channel]
	for i, c := range f.coeffs {
		x = st[i].process(c, x)
	}
	return float32(x)
}

// Reset clears filter states but preserves coefficients (§4.7: "Seek resets
// filter states but preserves coefficients").
func (f *Filter) Reset() {
	for i := range f.states {
		f.states[i] = [6]biquadState{}
	}
}
