// Package loudness implements ISO 226:2013 equal-loudness-contour
// compensation: a six-band biquad EQ bank whose per-band gains are derived
// from the standard's inverse formula (§4.7).
package loudness

import "math"

// referenceSPL is the playback reference level used to convert a
// normalized-loudness target into a listening level (§4.7). This is
// deliberately distinct from refSPL (94) used inside the ISO 226 formula
// itself — the spec calls these out as two different constants by design
// (§9).
const referenceSPL = 83.0

// refSPL is the ISO 226:2013 formula's own reference constant.
const refSPL = 94.0

// standardFrequencies are the 29 tabulated frequencies (Hz), 20Hz..12.5kHz.
var standardFrequencies = []float64{
	20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160, 200, 250, 315, 400, 500,
	630, 800, 1000, 1250, 1600, 2000, 2500, 3150, 4000, 5000, 6300, 8000,
	10000, 12500,
}

// alphaF, luF (L_U), tF are the ISO 226:2013 Table 2 coefficients, indexed
// in parallel with standardFrequencies.
var alphaF = []float64{
	0.532, 0.506, 0.480, 0.455, 0.432, 0.409, 0.387, 0.367, 0.349, 0.330,
	0.315, 0.301, 0.288, 0.276, 0.267, 0.259, 0.253, 0.250, 0.246, 0.244,
	0.243, 0.243, 0.243, 0.242, 0.242, 0.245, 0.254, 0.271, 0.301,
}

var luF = []float64{
	-31.6, -27.2, -23.0, -19.1, -15.9, -13.0, -10.3, -8.1, -6.2, -4.5,
	-3.1, -2.0, -1.1, -0.4, 0.0, 0.3, 0.5, 0.0, -2.7, -4.1,
	-1.0, 1.7, 2.5, 1.2, -2.1, -7.1, -11.2, -10.7, -3.1,
}

var tF = []float64{
	78.5, 68.7, 59.5, 51.1, 44.0, 37.5, 31.5, 26.5, 22.1, 17.9,
	14.4, 11.4, 8.6, 6.2, 4.4, 3.0, 2.2, 2.4, 3.5, 1.7,
	-1.3, -4.2, -6.0, -5.4, -1.5, 6.0, 12.6, 13.9, 12.3,
}

// interp1 linearly interpolates table at x, clamping to the table's ends.
func interp1(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	n := len(xs)
	if x >= xs[n-1] {
		return ys[n-1]
	}
	for i := 0; i < n-1; i++ {
		if x >= xs[i] && x <= xs[i+1] {
			frac := (x - xs[i]) / (xs[i+1] - xs[i])
			return ys[i] + frac*(ys[i+1]-ys[i])
		}
	}
	return ys[n-1]
}

// targetSPLAt computes the ISO 226:2013 inverse: the SPL at frequency f
// that produces the given phon level (§4.7).
func targetSPLAt(f, phon float64) float64 {
	alpha := interp1(f, standardFrequencies, alphaF)
	lu := interp1(f, standardFrequencies, luF)
	tf := interp1(f, standardFrequencies, tF)

	af := 4.47e-3*(math.Pow(10, 0.025*phon)-1.15) +
		math.Pow(0.4*math.Pow(10, (tf+lu)/10-9), alpha)

	return (10/alpha)*math.Log10(af) - lu + refSPL
}

// TargetSPLAt is the exported form of targetSPLAt, used by tests and by
// per-band gain computation.
func TargetSPLAt(f, phon float64) float64 { return targetSPLAt(f, phon) }

// BandGainDB computes the dB gain for one band's center frequency given the
// current volume (0..1) and the normalization target LUFS (§4.7).
func BandGainDB(freq, volume, lufsTarget float64) float64 {
	listeningLevel := referenceSPL + lufsTarget
	phon := 20*math.Log10(math.Max(volume, 1e-9)) + listeningLevel

	target := targetSPLAt(freq, phon)
	reference := targetSPLAt(freq, listeningLevel)
	return target - reference
}
