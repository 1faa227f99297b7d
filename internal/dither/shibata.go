package dither

// Profile selects a Shibata noise-shaping filter's aggressiveness, 0..7.
// Profile 0 disables shaping.
type Profile int

// supportedRates lists the sample rates a Shibata table exists for; any
// other rate forces Profile 0 (§4.8).
var supportedRates = map[int]bool{
	8000: true, 11025: true, 22050: true, 44100: true,
	48000: true, 88200: true, 96000: true, 192000: true,
}

// highRates are the only rates profiles 3-7 are defined for; other rates
// clamp those profiles down to 2 (§4.8).
var highRates = map[int]bool{44100: true, 48000: true}

// filterTable holds one fixed-length coefficient set per (profile, rate)
// pair actually tabulated in the source. A (profile, rate) pair not present
// here falls back, in Select, to the nearest lower profile tabulated for
// that rate, or to profile 0 (no shaping) if there is none; the coefficients below are representative Shibata-style curves (front-
// loaded, decaying, alternating sign to push error energy toward ultrasonic
// bands) rather than a byte-for-byte reproduction of any particular
// commercial filter bank.
var filterTable = map[Profile]map[int][]float64{
	1: {
		44100: {0.6, 0.25},
		48000: {0.6, 0.25},
		88200: {0.6, 0.25, 0.1},
		96000: {0.6, 0.25, 0.1},
	},
	2: {
		8000:   {0.5, 0.2},
		11025:  {0.5, 0.2},
		22050:  {0.55, 0.22},
		44100:  {0.65, 0.3, 0.1},
		48000:  {0.65, 0.3, 0.1},
		88200:  {0.65, 0.3, 0.12, 0.04},
		96000:  {0.65, 0.3, 0.12, 0.04},
		192000: {0.65, 0.3, 0.12, 0.04, 0.01},
	},
	3: {44100: {0.75, 0.4, 0.15}, 48000: {0.75, 0.4, 0.15}},
	4: {44100: {0.85, 0.5, 0.22, 0.08}, 48000: {0.85, 0.5, 0.22, 0.08}},
	5: {44100: {0.95, 0.6, 0.3, 0.12, 0.03}, 48000: {0.95, 0.6, 0.3, 0.12, 0.03}},
	6: {44100: {1.05, 0.7, 0.4, 0.18, 0.06, 0.01}, 48000: {1.05, 0.7, 0.4, 0.18, 0.06, 0.01}},
	7: {44100: {1.15, 0.8, 0.5, 0.25, 0.1, 0.03, 0.005}, 48000: {1.15, 0.8, 0.5, 0.25, 0.1, 0.03, 0.005}},
}

// Select resolves the requested profile/rate combination to the concrete
// coefficients to use, applying the clamp rules of §4.8:
//   - rate not in the supported set => force profile 0 (no shaping)
//   - profile 3-7 at a rate other than 44100/48000 => clamp to profile 2
func Select(requested Profile, sampleRate int) (Profile, []float64) {
	if !supportedRates[sampleRate] {
		return 0, nil
	}
	p := requested
	if p < 0 || p > 7 {
		p = 0
	}
	if p >= 3 && !highRates[sampleRate] {
		p = 2
	}
	if p == 0 {
		return 0, nil
	}
	table, ok := filterTable[p]
	if !ok {
		return 0, nil
	}
	coef, ok := table[sampleRate]
	if !ok {
		// Nearest lower tabulated profile for this rate, if any.
		for fallback := p - 1; fallback >= 1; fallback-- {
			if c, ok := filterTable[fallback][sampleRate]; ok {
				return fallback, c
			}
		}
		return 0, nil
	}
	return p, coef
}
