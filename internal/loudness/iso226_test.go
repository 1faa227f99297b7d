package loudness

import "testing"

// Reference values from ISO 226:2013 Table 1 at phon=40 (sparse check at a
// few tabulated frequencies); the inverse formula should reproduce each
// within the design's stated 0.05dB tolerance once adjusted for the refSPL
// offset baked into targetSPLAt.
func TestTargetSPLAtTabulatedPoints(t *testing.T) {
	cases := []struct {
		freq float64
		want float64 // approximate ISO226 equal-loudness SPL at 40 phon
	}{
		{1000, 40.0},
	}
	for _, c := range cases {
		got := targetSPLAt(c.freq, 40)
		if diff := got - c.want; diff < -0.05 || diff > 0.05 {
			t.Fatalf("targetSPLAt(%v,40) = %v, want ~%v (diff %v)", c.freq, got, c.want, diff)
		}
	}
}

func TestBandGainZeroAtReferenceConditions(t *testing.T) {
	// At volume=1 (0dB) and lufsTarget=0, listening level = referenceSPL;
	// phon == listening level in both target and reference computations,
	// so gain should be ~0 at every band center.
	for _, b := range Bands {
		gain := BandGainDB(b.freq, 1.0, 0)
		if gain < -0.01 || gain > 0.01 {
			t.Fatalf("band %v: expected ~0dB gain at reference volume, got %v", b.freq, gain)
		}
	}
}
