package normalize

import "testing"

func TestSilenceNeverDrifts(t *testing.T) {
	l := New(DefaultParams(1.0), 44100, 2)
	frame := []float32{0, 0}
	for i := 0; i < 1000; i++ {
		l.ProcessFrame(frame)
		if frame[0] != 0 || frame[1] != 0 {
			t.Fatalf("sample %d: silence produced non-zero output %v", i, frame)
		}
	}
	for ch := range l.channels {
		if l.channels[ch].integrator > 0 || l.channels[ch].peak > 0 {
			t.Fatalf("channel %d envelope drifted on silence: %+v", ch, l.channels[ch])
		}
	}
}

func TestTargetGainDifferenceReplayGain(t *testing.T) {
	rg := 2.0
	diff, ok := TargetGainDifference(-15, nil, &rg)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if diff < 4.999 || diff > 5.001 {
		t.Fatalf("diff = %v, want ~5", diff)
	}
	if !ShouldLimit(diff) {
		t.Fatal("expected limiter to engage for 5dB difference")
	}
}

func TestTargetGainDifferenceNative(t *testing.T) {
	gain := -12.0
	diff, ok := TargetGainDifference(-14, &gain, nil)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if diff != -2 {
		t.Fatalf("diff = %v, want -2", diff)
	}
}
