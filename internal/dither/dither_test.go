package dither

import (
	"math"
	"testing"

	"github.com/dialtone/connectcore/internal/volume"
)

func TestQuantizeSymmetry(t *testing.T) {
	q := 0.01
	for _, x := range []float64{0.37, -0.37, 1.0, -1.0, 0.0049, -0.0049} {
		got := Quantize(x, q)
		if math.Abs(got) > math.Abs(x)+q+1e-9 {
			t.Fatalf("Quantize(%v, %v) = %v exceeds |x|+q", x, q, got)
		}
	}
}

func TestQuantizeNegationOffByOneStep(t *testing.T) {
	q := 0.02
	for _, x := range []float64{0.123, 0.5, 0.0199} {
		pos := Quantize(x, q)
		neg := Quantize(-x, q)
		diff := math.Abs(-pos - neg)
		if diff > q+1e-9 {
			t.Fatalf("Quantize(-%v,q)=%v, -Quantize(%v,q)=%v differ by %v > q", x, neg, x, pos, diff)
		}
	}
}

func TestSelectClampsHighProfileToLowRate(t *testing.T) {
	p, coef := Select(7, 22050)
	if p > 2 {
		t.Fatalf("profile 7 at 22050Hz should clamp to <=2, got %v", p)
	}
	if p != 0 && coef == nil {
		t.Fatalf("non-zero profile must carry coefficients")
	}
}

func TestSelectForcesZeroAtUnsupportedRate(t *testing.T) {
	p, coef := Select(4, 12345)
	if p != 0 || coef != nil {
		t.Fatalf("unsupported rate must force profile 0, got %v %v", p, coef)
	}
}

func TestEffectiveBitsFloor(t *testing.T) {
	vol := volume.NewAtom()
	s := NewSink(Config{Format: FormatI16}, 16, 44100, 2, vol)
	bits := s.effectiveBits(0.0001) // near-silent volume
	if bits < 6 {
		t.Fatalf("effective bits floor violated: got %v, want >= 6", bits)
	}
}

func TestSilenceStaysSilent(t *testing.T) {
	vol := volume.NewAtom()
	s := NewSink(Config{Format: FormatI16, NoiseShaping: 2}, 16, 44100, 2, vol)
	// Zero amplitude: dither and noise shaping still run, but the output is
	// scaled by the zero amplitude.
	vol.StoreAmplitude(0)
	for i := 0; i < 100; i++ {
		out := s.Process(0, 0)
		if out != 0 {
			t.Fatalf("sample %d: expected 0 at zero amplitude, got %v", i, out)
		}
	}
}
