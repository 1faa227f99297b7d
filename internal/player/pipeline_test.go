package player

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/decoder"
	"github.com/dialtone/connectcore/internal/dither"
	"github.com/dialtone/connectcore/internal/volume"
	"github.com/dialtone/connectcore/pkg/model"
)

// buildStereoWAV assembles a minimal 16-bit PCM stereo WAV file, for
// exercising the pipeline without any network fixture.
func buildStereoWAV(t *testing.T, sampleRate int, frames [][2]int16) []byte {
	t.Helper()
	var data bytes.Buffer
	for _, f := range frames {
		_ = binary.Write(&data, binary.LittleEndian, f[0])
		_ = binary.Write(&data, binary.LittleEndian, f[1])
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2)) // stereo
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	byteRate := sampleRate * 2 * 16 / 8
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(4))  // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func newTestPipeline(t *testing.T, frames [][2]int16) *Pipeline {
	t.Helper()
	raw := buildStereoWAV(t, 44100, frames)
	dec, err := decoder.New(zerolog.Nop(), nopCloser{bytes.NewReader(raw)}, model.CodecWAV, model.Song)
	if err != nil {
		t.Fatalf("decoder.New: %v", err)
	}
	cfg := PipelineConfig{
		DitherCfg:  dither.Config{Format: dither.FormatFloat},
		TrackBits:  16,
		VolumeAtom: volume.NewAtom(),
	}
	return NewPipeline(dec, cfg)
}

func TestPipelinePassesThroughSamplesWithAllStagesDisabled(t *testing.T) {
	p := newTestPipeline(t, [][2]int16{{0, 0}, {16384, -16384}, {32767, -32768}})
	defer p.Close()

	var got []float32
	for {
		s, ok := p.NextSample()
		if !ok {
			break
		}
		got = append(got, s)
	}
	if len(got) != 6 {
		t.Fatalf("got %d samples, want 6 (3 frames x 2 channels): %v", len(got), got)
	}
	if got[0] != 0 {
		t.Fatalf("first sample = %v, want 0", got[0])
	}
}

func TestPipelineChannelsMatchesDecoder(t *testing.T) {
	p := newTestPipeline(t, [][2]int16{{0, 0}})
	defer p.Close()
	if p.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", p.Channels())
	}
	if p.SampleRate() != 44100 {
		t.Fatalf("SampleRate() = %d, want 44100", p.SampleRate())
	}
}

func TestPipelineSeekResetsFrameCursor(t *testing.T) {
	p := newTestPipeline(t, [][2]int16{{0, 0}, {100, 100}, {200, 200}, {300, 300}})
	defer p.Close()

	// Pull one channel of the first frame so frameAt is mid-frame, then
	// seek; the seek must not leave a stale partially-consumed frame behind.
	if _, ok := p.NextSample(); !ok {
		t.Fatal("expected a sample")
	}
	if err := p.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if p.frameAt != 0 || p.frameLen != 0 {
		t.Fatalf("frameAt=%d frameLen=%d after seek, want both 0", p.frameAt, p.frameLen)
	}
	if _, ok := p.NextSample(); !ok {
		t.Fatal("expected a sample after seek")
	}
}

func TestVolumeRampReachesTarget(t *testing.T) {
	atom := volume.NewAtom()
	start := time.Now()
	volume.Ramp(atom, 1, 0, 0, false)
	if elapsed := time.Since(start); elapsed <= 0 {
		t.Fatalf("expected ramp to take nonzero time, took %v", elapsed)
	}
	if amp := atom.Amplitude(); amp != 0 {
		t.Fatalf("Amplitude() after ramp-to-zero = %v, want 0", amp)
	}
}
