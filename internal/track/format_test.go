package track

import (
	"testing"
	"time"

	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/pkg/model"
)

func TestInferFormatEpisodeUsesURLExtension(t *testing.T) {
	tr := &model.Track{Type: model.Episode, Duration: 100 * time.Second}
	n := &Negotiated{Medium: gateway.Medium{Sources: []gateway.Source{{URL: "https://podcast.example/ep1.flac"}}}}
	InferFormat(tr, n, model.QualityStandard, false, 0)
	if tr.Codec != model.CodecFLAC {
		t.Fatalf("expected CodecFLAC, got %v", tr.Codec)
	}
}

func TestInferFormatLivestreamPrefersAACProvider(t *testing.T) {
	tr := &model.Track{Type: model.Livestream, Duration: 0}
	n := &Negotiated{Medium: gateway.Medium{Sources: []gateway.Source{{URL: "x", Provider: "aac"}}}}
	InferFormat(tr, n, model.QualityStandard, false, 0)
	if tr.Codec != model.CodecADTS {
		t.Fatalf("expected CodecADTS, got %v", tr.Codec)
	}
}

func TestInferFormatUserUploadIsAlwaysMP3(t *testing.T) {
	tr := &model.Track{Type: model.Song, Duration: 100 * time.Second}
	n := &Negotiated{}
	InferFormat(tr, n, model.QualityLossless, true, 0)
	if tr.Codec != model.CodecMP3 {
		t.Fatalf("expected CodecMP3 for user upload, got %v", tr.Codec)
	}
}

func TestInferFormatSongUsesRequestedQuality(t *testing.T) {
	tr := &model.Track{Type: model.Song, Duration: 100 * time.Second}
	n := &Negotiated{}
	InferFormat(tr, n, model.QualityLossless, false, 0)
	if tr.Codec != model.CodecFLAC {
		t.Fatalf("expected CodecFLAC for lossless request, got %v", tr.Codec)
	}
}

func TestComputeBitrateFromFileSizeIsClampedToCodecCap(t *testing.T) {
	// 10MB over 10 seconds implies a huge bitrate; MP3 caps at 320kbps.
	kbps := computeBitrate(model.CodecMP3, model.QualityLossless, 10*1024*1024, 10)
	if kbps != 320 {
		t.Fatalf("expected clamp to 320kbps, got %d", kbps)
	}
}

func TestComputeBitrateUsesFixedPerQualityValue(t *testing.T) {
	kbps := computeBitrate(model.CodecMP3, model.QualityHigh, 0, 0)
	if kbps != 320 {
		t.Fatalf("expected fixed High bitrate of 320, got %d", kbps)
	}
}

func TestComputeBitrateFallsBackWhenSizeOrDurationUnknown(t *testing.T) {
	kbps := computeBitrate(model.CodecFLAC, model.QualityLossless, 0, 0)
	if kbps != fixedBitrateKbps[model.QualityStandard] {
		t.Fatalf("expected standard fallback bitrate, got %d", kbps)
	}
}

func TestExtFromURL(t *testing.T) {
	cases := map[string]string{
		"https://example.com/a/b.MP3": "mp3",
		"https://example.com/c.flac":  "flac",
		"https://example.com/noext":   "",
	}
	for url, want := range cases {
		if got := extFromURL(url); got != want {
			t.Fatalf("extFromURL(%q) = %q, want %q", url, got, want)
		}
	}
}
