package track

import (
	"math"
	"path"
	"strings"

	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/pkg/model"
)

// bitrateCapKbps clamps a file-size-derived bitrate estimate per codec
// (§4.4.4).
var bitrateCapKbps = map[model.Codec]int{
	model.CodecADTS: 576,
	model.CodecMP4:  576,
	model.CodecMP3:  320,
	model.CodecFLAC: 1411,
	model.CodecWAV:  3072,
}

// fixedBitrateKbps is the bitrate assumed for a known, non-lossless
// requested quality (§4.4.4 "else: the fixed per-quality bitrate").
var fixedBitrateKbps = map[model.Quality]int{
	model.QualityHigh:     320,
	model.QualityStandard: 128,
	model.QualityBasic:    64,
}

// InferFormat fills in a track's codec and bitrate once its stream has
// opened, following the per-track-type rules of §4.4.4.
func InferFormat(t *model.Track, n *Negotiated, requested model.Quality, isUserUpload bool, fileSize int64) {
	switch {
	case t.Type == model.Livestream:
		t.Codec = codecFromProvider(n.Medium.Sources)
	case t.Type == model.Episode:
		t.Codec = codecFromExtension(n.Medium.Sources)
	case isUserUpload:
		t.Codec = model.CodecMP3
	default:
		t.Codec = codecFromQuality(requested)
	}

	t.BitrateKbps = computeBitrate(t.Codec, requested, fileSize, t.Duration.Seconds())
}

// codecFromProvider picks AAC/MP3 per the winning source's provider tag
// (negotiateLivestream already filtered/preferred AAC, §4.4.1).
func codecFromProvider(sources []gateway.Source) model.Codec {
	for _, s := range sources {
		if s.Provider == "aac" {
			return model.CodecADTS
		}
	}
	return model.CodecMP3
}

func codecFromExtension(sources []gateway.Source) model.Codec {
	if len(sources) == 0 {
		return model.CodecMP3
	}
	switch extFromURL(sources[0].URL) {
	case "flac":
		return model.CodecFLAC
	case "wav":
		return model.CodecWAV
	case "m4a", "mp4", "aac":
		return model.CodecMP4
	default:
		return model.CodecMP3
	}
}

func codecFromQuality(q model.Quality) model.Codec {
	if q == model.QualityLossless {
		return model.CodecFLAC
	}
	return model.CodecMP3
}

func computeBitrate(codec model.Codec, requested model.Quality, fileSize int64, durationSeconds float64) int {
	if requested == model.QualityLossless || requested == model.QualityUnknown {
		if fileSize <= 0 || durationSeconds <= 0 {
			return fixedBitrateKbps[model.QualityStandard]
		}
		kbps := int(math.Ceil(float64(fileSize) * 8 / durationSeconds / 1000))
		if cap, ok := bitrateCapKbps[codec]; ok && kbps > cap {
			kbps = cap
		}
		return kbps
	}
	if kbps, ok := fixedBitrateKbps[requested]; ok {
		return kbps
	}
	return fixedBitrateKbps[model.QualityStandard]
}

// extFromURL reports a lowercase file extension without the leading dot.
func extFromURL(rawURL string) string {
	ext := path.Ext(rawURL)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
