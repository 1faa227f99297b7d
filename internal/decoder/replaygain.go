package decoder

import (
	"io"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// replayGainKeys are the raw-frame keys tag.Metadata.Raw() exposes the
// ReplayGain track-gain value under, across the ID3v2/FLAC/MP4 tag
// conventions this stack's codecs see in practice.
var replayGainKeys = []string{
	"replaygain_track_gain",
	"REPLAYGAIN_TRACK_GAIN",
	"TXXX:replaygain_track_gain",
	"TXXX:REPLAYGAIN_TRACK_GAIN",
}

// ExtractReplayGain advances to the file's tag metadata and returns the
// first ReplayGainTrackGain value found, as dB (§4.3.6). Returns ok=false
// if no tag or no matching frame is present.
func ExtractReplayGain(r io.ReadSeeker) (gainDB float32, ok bool) {
	meta, err := tag.ReadFrom(r)
	if err != nil {
		return 0, false
	}
	raw := meta.Raw()
	for _, key := range replayGainKeys {
		v, present := raw[key]
		if !present {
			continue
		}
		if g, ok := parseGain(v); ok {
			return g, true
		}
	}
	return 0, false
}

// parseGain accepts either a numeric type or a string like "-6.8 dB".
func parseGain(v interface{}) (float32, bool) {
	switch t := v.(type) {
	case float32:
		return t, true
	case float64:
		return float32(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimSuffix(s, "dB")
		s = strings.TrimSuffix(s, "DB")
		s = strings.TrimSpace(s)
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, false
		}
		return float32(f), true
	default:
		return 0, false
	}
}
